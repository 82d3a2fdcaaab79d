// Copyright (c) 2017 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conf

import "time"

var (
	// DefaultMetadataDB selects where experiment metadata is stored: "cassandra" or "none".
	DefaultMetadataDB = NewStringFlag("metadata_db", "Database used to store experiment metadata: cassandra or none", "none")

	// CassandraAddress represents cassandra address flag.
	CassandraAddress = NewStringFlag("cassandra_address", "Address of Cassandra DB endpoint for metadata", "127.0.0.1")
	// CassandraPort is the port of cassandra native transport.
	CassandraPort = NewIntFlag("cassandra_port", "Port of Cassandra DB endpoint", 9042)
	// CassandraKeyspaceName is the keyspace metadata tables live in.
	CassandraKeyspaceName = NewStringFlag("cassandra_keyspace_name", "Keyspace used to store metadata", "juice")
	// CassandraUsername is used with CassandraPassword for password authentication.
	CassandraUsername = NewStringFlag("cassandra_username", "The user name which will be presented when connecting to the cluster", "")
	// CassandraPassword is used with CassandraUsername for password authentication.
	CassandraPassword = NewStringFlag("cassandra_password", "The password which will be presented when connecting to the cluster", "")
	// CassandraTimeout bounds every query.
	CassandraTimeout = NewDurationFlag("cassandra_timeout", "Time limit for Cassandra queries", 10*time.Second)
	// CassandraConnectionTimeout bounds the initial connection.
	CassandraConnectionTimeout = NewDurationFlag("cassandra_connection_timeout", "Time limit for connecting to Cassandra", 10*time.Second)
	// CassandraCreateKeyspace asks for keyspace creation on connect.
	CassandraCreateKeyspace = NewBoolFlag("cassandra_create_keyspace", "Try to create keyspace when connecting", true)
	// CassandraInitialHostLookup enables lookup of peers on connect.
	CassandraInitialHostLookup = NewBoolFlag("cassandra_initial_host_lookup", "Lookup Cassandra cluster hosts before connecting", false)
	// CassandraSslEnabled enables TLS.
	CassandraSslEnabled = NewBoolFlag("cassandra_ssl", "Use SSL when connecting to Cassandra", false)
	// CassandraSslHostValidation verifies server certificate host.
	CassandraSslHostValidation = NewBoolFlag("cassandra_ssl_host_validation", "Validate Cassandra host name against its certificate", false)
	// CassandraSslCAPath is the CA certificate path.
	CassandraSslCAPath = NewStringFlag("cassandra_ssl_ca_path", "Path to CA certificate", "")
	// CassandraSslCertPath is the client certificate path.
	CassandraSslCertPath = NewStringFlag("cassandra_ssl_cert_path", "Path to client certificate", "")
	// CassandraSslKeyPath is the client key path.
	CassandraSslKeyPath = NewStringFlag("cassandra_ssl_key_path", "Path to client key", "")
)
