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

package metadata

import (
	"fmt"
	"time"

	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

const (
	createTable = `CREATE TABLE IF NOT EXISTS juice_metadata (
	experiment_id text,
	kind text,
	recorded timeuuid,
	entry map<text,text>,
	PRIMARY KEY ((experiment_id), kind, recorded)
) WITH CLUSTERING ORDER BY (kind ASC, recorded ASC)`
	insertEntry  = `INSERT INTO juice_metadata (experiment_id, kind, recorded, entry) VALUES (?, ?, ?, ?)`
	selectByKind = `SELECT entry FROM juice_metadata WHERE experiment_id = ? AND kind = ?`
	deleteAll    = `DELETE FROM juice_metadata WHERE experiment_id = ?`
)

// CassandraConfig holds the connection settings of the metadata cluster.
type CassandraConfig struct {
	Address           string
	Port              int
	KeyspaceName      string
	CreateKeyspace    bool
	Username          string
	Password          string
	Timeout           time.Duration
	ConnectionTimeout time.Duration
	InitialHostLookup bool
	SslEnabled        bool
	SslHostValidation bool
	SslCAPath         string
	SslCertPath       string
	SslKeyPath        string
}

// DefaultCassandraConfig reads the cassandra_* flags.
func DefaultCassandraConfig() CassandraConfig {
	return CassandraConfig{
		Address:           conf.CassandraAddress.Value(),
		Port:              conf.CassandraPort.Value(),
		KeyspaceName:      conf.CassandraKeyspaceName.Value(),
		CreateKeyspace:    conf.CassandraCreateKeyspace.Value(),
		Username:          conf.CassandraUsername.Value(),
		Password:          conf.CassandraPassword.Value(),
		Timeout:           conf.CassandraTimeout.Value(),
		ConnectionTimeout: conf.CassandraConnectionTimeout.Value(),
		InitialHostLookup: conf.CassandraInitialHostLookup.Value(),
		SslEnabled:        conf.CassandraSslEnabled.Value(),
		SslHostValidation: conf.CassandraSslHostValidation.Value(),
		SslCAPath:         conf.CassandraSslCAPath.Value(),
		SslCertPath:       conf.CassandraSslCertPath.Value(),
		SslKeyPath:        conf.CassandraSslKeyPath.Value(),
	}
}

// cluster builds the gocql configuration, without keyspace.
func (c CassandraConfig) cluster() *gocql.ClusterConfig {
	cluster := gocql.NewCluster(c.Address)
	cluster.Port = c.Port
	cluster.ProtoVersion = 4
	cluster.Consistency = gocql.LocalOne
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = c.Timeout
	cluster.ConnectTimeout = c.ConnectionTimeout
	cluster.DisableInitialHostLookup = !c.InitialHostLookup

	if c.Username != "" && c.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{Username: c.Username, Password: c.Password}
	}
	if c.SslEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			EnableHostVerification: c.SslHostValidation,
			CaPath:                 c.SslCAPath,
			CertPath:               c.SslCertPath,
			KeyPath:                c.SslKeyPath,
		}
	}
	return cluster
}

// Cassandra stores the metadata of one experiment in the juice_metadata table.
type Cassandra struct {
	experimentID string
	config       CassandraConfig
	session      *gocql.Session
}

// NewCassandra connects to the cluster, creating the keyspace and table when needed.
func NewCassandra(experimentID string, config CassandraConfig) (*Cassandra, error) {
	if config.CreateKeyspace {
		if err := createKeyspace(config); err != nil {
			return nil, err
		}
	}

	cluster := config.cluster()
	cluster.Keyspace = config.KeyspaceName
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot connect to cassandra at %s:%d", config.Address, config.Port)
	}
	if err := session.Query(createTable).Exec(); err != nil {
		session.Close()
		return nil, errors.Wrap(err, "cannot create metadata table")
	}
	return &Cassandra{experimentID: experimentID, config: config, session: session}, nil
}

func createKeyspace(config CassandraConfig) error {
	session, err := config.cluster().CreateSession()
	if err != nil {
		return errors.Wrapf(err, "cannot connect to cassandra at %s:%d", config.Address, config.Port)
	}
	defer session.Close()

	query := fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 1}", config.KeyspaceName)
	return errors.Wrapf(session.Query(query).Exec(), "cannot create keyspace %q", config.KeyspaceName)
}

// Record stores a single key and value.
func (m *Cassandra) Record(key, value, kind string) error {
	return m.RecordMap(map[string]string{key: value}, kind)
}

// RecordMap stores metadata as one entry of kind.
func (m *Cassandra) RecordMap(metadata map[string]string, kind string) error {
	err := m.session.Query(insertEntry, m.experimentID, kind, gocql.TimeUUID(), metadata).Exec()
	return errors.Wrapf(err, "cannot record metadata of kind %q", kind)
}

// All returns the entries of kind in recording order.
func (m *Cassandra) All(kind string) ([]map[string]string, error) {
	entries := []map[string]string{}
	iter := m.session.Query(selectByKind, m.experimentID, kind).Iter()
	entry := map[string]string{}
	for iter.Scan(&entry) {
		entries = append(entries, entry)
		entry = map[string]string{}
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrapf(err, "cannot read metadata of kind %q", kind)
	}
	return entries, nil
}

// GetByKind returns the only entry of kind.
func (m *Cassandra) GetByKind(kind string) (map[string]string, error) {
	entries, err := m.All(kind)
	if err != nil {
		return nil, err
	}
	return single(m.experimentID, kind, entries)
}

// Clear deletes every entry of the experiment.
func (m *Cassandra) Clear() error {
	err := m.session.Query(deleteAll, m.experimentID).Exec()
	return errors.Wrapf(err, "cannot clear metadata of experiment %q", m.experimentID)
}

// Close ends the session.
func (m *Cassandra) Close() {
	m.session.Close()
}
