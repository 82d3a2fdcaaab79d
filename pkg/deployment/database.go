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

package deployment

import "fmt"

// Database is one of the database backends Keystone can be deployed on.
type Database string

const (
	// MariaDB is a single MariaDB server.
	MariaDB Database = "mariadb"
	// Galera is a MariaDB Galera multi-master cluster.
	Galera Database = "galera"
	// CockroachDB is a CockroachDB cluster.
	CockroachDB Database = "cockroachdb"
)

// Databases lists supported databases.
var Databases = []Database{MariaDB, Galera, CockroachDB}

// DatabaseNames lists supported database names, in Databases order.
func DatabaseNames() []string {
	names := make([]string, 0, len(Databases))
	for _, db := range Databases {
		names = append(names, string(db))
	}
	return names
}

// ParseDatabase validates name and returns the matching Database.
func ParseDatabase(name string) (Database, error) {
	for _, db := range Databases {
		if string(db) == name {
			return db, nil
		}
	}
	return "", NewConfigError("database %q is not supported, use one of %v", name, DatabaseNames())
}

// Family returns the short name used in result directories ("maria", "cockroach", "galera").
func (d Database) Family() string {
	switch d {
	case MariaDB:
		return "maria"
	case CockroachDB:
		return "cockroach"
	default:
		return string(d)
	}
}

// SupportsLocality tells whether follow-the-workload placement can be enabled.
func (d Database) SupportsLocality() bool {
	return d == CockroachDB
}

// ValidateLocality refuses locality on databases without it.
func (d Database) ValidateLocality(locality bool) error {
	if locality && !d.SupportsLocality() {
		return NewConfigError("locality is only available for %s, not %s", CockroachDB, d)
	}
	return nil
}

func (d Database) String() string {
	return string(d)
}

// LocalityName is the suffix used in experiment names.
func LocalityName(locality bool) string {
	if locality {
		return "local"
	}
	return "nonlocal"
}

// ExperimentName builds "<db>-<nodes>-<delay>[-<suffix>]".
func ExperimentName(db Database, nodes int, delay int, suffix string) string {
	name := fmt.Sprintf("%s-%d-%d", db, nodes, delay)
	if suffix != "" {
		name += "-" + suffix
	}
	return name
}
