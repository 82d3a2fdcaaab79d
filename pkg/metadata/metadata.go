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
	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/pkg/errors"
)

// Predefined types of metadata.
// This selector allows to group metadata by their common characteristics.
// For instance TypeFlags can be added to parameters passed to juice,
// TypeEnviron for environment variables and TypeCombination for the outcome
// of one sweep combination.
// Note that kind is just a string and each experiment can define
// its own personalized types of metadata.
const (
	TypeEmpty       = ""
	TypeFlags       = "flags"
	TypeEnviron     = "environ"
	TypePlatform    = "platform"
	TypeCombination = "combination"
	TypeReadWrite   = "read_write"
)

// Metadata stores string maps tagged with a kind for one experiment.
type Metadata interface {
	// Record stores a single key and value.
	Record(key string, value string, kind string) error
	// RecordMap stores metadata as one entry of kind.
	RecordMap(metadata map[string]string, kind string) error
	// GetByKind returns the only entry of kind, an error when there is none or several.
	GetByKind(kind string) (map[string]string, error)
	// All returns the entries of kind in recording order.
	All(kind string) ([]map[string]string, error)
	// Clear deletes every entry of the experiment.
	Clear() error
}

// NewDefault returns the store selected by the metadata_db flag.
func NewDefault(experimentID string) (Metadata, error) {
	switch conf.DefaultMetadataDB.Value() {
	case "cassandra":
		store, err := NewCassandra(experimentID, DefaultCassandraConfig())
		if err != nil {
			return nil, err
		}
		return store, nil
	case "none":
		return NewMemory(experimentID), nil
	}
	return nil, errors.Errorf("unsupported database for metadata: %s", conf.DefaultMetadataDB.Value())
}

func single(experimentID, kind string, entries []map[string]string) (map[string]string, error) {
	if len(entries) != 1 {
		return nil, errors.Errorf("cannot retrieve metadata for experiment ID %q and %q kind: %d entries", experimentID, kind, len(entries))
	}
	return entries[0], nil
}
