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

package experiment

import (
	"strings"

	"github.com/Marie-Donnie/juice/pkg/deployment"
)

const localitySuffix = "-local"

// DBChoice formats a database and its locality as one sweep parameter value.
func DBChoice(db deployment.Database, locality bool) string {
	if locality {
		return string(db) + localitySuffix
	}
	return string(db)
}

// ParseDBChoice reverts DBChoice.
func ParseDBChoice(value string) (deployment.Database, bool, error) {
	locality := strings.HasSuffix(value, localitySuffix)
	db, err := deployment.ParseDatabase(strings.TrimSuffix(value, localitySuffix))
	if err != nil {
		return "", false, err
	}
	if err := db.ValidateLocality(locality); err != nil {
		return "", false, err
	}
	return db, locality, nil
}

// XPName names the environment and result directory of a combination: <db>-<nodes>-<delay>[-<suffix>].
func XPName(db deployment.Database, nodes, delay int, suffix string) string {
	return deployment.ExperimentName(db, nodes, delay, suffix)
}
