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

package analysis

import (
	"path/filepath"
	"strings"

	"github.com/Marie-Donnie/juice/pkg/archive"
	"github.com/sirupsen/logrus"
)

// DefaultNoiseAction is the cleanup action dropped from noiseless results.
const DefaultNoiseAction = "keystone_v3.delete_project"

// Scenarios are the keystone scenarios taken into account.
var Scenarios = []string{
	"authenticate_user_and_validate_token",
	"create_add_and_list_user_roles",
	"create_and_list_tenants",
	"get_entities",
	"create_and_update_user",
	"create_user_update_password",
	"create_user_set_enabled_and_delete",
	"create_and_list_users",
}

// Parser turns the rally reports of result directories into pivoted tables.
type Parser struct {
	NoiseAction string
	Scenarios   []string
}

// NewParser returns a parser for the keystone scenarios.
func NewParser() Parser {
	return Parser{NoiseAction: DefaultNoiseAction, Scenarios: Scenarios}
}

func (p Parser) known(scenario string) bool {
	for _, s := range p.Scenarios {
		if s == scenario {
			return true
		}
	}
	return false
}

// scenarioOf returns the second component of a subtask title like KeystoneBasic.get_entities.
func scenarioOf(title string) string {
	parts := strings.Split(title, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// Parse reads the reports unpacked in resultDir, keeps those of latencyFilter (any latency when
// empty) and appends one pivoted table per report to agg.
func (p Parser) Parse(resultDir, latencyFilter string, removeNoise bool, agg *Aggregator) ([]*Table, error) {
	info, err := ParseDirName(filepath.Base(resultDir))
	if err != nil {
		return nil, err
	}
	if latencyFilter != "" && info.Latency != latencyFilter {
		logrus.Debugf("Skipping %s: latency %s is not %s", resultDir, info.Latency, latencyFilter)
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(resultDir, ResultsDir, "*.json"))
	if err != nil {
		return nil, err
	}

	noise := ""
	if removeNoise {
		noise = p.NoiseAction
	}

	var tables []*Table
	for _, file := range files {
		subtask, err := ReadReport(file)
		if err != nil {
			return tables, err
		}
		scenario := scenarioOf(subtask.Title)
		if !p.known(scenario) {
			logrus.Debugf("Skipping %s: unknown scenario %q", file, subtask.Title)
			continue
		}

		tags := Tags{
			Scenario: scenario,
			DB:       info.Family,
			Nodes:    info.Nodes,
			Latency:  info.Latency,
			Locality: info.Locality,
		}
		rows, err := Pivot(Flatten(subtask.Actions(), tags, noise))
		if err != nil {
			return tables, err
		}
		tables = append(tables, &Table{Latency: info.Latency, Source: file, Rows: rows})
	}

	if len(tables) == 0 {
		return nil, nil
	}
	identity := run{DB: info.Family, Nodes: info.Nodes, Latency: info.Latency, Locality: info.Locality}
	if err := agg.claim(identity, filepath.Clean(resultDir)); err != nil {
		return nil, err
	}
	for _, table := range tables {
		agg.Add(table)
	}
	logrus.Infof("Parsed %d reports of %s", len(tables), resultDir)
	return tables, nil
}

// Parse parses resultDir with the default parser.
func Parse(resultDir, latencyFilter string, removeNoise bool, agg *Aggregator) ([]*Table, error) {
	return NewParser().Parse(resultDir, latencyFilter, removeNoise, agg)
}

// FullRun unpacks and parses every result directory of root.
func (p Parser) FullRun(root, latencyFilter string, removeNoise bool, agg *Aggregator) error {
	for _, dir := range Scan(root) {
		if _, err := Unpack(dir, archive.DefaultOptions()); err != nil {
			return err
		}
		if _, err := p.Parse(dir, latencyFilter, removeNoise, agg); err != nil {
			return err
		}
	}
	return nil
}

// FullRun runs the default parser on root.
func FullRun(root, latencyFilter string, removeNoise bool, agg *Aggregator) error {
	return NewParser().FullRun(root, latencyFilter, removeNoise, agg)
}
