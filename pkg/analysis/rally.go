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
	"encoding/json"
	"io/ioutil"

	"github.com/pkg/errors"
)

// Report is the part of a rally task report read by the analysis.
type Report struct {
	Tasks []struct {
		Subtasks []Subtask `json:"subtasks"`
	} `json:"tasks"`
}

// Subtask of a rally task.
type Subtask struct {
	Title     string `json:"title"`
	Workloads []struct {
		Data []struct {
			AtomicActions []AtomicAction `json:"atomic_actions"`
		} `json:"data"`
	} `json:"workloads"`
}

// AtomicAction is one timed operation of a scenario iteration.
type AtomicAction struct {
	Name       string         `json:"name"`
	StartedAt  float64        `json:"started_at"`
	FinishedAt float64        `json:"finished_at"`
	Children   []AtomicAction `json:"children"`
}

// ReadReport decodes the rally report in path.
func ReadReport(path string) (*Subtask, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}
	report := &Report{}
	if err := json.Unmarshal(data, report); err != nil {
		return nil, errors.Wrapf(err, "malformed report %s", path)
	}
	if len(report.Tasks) == 0 || len(report.Tasks[0].Subtasks) == 0 {
		return nil, errors.Errorf("malformed report %s: no subtask", path)
	}
	return &report.Tasks[0].Subtasks[0], nil
}

// Actions returns the root actions of every iteration of every workload.
func (s *Subtask) Actions() []AtomicAction {
	var actions []AtomicAction
	for _, workload := range s.Workloads {
		for _, iteration := range workload.Data {
			actions = append(actions, iteration.AtomicActions...)
		}
	}
	return actions
}

// Tags identify the run an action comes from.
type Tags struct {
	Scenario string
	DB       string
	Nodes    int
	Latency  string
	Locality string
}

// Action is a flattened atomic action.
type Action struct {
	Tags
	Name       string
	StartedAt  float64
	FinishedAt float64
}

// Duration in seconds.
func (a Action) Duration() float64 {
	return a.FinishedAt - a.StartedAt
}

// Flatten returns the actions of the trees depth first, parents before their children.
// Actions named noise are dropped with their subtree, unless noise is empty.
func Flatten(actions []AtomicAction, tags Tags, noise string) []Action {
	var flat []Action
	var walk func([]AtomicAction)
	walk = func(actions []AtomicAction) {
		for _, action := range actions {
			if noise != "" && action.Name == noise {
				continue
			}
			flat = append(flat, Action{
				Tags:       tags,
				Name:       action.Name,
				StartedAt:  action.StartedAt,
				FinishedAt: action.FinishedAt,
			})
			walk(action.Children)
		}
	}
	walk(actions)
	return flat
}
