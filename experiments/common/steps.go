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

package common

import (
	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/experiment"
	"github.com/Marie-Donnie/juice/pkg/juice"
	"github.com/Marie-Donnie/juice/pkg/sweep"
	"github.com/Marie-Donnie/juice/pkg/utils/err_collection"
)

// Sweep parameter names.
const (
	ParamDB      = "db"
	ParamDelay   = "delay"
	ParamDBNodes = "db-nodes"
	ParamBurst   = "burst"
)

// Params are the settings of one combination.
type Params struct {
	DB       deployment.Database
	Locality bool
	Delay    int
	// Nodes overrides the number of database nodes when positive.
	Nodes int
	Burst bool
	// Name of the environment and result directory.
	Name string
}

// Parser reads the settings of a combination.
type Parser func(combination sweep.Combination) (Params, error)

// ParseDB reads the db parameter of combination.
func ParseDB(combination sweep.Combination) (deployment.Database, bool, error) {
	value, err := combination.Get(ParamDB)
	if err != nil {
		return "", false, err
	}
	return experiment.ParseDBChoice(value)
}

// Deployment returns base sized and delayed for params.
func (p Params) Deployment(base deployment.Config) (deployment.Config, error) {
	config := base.Clone()
	if p.Nodes > 0 {
		var err error
		if config, err = config.WithNodes(0, p.Nodes); err != nil {
			return config, err
		}
	}
	config.TC = config.TC.WithDelay(p.Delay)
	return config, nil
}

// KeystoneSteps deploy the database and Keystone, apply the delay, run the rally scenarios
// and fetch the results.
func KeystoneSteps(j *juice.Juice, base deployment.Config, parse Parser) []experiment.Step {
	step := func(name string, run func(p Params, config deployment.Config) error) experiment.Step {
		return experiment.Step{Name: name, Run: func(combination sweep.Combination) error {
			p, err := parse(combination)
			if err != nil {
				return err
			}
			config, err := p.Deployment(base)
			if err != nil {
				return err
			}
			return run(p, config)
		}}
	}

	return []experiment.Step{
		step("deploy", func(p Params, config deployment.Config) error {
			return j.Deploy(config, p.DB, p.Locality, p.Name)
		}),
		step("openstack", func(p Params, _ deployment.Config) error {
			return j.Openstack(p.DB)
		}),
		step("emulate", func(_ Params, config deployment.Config) error {
			return j.Emulate(config.TC)
		}),
		step("rally", func(p Params, _ deployment.Config) error {
			return j.Rally(p.DB, juice.Scenarios, juice.DefaultRallyDirectory, p.Burst)
		}),
		step("backup", func(Params, deployment.Config) error {
			return j.Backup()
		}),
	}
}

// Teardown removes the deployed components and puts the latency back to its normal state.
func Teardown(j *juice.Juice, base deployment.Config) func(sweep.Combination) error {
	return func(sweep.Combination) error {
		var errs errcollection.ErrorCollection
		errs.Add(j.Destroy())
		errs.Add(j.Emulate(base.TC.WithDelay(0)))
		return errs.GetErrIfAny()
	}
}
