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

// latency-impact measures how the delay between database nodes slows Keystone down, with
// scenarios run paced or in burst.
package main

import (
	"github.com/Marie-Donnie/juice/experiments/common"
	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/experiment"
	"github.com/Marie-Donnie/juice/pkg/juice"
	"github.com/Marie-Donnie/juice/pkg/sweep"
	"github.com/Marie-Donnie/juice/pkg/utils/err_collection"
	"github.com/Marie-Donnie/juice/pkg/utils/errutil"
)

const (
	name  = "latency-impact"
	nodes = 9
)

var (
	databases = []interface{}{
		experiment.DBChoice(deployment.MariaDB, false),
		experiment.DBChoice(deployment.Galera, false),
		experiment.DBChoice(deployment.CockroachDB, false),
	}
	delays = []interface{}{50, 150}
	bursts = []interface{}{false, true}
)

func burstSuffix(burst bool) string {
	if burst {
		return "T"
	}
	return "F"
}

func parse(combination sweep.Combination) (common.Params, error) {
	db, locality, err := common.ParseDB(combination)
	if err != nil {
		return common.Params{}, err
	}
	delay, err := combination.Int(common.ParamDelay)
	if err != nil {
		return common.Params{}, err
	}
	burst, err := combination.Bool(common.ParamBurst)
	if err != nil {
		return common.Params{}, err
	}
	return common.Params{
		DB:       db,
		Locality: locality,
		Delay:    delay,
		Burst:    burst,
		Name:     experiment.XPName(db, nodes, delay, burstSuffix(burst)),
	}, nil
}

// initialize claims the resources once and leaves them clean for the first combination.
func initialize(j *juice.Juice, base deployment.Config) func() error {
	return func() error {
		if err := j.G5k(base, true, ""); err != nil {
			return err
		}
		if err := j.Inventory(); err != nil {
			return err
		}
		var errs errcollection.ErrorCollection
		errs.Add(j.Destroy())
		errs.Add(j.Emulate(base.TC.WithDelay(0)))
		return errs.GetErrIfAny()
	}
}

func main() {
	common.Configure(name)

	base, err := common.Config(common.KeystoneConfig(common.Resources{
		JobName:  "juice-latency-impact",
		Walltime: "61:59:00",
		DBNodes:  nodes,
	}))
	errutil.CheckWithContext(err, "Invalid deployment")

	j, err := juice.NewFromFlags()
	errutil.CheckWithContext(err, "Cannot set up juice")

	common.Run(common.Experiment{
		Name:       name,
		SweeperDir: common.SweeperDir(name),
		Parameters: []sweep.Parameter{
			sweep.NewParameter(common.ParamDB, databases...),
			sweep.NewParameter(common.ParamDelay, delays...),
			sweep.NewParameter(common.ParamBurst, bursts...),
		},
		Init: initialize(j, base),
		Loop: experiment.Loop{
			Steps:    common.KeystoneSteps(j, base, parse),
			Teardown: common.Teardown(j, base),
		},
	})
}
