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

// keystone-scaling benchmarks Keystone on databases of growing size under several delays.
package main

import (
	"github.com/Marie-Donnie/juice/experiments/common"
	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/experiment"
	"github.com/Marie-Donnie/juice/pkg/juice"
	"github.com/Marie-Donnie/juice/pkg/sweep"
	"github.com/Marie-Donnie/juice/pkg/utils/errutil"
)

const name = "keystone-scaling"

var (
	databases = []interface{}{
		experiment.DBChoice(deployment.MariaDB, false),
		experiment.DBChoice(deployment.CockroachDB, false),
		experiment.DBChoice(deployment.CockroachDB, true),
	}
	delays  = []interface{}{0, 50, 150}
	dbNodes = []interface{}{3, 25, 45}
)

func parse(combination sweep.Combination) (common.Params, error) {
	db, locality, err := common.ParseDB(combination)
	if err != nil {
		return common.Params{}, err
	}
	delay, err := combination.Int(common.ParamDelay)
	if err != nil {
		return common.Params{}, err
	}
	nodes, err := combination.Int(common.ParamDBNodes)
	if err != nil {
		return common.Params{}, err
	}
	return common.Params{
		DB:       db,
		Locality: locality,
		Delay:    delay,
		Nodes:    nodes,
		Name:     experiment.XPName(db, nodes, delay, deployment.LocalityName(locality)),
	}, nil
}

func main() {
	common.Configure(name)

	base, err := common.Config(common.KeystoneConfig(common.Resources{
		JobName:  "juice-tests-cockroachdb",
		Walltime: "08:20:00",
		Queue:    "testing",
		DBNodes:  45,
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
			sweep.NewParameter(common.ParamDBNodes, dbNodes...),
		},
		Loop: experiment.Loop{
			Steps:    common.KeystoneSteps(j, base, parse),
			Teardown: common.Teardown(j, base),
		},
	})
}
