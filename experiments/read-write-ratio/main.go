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

// read-write-ratio counts the reads and writes each rally scenario issues on a single
// MariaDB node hosting Keystone.
package main

import (
	"context"
	"os"
	"strconv"

	"github.com/Marie-Donnie/juice/experiments/common"
	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/Marie-Donnie/juice/pkg/dbstats"
	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/environment"
	"github.com/Marie-Donnie/juice/pkg/experiment"
	"github.com/Marie-Donnie/juice/pkg/juice"
	"github.com/Marie-Donnie/juice/pkg/metadata"
	"github.com/Marie-Donnie/juice/pkg/sweep"
	"github.com/Marie-Donnie/juice/pkg/utils/errutil"
	"github.com/Marie-Donnie/juice/pkg/visualization"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	name          = "read-write-ratio"
	paramScenario = "scenario"
	db            = deployment.MariaDB
)

var (
	dbUserFlag     = conf.NewStringFlag("db_user", "Database account reading the status counters", dbstats.DefaultUser)
	dbPasswordFlag = conf.NewStringFlag("db_password", "Password of the database account", dbstats.DefaultPassword)
)

// results keeps the ratios measured by this run, in measurement order.
type results struct {
	scenarios []string
	ratios    []dbstats.Ratio
}

func (r *results) add(scenario string, ratio dbstats.Ratio) {
	r.scenarios = append(r.scenarios, scenario)
	r.ratios = append(r.ratios, ratio)
}

// report records the ratios in metadata and prints them.
func (r *results) report(metaData metadata.Metadata) error {
	for i, ratio := range r.ratios {
		err := metaData.RecordMap(map[string]string{
			"scenario": r.scenarios[i],
			"reads":    strconv.FormatInt(ratio.Reads, 10),
			"writes":   strconv.FormatInt(ratio.Writes, 10),
			"%reads":   strconv.FormatFloat(ratio.PercentReads, 'f', 2, 64),
			"%writes":  strconv.FormatFloat(ratio.PercentWrites, 'f', 2, 64),
		}, metadata.TypeReadWrite)
		if err != nil {
			return err
		}
	}
	visualization.DrawRatios(os.Stdout, r.scenarios, r.ratios)
	return nil
}

// databaseDSN addresses the first database host of the current environment.
func databaseDSN(j *juice.Juice) (string, error) {
	record, err := environment.Load(j.EnvDir)
	if err != nil {
		return "", err
	}
	hosts := record.Roles["database"]
	if len(hosts) == 0 {
		return "", errors.Errorf("no database host in environment %s", record.ResultDir)
	}
	return dbstats.DSN(hosts[0].Address, dbstats.DefaultPort, dbUserFlag.Value(), dbPasswordFlag.Value()), nil
}

// measure runs the rally scenario of the combination and stores the operations it issued.
func measure(j *juice.Juice, r *results) experiment.Step {
	return experiment.Step{Name: "rally", Run: func(combination sweep.Combination) error {
		scenario, err := combination.Get(paramScenario)
		if err != nil {
			return err
		}
		dsn, err := databaseDSN(j)
		if err != nil {
			return err
		}
		mysql, err := dbstats.Open(dsn)
		if err != nil {
			return err
		}
		defer mysql.Close()

		ratio, err := dbstats.Measure(context.Background(), mysql, func() error {
			return j.Rally(db, []string{scenario}, "", false)
		})
		if err != nil {
			return err
		}
		logrus.Infof("%s: %s", scenario, ratio)
		r.add(scenario, ratio)
		return nil
	}}
}

func main() {
	common.Configure(name)

	base, err := common.Config(common.SingleNodeConfig(common.Resources{
		JobName:  "juice-read-write-ratio",
		Walltime: "04:50:00",
		Cluster:  "graphene",
		Site:     "nancy",
	}))
	errutil.CheckWithContext(err, "Invalid deployment")

	j, err := juice.NewFromFlags()
	errutil.CheckWithContext(err, "Cannot set up juice")

	scenarios := make([]interface{}, 0, len(juice.Scenarios))
	for _, scenario := range juice.Scenarios {
		scenarios = append(scenarios, scenario)
	}

	r := &results{}
	common.Run(common.Experiment{
		Name:       name,
		SweeperDir: common.SweeperDir(name),
		Parameters: []sweep.Parameter{sweep.NewParameter(paramScenario, scenarios...)},
		Init: func() error {
			if err := j.Deploy(base, db, false, ""); err != nil {
				return err
			}
			return j.Openstack(db)
		},
		Loop: experiment.Loop{
			Steps: []experiment.Step{measure(j, r)},
		},
		Report: r.report,
	})
}
