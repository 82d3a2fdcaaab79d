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

package main

import (
	"fmt"

	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/juice"
	"gopkg.in/alecthomas/kingpin.v2"
)

// options holds the command scoped flags once parsed.
type options struct {
	conf      *string
	db        *string
	locality  *bool
	name      *string
	force     *bool
	files     *[]string
	directory *string
	burst     *bool
	delay     *int
	groups    *[]string
	out       *string
}

func confFlag(o *options) func(*kingpin.CmdClause) {
	return func(cmd *kingpin.CmdClause) {
		o.conf = cmd.Flag("conf", "Path to the configuration file describing the deployment").Default("conf.yaml").String()
	}
}

func dbFlags(o *options, locality bool) func(*kingpin.CmdClause) {
	return func(cmd *kingpin.CmdClause) {
		o.db = cmd.Flag("db", fmt.Sprintf("Database to use %v", deployment.DatabaseNames())).Default(string(deployment.CockroachDB)).String()
		if locality {
			o.locality = cmd.Flag("locality", "Use follow-the-workload (only for CockroachDB)").Bool()
		}
	}
}

func nameFlag(o *options, cmd *kingpin.CmdClause) {
	o.name = cmd.Flag("name", "Name of the environment directory to create (juice_<date> when empty)").String()
}

func (o *options) database() (deployment.Database, error) {
	return deployment.ParseDatabase(*o.db)
}

func (o *options) tc() (deployment.TC, error) {
	tc := deployment.DefaultTC()
	if *o.conf != "" {
		config, err := deployment.LoadConfig(*o.conf)
		if err != nil {
			return tc, err
		}
		tc = config.TC
	}
	if *o.delay >= 0 {
		tc = tc.WithDelay(*o.delay)
	}
	return tc, nil
}

// commands is the juice command table. newJuice is called once the command line is parsed.
// Every command gets its own options since kingpin binds flags at registration.
func commands(newJuice func() (*juice.Juice, error)) conf.CommandTable {
	with := func(run func(j *juice.Juice) error) func() error {
		return func() error {
			j, err := newJuice()
			if err != nil {
				return err
			}
			return run(j)
		}
	}
	withDB := func(o *options, run func(j *juice.Juice, db deployment.Database) error) func() error {
		return with(func(j *juice.Juice) error {
			db, err := o.database()
			if err != nil {
				return err
			}
			return run(j, db)
		})
	}

	deploy, g5k, prepare, stress, openstack := &options{}, &options{}, &options{}, &options{}, &options{}
	rally, emulate, validate, info := &options{}, &options{}, &options{}, &options{}

	return conf.CommandTable{
		{
			Name: "deploy",
			Help: "Claim resources from g5k and configure them",
			Flags: func(cmd *kingpin.CmdClause) {
				confFlag(deploy)(cmd)
				dbFlags(deploy, true)(cmd)
				nameFlag(deploy, cmd)
			},
			Handler: withDB(deploy, func(j *juice.Juice, db deployment.Database) error {
				config, err := deployment.LoadConfig(*deploy.conf)
				if err != nil {
					return err
				}
				return j.Deploy(config, db, *deploy.locality, *deploy.name)
			}),
		},
		{
			Name:    "g5k",
			Help:    "Claim resources on Grid'5000 (from a frontend)",
			Aliases: []string{"provision"},
			Flags: func(cmd *kingpin.CmdClause) {
				confFlag(g5k)(cmd)
				nameFlag(g5k, cmd)
				g5k.force = cmd.Flag("force", "Redeploy the nodes even when the job already runs").Bool()
			},
			Handler: with(func(j *juice.Juice) error {
				config, err := deployment.LoadConfig(*g5k.conf)
				if err != nil {
					return err
				}
				return j.G5k(config, *g5k.force, *g5k.name)
			}),
		},
		{
			Name:    "inventory",
			Help:    "Generate the Ansible inventory file, requires a g5k execution",
			Handler: with((*juice.Juice).Inventory),
		},
		{
			Name:  "prepare",
			Help:  "Configure the resources, requires both g5k and inventory executions",
			Flags: dbFlags(prepare, true),
			Handler: withDB(prepare, func(j *juice.Juice, db deployment.Database) error {
				return j.Prepare(db, *prepare.locality)
			}),
		},
		{
			Name:    "stress",
			Help:    "Launch sysbench tests (after a deployment)",
			Flags:   dbFlags(stress, false),
			Handler: withDB(stress, (*juice.Juice).Stress),
		},
		{
			Name:    "openstack",
			Help:    "Add OpenStack Keystone to the deployment",
			Flags:   dbFlags(openstack, false),
			Handler: withDB(openstack, (*juice.Juice).Openstack),
		},
		{
			Name: "rally",
			Help: "Benchmark the OpenStack",
			Flags: func(cmd *kingpin.CmdClause) {
				dbFlags(rally, false)(cmd)
				rally.files = cmd.Flag("files", "Rally scenario files, relative to the rally scenarios folder").Strings()
				rally.directory = cmd.Flag("directory", "Directory of rally scenarios, used without --files").Default(juice.DefaultRallyDirectory).String()
				rally.burst = cmd.Flag("burst", "Run the scenarios without pause between them").Bool()
			},
			Handler: withDB(rally, func(j *juice.Juice, db deployment.Database) error {
				return j.Rally(db, *rally.files, *rally.directory, *rally.burst)
			}),
		},
		{
			Name: "emulate",
			Help: "Emulate network latency between database nodes",
			Flags: func(cmd *kingpin.CmdClause) {
				emulate.conf = cmd.Flag("conf", "Configuration file to take the tc section from (built-in constraints when empty)").String()
				emulate.delay = cmd.Flag("delay", "Delay in milliseconds overriding the constraints delay").Default("-1").Int()
			},
			Handler: with(func(j *juice.Juice) error {
				tc, err := emulate.tc()
				if err != nil {
					return err
				}
				return j.Emulate(tc)
			}),
		},
		{
			Name: "validate",
			Help: "Measure the round trip time between nodes",
			Flags: func(cmd *kingpin.CmdClause) {
				validate.groups = cmd.Flag("group", "Role to measure, every role when not given").Strings()
			},
			Handler: with(func(j *juice.Juice) error {
				return j.Validate(*validate.groups...)
			}),
		},
		{
			Name:    "backup",
			Help:    "Backup the environment, requires g5k, inventory and prepare executions",
			Handler: with((*juice.Juice).Backup),
		},
		{
			Name:    "destroy",
			Help:    "Destroy all the running dockers (not the resources), requires g5k and inventory executions",
			Handler: with((*juice.Juice).Destroy),
		},
		{
			Name:    "release",
			Help:    "Give the resources back to Grid'5000",
			Handler: with((*juice.Juice).Release),
		},
		{
			Name: "info",
			Help: "Show information of the actual deployment",
			Flags: func(cmd *kingpin.CmdClause) {
				info.out = cmd.Flag("out", "Output the environment in either json, yaml or gob (pickle) format").String()
			},
			Handler: with(func(j *juice.Juice) error {
				return j.Info(*info.out)
			}),
		},
	}
}
