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

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const validConfig = `
enable_monitoring: true
g5k:
  dhcp: true
  env_name: debian9-x64-nfs
  job_name: juice-tests
  queue: testing
  walltime: "08:20:00"
  resources:
    machines:
      - cluster: ecotype
        nodes: 3
        roles: [chrony, database, sysbench, openstack, rally]
        primary_network: n1
        secondary_networks: [n2]
      - cluster: ecotype
        nodes: 1
        roles: [registry, control]
        primary_network: n1
        secondary_networks: []
    networks:
      - id: n1
        type: prod
        site: nantes
        roles: [control_network]
      - id: n2
        type: kavlan
        site: nantes
        roles: [database_network]
registry:
  type: none
  ceph: true
  ceph_id: discovery
  ceph_mon_host: [ceph0.rennes.grid5000.fr]
tc:
  enable: true
  default_delay: 0ms
  default_rate: 10gbit
  groups: [database]
  constraints:
    - src: database
      dst: database
      delay: 50ms
      rate: 10gbit
      loss: 0
      network: database_network
`

func TestConfig(t *testing.T) {
	Convey("When loading a configuration file", t, func() {
		dir, err := ioutil.TempDir("", "juice-deployment")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "conf.yaml")

		Convey("A valid file is decoded", func() {
			So(ioutil.WriteFile(path, []byte(validConfig), 0644), ShouldBeNil)
			config, err := LoadConfig(path)
			So(err, ShouldBeNil)
			So(config.EnableMonitoring, ShouldBeTrue)
			So(config.G5k.JobName, ShouldEqual, "juice-tests")
			So(config.G5k.Resources.Machines, ShouldHaveLength, 2)
			So(config.G5k.Resources.Machines[0].SecondaryNetworks, ShouldResemble, []string{"n2"})
			So(config.Registry.CephMonHost, ShouldResemble, []string{"ceph0.rennes.grid5000.fr"})
			So(config.TC.Constraints[0].Network, ShouldEqual, "database_network")

			delay, err := config.TC.DelayMs()
			So(err, ShouldBeNil)
			So(delay, ShouldEqual, 50)

			Convey("And cloning with another node count leaves the original untouched", func() {
				clone, err := config.WithNodes(0, 25)
				So(err, ShouldBeNil)
				So(clone.G5k.Resources.Machines[0].Nodes, ShouldEqual, 25)
				So(config.G5k.Resources.Machines[0].Nodes, ShouldEqual, 3)

				_, err = config.WithNodes(2, 25)
				So(IsConfigError(err), ShouldBeTrue)
			})
		})

		Convey("A missing file is a configuration error", func() {
			_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
			So(err, ShouldNotBeNil)
			So(IsConfigError(err), ShouldBeTrue)
		})

		Convey("Unknown keys are rejected", func() {
			_, err := ParseConfig([]byte(validConfig + "unexpected: 1\n"))
			So(IsConfigError(err), ShouldBeTrue)
		})

		Convey("A machine referencing an unknown network is rejected", func() {
			config, err := ParseConfig([]byte(validConfig))
			So(err, ShouldBeNil)
			config.G5k.Resources.Machines[1].PrimaryNetwork = "n3"
			err = config.Validate()
			So(IsConfigError(err), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "n3")
		})

		Convey("A bad walltime is rejected", func() {
			config, err := ParseConfig([]byte(validConfig))
			So(err, ShouldBeNil)
			config.G5k.Walltime = "8h"
			So(IsConfigError(config.Validate()), ShouldBeTrue)
		})

		Convey("A static configuration does not need g5k resources", func() {
			config := Config{
				TC: DefaultTC(),
				Static: &Static{Hosts: []StaticHost{
					{Address: "10.0.0.1", Roles: []string{"database"}},
				}},
			}
			So(config.Validate(), ShouldBeNil)

			config.Static.Hosts[0].Roles = nil
			So(IsConfigError(config.Validate()), ShouldBeTrue)
		})
	})
}

func TestTC(t *testing.T) {
	Convey("Default tc emulates 200ms between database nodes", t, func() {
		tc := DefaultTC()
		So(tc.Validate(), ShouldBeNil)
		delay, err := tc.DelayMs()
		So(err, ShouldBeNil)
		So(delay, ShouldEqual, 200)

		Convey("WithDelay does not alter the original", func() {
			updated := tc.WithDelay(150)
			So(updated.Constraints[0].Delay, ShouldEqual, "150ms")
			So(tc.Constraints[0].Delay, ShouldEqual, "200ms")
		})

		Convey("Invalid units are rejected", func() {
			tc.Constraints[0].Rate = "fast"
			So(IsConfigError(tc.Validate()), ShouldBeTrue)
		})

		Convey("Loss must be a percentage", func() {
			tc.Constraints[0].Loss = 120
			So(IsConfigError(tc.Validate()), ShouldBeTrue)
		})

		Convey("Disabled tc is not validated", func() {
			tc.Enable = false
			tc.DefaultRate = "fast"
			So(tc.Validate(), ShouldBeNil)
		})
	})

	Convey("ParseMs accepts values with or without unit", t, func() {
		ms, err := ParseMs("150ms")
		So(err, ShouldBeNil)
		So(ms, ShouldEqual, 150)
		ms, err = ParseMs("0")
		So(err, ShouldBeNil)
		So(ms, ShouldEqual, 0)
		_, err = ParseMs("soon")
		So(err, ShouldNotBeNil)

		Convey("other tc units are converted", func() {
			ms, err := ParseMs("1.5s")
			So(err, ShouldBeNil)
			So(ms, ShouldEqual, 1500)
			ms, err = ParseMs("2000us")
			So(err, ShouldBeNil)
			So(ms, ShouldEqual, 2)
		})

		Convey("fractions of a millisecond are refused", func() {
			_, err := ParseMs("1.5ms")
			So(IsConfigError(err), ShouldBeTrue)
			_, err = ParseMs("1500us")
			So(IsConfigError(err), ShouldBeTrue)
		})
	})

	Convey("Every delay accepted by Validate has a latency", t, func() {
		for _, delay := range []string{"50ms", "1s", "0.25s", "3000us", "1.5ms", "10 ms"} {
			tc := DefaultTC()
			tc.Constraints[0].Delay = delay
			_, parseErr := tc.DelayMs()
			So(tc.Validate() == nil, ShouldEqual, parseErr == nil)
		}
		tc := DefaultTC()
		tc.Constraints[0].Delay = "1s"
		delay, err := tc.DelayMs()
		So(err, ShouldBeNil)
		So(delay, ShouldEqual, 1000)
	})
}

func TestDatabase(t *testing.T) {
	Convey("Databases are validated", t, func() {
		for _, name := range []string{"mariadb", "galera", "cockroachdb"} {
			db, err := ParseDatabase(name)
			So(err, ShouldBeNil)
			So(db.String(), ShouldEqual, name)
		}

		_, err := ParseDatabase("postgresql")
		So(err, ShouldNotBeNil)
		So(IsConfigError(err), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "postgresql")
	})

	Convey("Families are the result directory prefixes", t, func() {
		So(MariaDB.Family(), ShouldEqual, "maria")
		So(CockroachDB.Family(), ShouldEqual, "cockroach")
		So(Galera.Family(), ShouldEqual, "galera")
	})

	Convey("Locality is only available on CockroachDB", t, func() {
		So(CockroachDB.ValidateLocality(true), ShouldBeNil)
		So(MariaDB.ValidateLocality(false), ShouldBeNil)
		So(IsConfigError(MariaDB.ValidateLocality(true)), ShouldBeTrue)
	})

	Convey("Experiment names follow result directory convention", t, func() {
		So(ExperimentName(CockroachDB, 25, 50, LocalityName(false)), ShouldEqual, "cockroachdb-25-50-nonlocal")
		So(ExperimentName(MariaDB, 9, 150, "T"), ShouldEqual, "mariadb-9-150-T")
		So(ExperimentName(Galera, 3, 0, ""), ShouldEqual, "galera-3-0")
	})
}
