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

package provider

import (
	"strings"
	"testing"
	"time"

	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeFrontend answers commands by prefix and records them.
type fakeFrontend struct {
	answers  map[string][]string
	commands []string
}

func (f *fakeFrontend) run(command string) (string, error) {
	f.commands = append(f.commands, command)
	for prefix, outputs := range f.answers {
		if !strings.HasPrefix(command, prefix) {
			continue
		}
		if len(outputs) == 0 {
			return "", errors.Errorf("no more answers for %q", prefix)
		}
		output := outputs[0]
		if len(outputs) > 1 {
			f.answers[prefix] = outputs[1:]
		}
		return output, nil
	}
	return "", errors.Errorf("unexpected command %q", command)
}

func (f *fakeFrontend) ran(prefix string) bool {
	for _, command := range f.commands {
		if strings.HasPrefix(command, prefix) {
			return true
		}
	}
	return false
}

func g5kConfig() deployment.G5k {
	return deployment.G5k{
		EnvName:  "debian9-x64-nfs",
		JobName:  "juice-tests",
		Queue:    "testing",
		Walltime: "08:20:00",
		Resources: deployment.Resources{
			Machines: []deployment.Machine{
				{
					Cluster:           "ecotype",
					Nodes:             2,
					Roles:             []string{"database", "rally"},
					PrimaryNetwork:    "n1",
					SecondaryNetworks: []string{"n2"},
				},
				{
					Cluster:        "ecotype",
					Nodes:          1,
					Roles:          []string{"registry", "control"},
					PrimaryNetwork: "n1",
				},
			},
			Networks: []deployment.Network{
				{ID: "n1", Type: "prod", Site: "nantes", Roles: []string{"control_network"}},
				{ID: "n2", Type: "kavlan", Site: "nantes", Roles: []string{"database_network"}},
			},
		},
	}
}

const jobNodes = `{"1234": {"name": "juice-tests", "state": "Running", "assigned_network_address": [
	"ecotype-3.nantes.grid5000.fr", "ecotype-1.nantes.grid5000.fr", "ecotype-2.nantes.grid5000.fr"]}}`

func TestG5k(t *testing.T) {
	Convey("When claiming resources on Grid'5000", t, func() {
		config := g5kConfig()

		Convey("The OAR resource request covers machines, vlan and walltime", func() {
			g := NewG5k(config, nil)
			So(g.ResourceRequest(), ShouldEqual,
				"{cluster='ecotype'}/nodes=2+{cluster='ecotype'}/nodes=1+{type='kavlan'}/vlan=1,walltime=08:20:00")
		})

		Convey("Without existing job a new one is submitted, waited for and deployed", func() {
			frontend := &fakeFrontend{answers: map[string][]string{
				"oarstat -u -J":      {"{}"},
				"oarsub":             {"[ADMISSION RULE] ...\nOAR_JOB_ID=1234\n"},
				"oarstat -s -j 1234": {"1234: Waiting", "1234: Running"},
				"oarstat -f -j 1234": {jobNodes},
				"kavlan -V -j 1234":  {"4\n"},
				"kadeploy3":          {"ok"},
			}}
			g := NewG5k(config, frontend.run)
			slept := time.Duration(0)
			g.sleep = func(d time.Duration) { slept += d }

			roles, networks, err := g.Init(false)
			So(err, ShouldBeNil)
			So(slept, ShouldEqual, DefaultPollInterval)
			So(frontend.ran("kadeploy3 -e debian9-x64-nfs -k -m ecotype-1.nantes.grid5000.fr"), ShouldBeTrue)
			So(frontend.ran("oarsub --name juice-tests"), ShouldBeTrue)

			So(roles["database"], ShouldHaveLength, 2)
			So(roles["database"][0].Address, ShouldEqual, "ecotype-1.nantes.grid5000.fr")
			So(roles["database"][0].User, ShouldEqual, "root")
			So(roles["database"][0].Extra, ShouldResemble, map[string]string{
				"control_network":  "eth0",
				"database_network": "eth1",
			})
			So(roles["control"], ShouldHaveLength, 1)
			So(roles["control"][0].Address, ShouldEqual, "ecotype-3.nantes.grid5000.fr")
			So(roles["control"][0].Extra, ShouldResemble, map[string]string{"control_network": "eth0"})

			So(networks, ShouldHaveLength, 2)
			So(networks[1].VlanID, ShouldEqual, "4")
			So(networks[0].VlanID, ShouldEqual, "")
		})

		Convey("An existing job is reused without redeploying", func() {
			frontend := &fakeFrontend{answers: map[string][]string{
				"oarstat -u -J":      {jobNodes},
				"oarstat -s -j 1234": {"1234: Running"},
				"oarstat -f -j 1234": {jobNodes},
				"kavlan -V -j 1234":  {"4"},
			}}
			g := NewG5k(config, frontend.run)
			_, _, err := g.Init(false)
			So(err, ShouldBeNil)
			So(frontend.ran("oarsub"), ShouldBeFalse)
			So(frontend.ran("kadeploy3"), ShouldBeFalse)
		})

		Convey("Forcing redeploys an existing job", func() {
			frontend := &fakeFrontend{answers: map[string][]string{
				"oarstat -u -J":      {jobNodes},
				"oarstat -s -j 1234": {"1234: Running"},
				"oarstat -f -j 1234": {jobNodes},
				"kavlan -V -j 1234":  {"4"},
				"kadeploy3":          {""},
			}}
			g := NewG5k(config, frontend.run)
			_, _, err := g.Init(true)
			So(err, ShouldBeNil)
			So(frontend.ran("kadeploy3"), ShouldBeTrue)
			So(frontend.ran("kadeploy3 -e debian9-x64-nfs -k -m ecotype-1.nantes.grid5000.fr -m ecotype-2.nantes.grid5000.fr -m ecotype-3.nantes.grid5000.fr --vlan 4"), ShouldBeTrue)
		})

		Convey("A job in error is reported", func() {
			frontend := &fakeFrontend{answers: map[string][]string{
				"oarstat -u -J":      {jobNodes},
				"oarstat -s -j 1234": {"1234: Error"},
			}}
			g := NewG5k(config, frontend.run)
			_, _, err := g.Init(false)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "Error")
		})

		Convey("Too few nodes for a machine group is an error", func() {
			config.Resources.Machines[0].Nodes = 3
			frontend := &fakeFrontend{answers: map[string][]string{
				"oarstat -u -J":      {jobNodes},
				"oarstat -s -j 1234": {"1234: Running"},
				"oarstat -f -j 1234": {jobNodes},
				"kavlan -V -j 1234":  {"4"},
			}}
			g := NewG5k(config, frontend.run)
			_, _, err := g.Init(false)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "machine group #1")
		})

		Convey("Destroy deletes the job named after the configuration", func() {
			frontend := &fakeFrontend{answers: map[string][]string{
				"oarstat -u -J": {jobNodes},
				"oardel 1234":   {""},
			}}
			g := NewG5k(config, frontend.run)
			So(g.Destroy(), ShouldBeNil)
			So(frontend.ran("oardel 1234"), ShouldBeTrue)
		})

		Convey("Destroy without job does nothing", func() {
			frontend := &fakeFrontend{answers: map[string][]string{
				"oarstat -u -J": {""},
			}}
			g := NewG5k(config, frontend.run)
			So(g.Destroy(), ShouldBeNil)
			So(frontend.ran("oardel"), ShouldBeFalse)
		})
	})

	Convey("Cluster names are extracted from node names", t, func() {
		So(clusterOf("ecotype-12.nantes.grid5000.fr"), ShouldEqual, "ecotype")
		So(clusterOf("graphene-1.nancy.grid5000.fr"), ShouldEqual, "graphene")
		So(clusterOf("paranoia-ib-3.rennes.grid5000.fr"), ShouldEqual, "paranoia-ib")
	})
}

func TestStatic(t *testing.T) {
	Convey("Static provider builds roles from listed hosts", t, func() {
		p := New(deployment.Config{Static: &deployment.Static{
			Hosts: []deployment.StaticHost{
				{Address: "10.0.0.1", Roles: []string{"database", "rally"}, Nics: map[string]string{"database_network": "eth1"}},
				{Address: "10.0.0.2", User: "debian", Roles: []string{"database"}},
			},
			Networks: []deployment.Network{{ID: "n1", Type: "prod", Roles: []string{"database_network"}}},
		}}, nil)

		roles, networks, err := p.Init(false)
		So(err, ShouldBeNil)
		So(roles["database"], ShouldHaveLength, 2)
		So(roles["database"][0].User, ShouldEqual, DefaultUser)
		So(roles["database"][0].Extra["database_network"], ShouldEqual, "eth1")
		So(roles["database"][1].User, ShouldEqual, "debian")
		So(roles["rally"], ShouldHaveLength, 1)
		So(networks, ShouldHaveLength, 1)
		So(p.Destroy(), ShouldBeNil)

		Convey("Hosts are deduplicated across roles", func() {
			So(roles.Hosts(), ShouldHaveLength, 2)
			So(roles.Hosts("rally"), ShouldHaveLength, 1)
			So(roles.Names(), ShouldResemble, []string{"database", "rally"})
		})
	})
}
