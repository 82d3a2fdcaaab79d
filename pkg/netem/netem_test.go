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

package netem

import (
	"strings"
	"testing"

	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/executor"
	"github.com/Marie-Donnie/juice/pkg/executor/mocks"
	"github.com/Marie-Donnie/juice/pkg/provider"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

const pingOutput = `PING ecotype-2 (172.16.193.2) 56(84) bytes of data.

--- ecotype-2 ping statistics ---
5 packets transmitted, 5 received, 0% packet loss, time 4005ms
rtt min/avg/max/mdev = 100.112/100.245/100.501/0.130 ms
`

// recorder runs nothing and remembers scripts per host.
type recorder struct {
	scripts map[string][]string
	failOn  string
}

func (r *recorder) factory(host provider.Host) (executor.Executor, error) {
	exec := &mocks.Executor{}
	exec.On("Name").Return(host.Address)
	return exec, nil
}

func (r *recorder) run(exec executor.Executor, script string) (string, error) {
	name := exec.Name()
	r.scripts[name] = append(r.scripts[name], script)
	if name == r.failOn {
		return "", errors.New("connection refused")
	}
	return pingOutput, nil
}

func newRecordingEmulator() (*Emulator, *recorder) {
	r := &recorder{scripts: map[string][]string{}}
	e := NewEmulator(r.factory)
	e.run = r.run
	return e, r
}

func testRoles() provider.Roles {
	db1 := provider.Host{Address: "ecotype-1", Extra: map[string]string{"database_network": "eth1"}}
	db2 := provider.Host{Address: "ecotype-2", Extra: map[string]string{"database_network": "eth1"}}
	control := provider.Host{Address: "ecotype-3"}
	return provider.Roles{
		"database": {db1, db2},
		"control":  {control},
	}
}

func TestEmulate(t *testing.T) {
	Convey("When emulating latency between database nodes", t, func() {
		e, r := newRecordingEmulator()
		tc := deployment.DefaultTC().WithDelay(150)
		tc.Constraints[0].Network = "database_network"
		tc.Groups = []string{"database"}

		Convey("Each database host shapes traffic towards the others on its database interface", func() {
			So(e.Emulate(testRoles(), tc), ShouldBeNil)
			So(r.scripts, ShouldHaveLength, 2)
			So(r.scripts["ecotype-3"], ShouldBeEmpty)

			script := r.scripts["ecotype-1"][0]
			So(script, ShouldStartWith, "set -e\ntc qdisc del dev eth1 root 2>/dev/null || true\n")
			So(script, ShouldContainSubstring, "tc qdisc add dev eth1 root handle 1: htb default 1")
			So(script, ShouldContainSubstring, "tc class add dev eth1 parent 1: classid 1:1 htb rate 10gbit")
			So(script, ShouldContainSubstring, "getent ahostsv4 ecotype-2")
			So(script, ShouldNotContainSubstring, "getent ahostsv4 ecotype-1")
			So(script, ShouldContainSubstring, "tc qdisc add dev eth1 parent 1:2 handle 11: netem delay 150ms loss 0%")
			So(script, ShouldContainSubstring, "u32 match ip dst \"$ip\"/32 flowid 1:2")
		})

		Convey("Constraints outside of groups are skipped", func() {
			tc.Groups = []string{"control"}
			So(e.Emulate(testRoles(), tc), ShouldBeNil)
			So(r.scripts, ShouldBeEmpty)
		})

		Convey("A failing host does not prevent the others", func() {
			r.failOn = "ecotype-1"
			err := e.Emulate(testRoles(), tc)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "ecotype-1")
			So(r.scripts["ecotype-2"], ShouldHaveLength, 1)
		})

		Convey("Disabled emulation only resets", func() {
			tc.Enable = false
			So(e.Emulate(testRoles(), tc), ShouldBeNil)
			So(r.scripts["ecotype-1"], ShouldResemble, []string{"tc qdisc del dev eth1 root 2>/dev/null || true"})
		})

		Convey("Without network the default interface is used", func() {
			tc.Constraints[0].Network = ""
			So(e.Emulate(testRoles(), tc), ShouldBeNil)
			So(strings.Contains(r.scripts["ecotype-2"][0], "dev eth0"), ShouldBeTrue)
		})

		Convey("Invalid constraints are rejected before touching hosts", func() {
			tc.Constraints[0].Delay = "soon"
			err := e.Emulate(testRoles(), tc)
			So(deployment.IsConfigError(err), ShouldBeTrue)
			So(r.scripts, ShouldBeEmpty)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Ping summaries are parsed", t, func() {
		min, avg, max, err := ParsePing(pingOutput)
		So(err, ShouldBeNil)
		So(min, ShouldAlmostEqual, 100.112)
		So(avg, ShouldAlmostEqual, 100.245)
		So(max, ShouldAlmostEqual, 100.501)

		_, _, _, err = ParsePing("ping: unknown host")
		So(err, ShouldNotBeNil)
	})

	Convey("Every pair of database hosts is measured", t, func() {
		e, r := newRecordingEmulator()
		measurements, err := e.Validate(testRoles(), "database")
		So(err, ShouldBeNil)
		So(measurements, ShouldHaveLength, 2)
		So(measurements[0].Src, ShouldEqual, "ecotype-1")
		So(measurements[0].Dst, ShouldEqual, "ecotype-2")
		So(measurements[0].Avg, ShouldAlmostEqual, 100.245)
		So(r.scripts["ecotype-1"], ShouldResemble, []string{"ping -c 5 -q ecotype-2"})
	})
}
