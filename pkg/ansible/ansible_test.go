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

package ansible

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Marie-Donnie/juice/pkg/executor"
	"github.com/Marie-Donnie/juice/pkg/provider"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerateInventory(t *testing.T) {
	Convey("When generating an inventory", t, func() {
		dir, err := ioutil.TempDir("", "juice-ansible")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "hosts")

		db := provider.Host{
			Address: "ecotype-1.nantes.grid5000.fr",
			User:    "root",
			Extra:   map[string]string{"database_network": "eth1", "control_network": "eth0"},
		}
		roles := provider.Roles{
			"database": {db},
			"rally":    {db},
			"control":  {{Address: "ecotype-2.nantes.grid5000.fr", Extra: map[string]string{"control_network": "eth0"}}},
		}
		networks := []provider.Network{
			{ID: "n1", Type: "prod", Roles: []string{"control_network"}},
			{ID: "n2", Type: "kavlan", Roles: []string{"database_network"}},
		}

		Convey("Every role is a group and nics are host variables", func() {
			So(GenerateInventory(roles, networks, path, true), ShouldBeNil)
			data, err := ioutil.ReadFile(path)
			So(err, ShouldBeNil)
			content := string(data)

			So(content, ShouldStartWith, "[control]\necotype-2.nantes.grid5000.fr ansible_host=ecotype-2.nantes.grid5000.fr ansible_ssh_user=root control_network=eth0\n")
			So(content, ShouldContainSubstring, "[database]\necotype-1.nantes.grid5000.fr ansible_host=ecotype-1.nantes.grid5000.fr ansible_ssh_user=root control_network=eth0 database_network=eth1\n")
			So(content, ShouldContainSubstring, "[rally]\n")
			So(content, ShouldContainSubstring, "[all:vars]\n")
		})

		Convey("Unknown network roles are rejected when checking networks", func() {
			err := GenerateInventory(roles, networks[:1], path, true)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "database_network")

			So(GenerateInventory(roles, networks[:1], path, false), ShouldBeNil)
		})
	})
}

func TestRunner(t *testing.T) {
	Convey("When running playbooks", t, func() {
		dir, err := ioutil.TempDir("", "juice-ansible")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		record := filepath.Join(dir, "record")
		script := filepath.Join(dir, "fake-playbook")
		// Arguments are: -i <inventory> -e @<vars> <playbook>.
		So(ioutil.WriteFile(script, []byte(`#!/bin/sh
echo "$2 $5" >> `+record+`
cat "${4#@}" >> `+record+`
echo >> `+record+`
case "$5" in *broken*) echo "fatal: broken" >&2; exit 2;; esac
`), 0755), ShouldBeNil)

		runner := NewRunner(executor.NewLocal(), "/srv/juice")
		runner.Binary = script

		Convey("Playbooks run in order with extra vars", func() {
			err := runner.Run([]string{"ansible/prepare.yml", "/abs/stress.yml"}, "inventory", ExtraVars{"db": "mariadb", "locality": false})
			So(err, ShouldBeNil)

			data, err := ioutil.ReadFile(record)
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			So(lines, ShouldHaveLength, 4)
			So(lines[0], ShouldEqual, "inventory /srv/juice/ansible/prepare.yml")
			So(lines[2], ShouldEqual, "inventory /abs/stress.yml")

			vars := map[string]interface{}{}
			So(json.Unmarshal([]byte(lines[1]), &vars), ShouldBeNil)
			So(vars["db"], ShouldEqual, "mariadb")
			So(vars["locality"], ShouldEqual, false)
		})

		Convey("A failing playbook stops the run and reports its output", func() {
			err := runner.Run([]string{"broken.yml", "never.yml"}, "inventory", ExtraVars{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "broken.yml")

			data, err := ioutil.ReadFile(record)
			So(err, ShouldBeNil)
			So(string(data), ShouldNotContainSubstring, "never.yml")
		})
	})
}
