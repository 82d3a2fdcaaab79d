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
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/Marie-Donnie/juice/pkg/analysis"
	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/Marie-Donnie/juice/pkg/experiment"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCommands(t *testing.T) {
	Convey("The analysis command table", t, func() {
		table := commands(&bytes.Buffer{})

		Convey("is valid", func() {
			So(table.Validate(), ShouldBeNil)
		})

		Convey("holds every analysis", func() {
			var names []string
			for _, cmd := range table {
				names = append(names, cmd.Name)
			}
			So(names, ShouldResemble, []string{"full_run", "check", "unzip", "table", "plot", "csv"})
		})
	})

	Convey("An unknown command exits with the usage code", t, func() {
		err := commands(&bytes.Buffer{}).Dispatch([]string{"histogram"})
		So(conf.IsUsageError(err), ShouldBeTrue)
		So(exitCode(err), ShouldEqual, experiment.ExUsage)
	})

	Convey("Errors map to exit codes", t, func() {
		So(exitCode(nil), ShouldEqual, 0)
		So(exitCode(conf.UsageError{}), ShouldEqual, experiment.ExUsage)
		So(exitCode(errors.New("boom")), ShouldEqual, 1)
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("With an aggregated table", t, func() {
		tables := []*analysis.Table{{
			Latency: "50",
			Rows: []analysis.Row{{
				Key:   analysis.Key{Scenario: "keystone.authenticate", DB: "mariadb", Nodes: 3, Name: "keystone_v3.create_project"},
				Mean:  2.5,
				Count: 2,
			}},
		}}
		dir, err := ioutil.TempDir("", "analysis")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		Convey("it goes to the output without a path", func() {
			out := &bytes.Buffer{}
			So(writeCSV(out, "", tables), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "50,keystone.authenticate,mariadb,3,keystone_v3.create_project,2.5,0,2")
		})

		Convey("it is written to the given file", func() {
			out := &bytes.Buffer{}
			path := filepath.Join(dir, "results.csv")
			So(writeCSV(out, path, tables), ShouldBeNil)
			So(out.Len(), ShouldEqual, 0)

			data, err := ioutil.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldStartWith, "latency,scenario,db,nodes,action,mean,stdev,count\n")
		})

		Convey("a file that cannot be written is an error", func() {
			err := writeCSV(&bytes.Buffer{}, filepath.Join(dir, "missing", "results.csv"), tables)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "results.csv")
		})
	})
}
