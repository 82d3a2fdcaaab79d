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

package analysis

import (
	"archive/tar"
	"compress/gzip"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Marie-Donnie/juice/pkg/archive"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	. "github.com/smartystreets/goconvey/convey"
)

const report = `{
  "tasks": [{
    "subtasks": [{
      "title": "KeystoneBasic.create_and_list_users",
      "workloads": [{
        "data": [{
          "atomic_actions": [{
            "name": "keystone_v3.create_user",
            "started_at": 10.0,
            "finished_at": 12.5,
            "children": [{
              "name": "keystone_v3.list_users",
              "started_at": 10.5,
              "finished_at": 11.0,
              "children": []
            }]
          }]
        }]
      }]
    }]
  }]
}`

func mkdir(path ...string) string {
	dir := filepath.Join(path...)
	So(os.MkdirAll(dir, 0755), ShouldBeNil)
	return dir
}

// resultDir creates root/name with an unpacked report.
func resultDir(root, name, content string) string {
	dir := mkdir(root, name)
	mkdir(dir, BackupDir)
	results := mkdir(dir, ResultsDir)
	So(ioutil.WriteFile(filepath.Join(results, "create_and_list_users.json"), []byte(content), 0644), ShouldBeNil)
	return dir
}

func writeBundle(path string, files map[string]string) {
	file, err := os.Create(path)
	So(err, ShouldBeNil)
	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		So(tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(body))}), ShouldBeNil)
		_, err := tw.Write([]byte(body))
		So(err, ShouldBeNil)
	}
	So(tw.Close(), ShouldBeNil)
	So(gz.Close(), ShouldBeNil)
	So(file.Close(), ShouldBeNil)
}

func TestScan(t *testing.T) {
	Convey("Scanning a results tree", t, func() {
		root, err := ioutil.TempDir("", "analysis")
		So(err, ShouldBeNil)
		defer os.RemoveAll(root)

		hook := test.NewGlobal()
		defer hook.Reset()

		mkdir(root, "cockroachdb-25-50-nonlocal", BackupDir)
		mkdir(root, "cockroachdb-25-50")
		mkdir(root, "randomfolder", BackupDir)
		mkdir(root, "galera-3-100ms", BackupDir)

		dirs := Scan(root)

		Convey("selects directories with the naming convention and a backup", func() {
			So(dirs, ShouldResemble, []string{
				filepath.Join(root, "cockroachdb-25-50-nonlocal"),
				filepath.Join(root, "galera-3-100ms"),
			})
		})

		Convey("warns about the rejected ones", func() {
			var messages []string
			for _, entry := range hook.AllEntries() {
				if entry.Level == logrus.WarnLevel {
					messages = append(messages, entry.Message)
				}
			}
			So(messages, ShouldContain, "No backup folder in cockroachdb-25-50")
			So(messages, ShouldContain, "randomfolder does not match the correct pattern")
		})
	})

	Convey("A missing or non directory root yields nothing", t, func() {
		root, err := ioutil.TempDir("", "analysis")
		So(err, ShouldBeNil)
		defer os.RemoveAll(root)

		hook := test.NewGlobal()
		defer hook.Reset()

		So(Scan(filepath.Join(root, "missing")), ShouldBeEmpty)
		So(hook.LastEntry().Message, ShouldStartWith, "NotFound")

		file := filepath.Join(root, "file")
		So(ioutil.WriteFile(file, nil, 0644), ShouldBeNil)
		So(Scan(file), ShouldBeEmpty)
		So(hook.LastEntry().Message, ShouldStartWith, "NotADirectory")
	})
}

func TestParseDirName(t *testing.T) {
	Convey("Directory names describe their experiment", t, func() {
		info, err := ParseDirName("cockroachdb-25-50-nonlocal")
		So(err, ShouldBeNil)
		So(info, ShouldResemble, DirInfo{Family: "cockroach", Nodes: 25, Latency: "50", Locality: "nonlocal"})
		So(info.DB(), ShouldEqual, "cockroachdb")

		info, err = ParseDirName("galera-3-100ms")
		So(err, ShouldBeNil)
		So(info.Latency, ShouldEqual, "100")
		So(info.DB(), ShouldEqual, "galera")

		_, err = ParseDirName("postgres-3-0")
		So(err, ShouldNotBeNil)
	})
}

func TestUnpack(t *testing.T) {
	Convey("The rally bundle of a result directory is found and unpacked", t, func() {
		root, err := ioutil.TempDir("", "analysis")
		So(err, ShouldBeNil)
		defer os.RemoveAll(root)

		dir := mkdir(root, "mariadb-3-0")
		host := mkdir(dir, BackupDir, "mariadb-graphene-1")
		mkdir(dir, BackupDir, "rally-graphene-2")
		bundle := filepath.Join(host, "rally-graphene-1.nancy.grid5000.fr.tar.gz")
		writeBundle(bundle, map[string]string{"rally_home/create_and_list_users.json": report})

		found, err := FindBundle(dir)
		So(err, ShouldBeNil)
		So(found, ShouldEqual, bundle)

		files, err := Unpack(dir, archive.DefaultOptions())
		So(err, ShouldBeNil)
		So(files, ShouldHaveLength, 1)
		So(files[0], ShouldEndWith, filepath.Join(ResultsDir, "create_and_list_users.json"))

		Convey("and a directory without bundle is an error", func() {
			empty := mkdir(root, "cockroachdb-3-0", BackupDir)
			_, err := FindBundle(filepath.Dir(empty))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFlatten(t *testing.T) {
	tree := []AtomicAction{
		{Name: "a", StartedAt: 10, FinishedAt: 12.5, Children: []AtomicAction{
			{Name: "a1", StartedAt: 10, FinishedAt: 11, Children: []AtomicAction{
				{Name: "a11", StartedAt: 10, FinishedAt: 10.5},
			}},
			{Name: DefaultNoiseAction, StartedAt: 11, FinishedAt: 12, Children: []AtomicAction{
				{Name: "noise-child", StartedAt: 11, FinishedAt: 11.5},
			}},
		}},
		{Name: "b", StartedAt: 13, FinishedAt: 14},
	}
	tags := Tags{Scenario: "get_entities", DB: "maria", Nodes: 3, Latency: "0"}

	Convey("Flattening is pre-order and exhaustive", t, func() {
		flat := Flatten(tree, tags, "")
		var names []string
		for _, action := range flat {
			names = append(names, action.Name)
			So(action.Tags, ShouldResemble, tags)
		}
		So(names, ShouldResemble, []string{"a", "a1", "a11", DefaultNoiseAction, "noise-child", "b"})
		So(flat[0].Duration(), ShouldEqual, 2.5)
	})

	Convey("The noise action is dropped with its subtree", t, func() {
		flat := Flatten(tree, tags, DefaultNoiseAction)
		var names []string
		for _, action := range flat {
			names = append(names, action.Name)
		}
		So(names, ShouldResemble, []string{"a", "a1", "a11", "b"})
	})
}

func TestParse(t *testing.T) {
	Convey("Parsing two result directories of the same latency", t, func() {
		root, err := ioutil.TempDir("", "analysis")
		So(err, ShouldBeNil)
		defer os.RemoveAll(root)

		cockroach := resultDir(root, "cockroachdb-3-0", report)
		maria := resultDir(root, "mariadb-3-0", report)
		agg := NewAggregator()

		tables, err := Parse(cockroach, "0", false, agg)
		So(err, ShouldBeNil)
		So(tables, ShouldHaveLength, 1)
		_, err = Parse(maria, "0", false, agg)
		So(err, ShouldBeNil)

		Convey("gives two rows per directory keyed by database", func() {
			So(agg.Latencies(), ShouldResemble, []string{"0"})
			concat := agg.Concat("0")
			So(concat.Rows, ShouldHaveLength, 4)

			perDB := map[string]int{}
			for _, row := range concat.Rows {
				So(row.Scenario, ShouldEqual, "create_and_list_users")
				So(row.Nodes, ShouldEqual, 3)
				perDB[row.DB]++
			}
			So(perDB, ShouldResemble, map[string]int{"cockroach": 2, "maria": 2})
			So(concat.Rows[0].Name, ShouldEqual, "keystone_v3.create_user")
			So(concat.Rows[0].Mean, ShouldEqual, 2.5)
			So(concat.Rows[1].Name, ShouldEqual, "keystone_v3.list_users")
			So(concat.Rows[1].Mean, ShouldEqual, 0.5)
		})

		Convey("other latencies are skipped", func() {
			tables, err := Parse(maria, "50", false, NewAggregator())
			So(err, ShouldBeNil)
			So(tables, ShouldBeEmpty)
		})

		Convey("a second directory for the same run is rejected", func() {
			duplicate := resultDir(root, "mariadb-3-0ms", report)
			_, err := Parse(duplicate, "0", false, agg)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "duplicates")
		})

		Convey("merging aggregators keeps every table", func() {
			other := NewAggregator()
			_, err := Parse(resultDir(root, "galera-3-0", report), "0", false, other)
			So(err, ShouldBeNil)
			So(agg.Merge(other), ShouldBeNil)
			So(agg.Tables("0"), ShouldHaveLength, 3)

			agg.Reset()
			So(agg.Latencies(), ShouldBeEmpty)
		})
	})

	Convey("Unknown scenarios are skipped and malformed reports abort", t, func() {
		root, err := ioutil.TempDir("", "analysis")
		So(err, ShouldBeNil)
		defer os.RemoveAll(root)

		unknown := strings.Replace(report, "KeystoneBasic.create_and_list_users", "NovaServers.boot", 1)
		tables, err := Parse(resultDir(root, "mariadb-3-0", unknown), "0", false, NewAggregator())
		So(err, ShouldBeNil)
		So(tables, ShouldBeEmpty)

		_, err = Parse(resultDir(root, "mariadb-5-0", "{not json"), "0", false, NewAggregator())
		So(err, ShouldNotBeNil)

		_, err = Parse(resultDir(root, "mariadb-7-0", `{"tasks": []}`), "0", false, NewAggregator())
		So(err, ShouldNotBeNil)
	})

	Convey("A full run unpacks and parses every directory", t, func() {
		root, err := ioutil.TempDir("", "analysis")
		So(err, ShouldBeNil)
		defer os.RemoveAll(root)

		for _, name := range []string{"cockroachdb-3-0", "mariadb-3-0"} {
			host := mkdir(root, name, BackupDir, name+"-graphene-1")
			writeBundle(filepath.Join(host, "rally-graphene-1.nancy.grid5000.fr.tar.gz"),
				map[string]string{"rally_home/create_and_list_users.json": report})
		}

		agg := NewAggregator()
		So(FullRun(root, "0", true, agg), ShouldBeNil)
		So(agg.Tables("0"), ShouldHaveLength, 2)
		So(agg.Concat("0").Rows, ShouldHaveLength, 4)
	})
}
