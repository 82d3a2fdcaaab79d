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

package archive

import (
	"archive/tar"
	"compress/gzip"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	. "github.com/smartystreets/goconvey/convey"
)

type entry struct {
	name     string
	typeflag byte
	linkname string
	body     string
}

func writeBundle(path string, entries []entry) {
	file, err := os.Create(path)
	So(err, ShouldBeNil)
	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		header := &tar.Header{Name: e.name, Typeflag: e.typeflag, Linkname: e.linkname, Mode: 0644, Size: int64(len(e.body))}
		So(tw.WriteHeader(header), ShouldBeNil)
		if e.typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			So(err, ShouldBeNil)
		}
	}
	So(tw.Close(), ShouldBeNil)
	So(gz.Close(), ShouldBeNil)
	So(file.Close(), ShouldBeNil)
}

func warnings(hook *test.Hook) []string {
	var messages []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			messages = append(messages, e.Message)
		}
	}
	return messages
}

func TestExtract(t *testing.T) {
	Convey("With a bundle mixing safe and unsafe entries", t, func() {
		dir, err := ioutil.TempDir("", "archive")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		bundle := filepath.Join(dir, "rally-graphene-1.nancy.grid5000.fr.tar.gz")
		writeBundle(bundle, []entry{
			{name: "rally_home/", typeflag: tar.TypeDir},
			{name: "rally_home/create_user.json", typeflag: tar.TypeReg, body: `{"tasks": []}`},
			{name: "rally_home/rally.log", typeflag: tar.TypeReg, body: "log"},
			{name: "../escape.json", typeflag: tar.TypeReg, body: "{}"},
			{name: "/tmp/absolute.json", typeflag: tar.TypeReg, body: "{}"},
			{name: "rally_home/passwd.json", typeflag: tar.TypeSymlink, linkname: "../../../etc/passwd"},
			{name: "rally_home/hard.json", typeflag: tar.TypeLink, linkname: "../../outside.json"},
			{name: "rally_home/alias.json", typeflag: tar.TypeSymlink, linkname: "create_user.json"},
		})
		target := filepath.Join(dir, "results")

		hook := test.NewGlobal()
		defer hook.Reset()

		files, err := Extract(bundle, target, DefaultOptions())
		So(err, ShouldBeNil)

		base, err := filepath.EvalSymlinks(target)
		So(err, ShouldBeNil)

		Convey("Only safe report entries are written, without the prefix", func() {
			So(files, ShouldResemble, []string{
				filepath.Join(base, "create_user.json"),
				filepath.Join(base, "alias.json"),
			})
			data, err := ioutil.ReadFile(filepath.Join(base, "create_user.json"))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"tasks": []}`)

			_, err = os.Stat(filepath.Join(base, "rally.log"))
			So(os.IsNotExist(err), ShouldBeTrue)
			_, err = os.Lstat(filepath.Join(base, "passwd.json"))
			So(os.IsNotExist(err), ShouldBeTrue)
			_, err = os.Stat(filepath.Join(dir, "escape.json"))
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("Every rejected entry is named in a warning", func() {
			messages := strings.Join(warnings(hook), "\n")
			So(messages, ShouldContainSubstring, `Blocked: illegal path "../escape.json"`)
			So(messages, ShouldContainSubstring, `Blocked: illegal path "/tmp/absolute.json"`)
			So(messages, ShouldContainSubstring, `Blocked: unsafe link "rally_home/passwd.json" -> "../../../etc/passwd"`)
			So(messages, ShouldContainSubstring, `Blocked: unsafe link "rally_home/hard.json"`)
			So(messages, ShouldNotContainSubstring, "rally.log")
		})
	})

	Convey("Entries never write through previously extracted links", t, func() {
		dir, err := ioutil.TempDir("", "archive")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		target := filepath.Join(dir, "results")
		victim := filepath.Join(dir, "victim.json")
		So(ioutil.WriteFile(victim, []byte("original"), 0644), ShouldBeNil)

		hook := test.NewGlobal()
		defer hook.Reset()

		Convey("A link that only escapes once its prefix is stripped is refused", func() {
			bundle := filepath.Join(dir, "stripped.tar.gz")
			writeBundle(bundle, []entry{
				{name: "rally_home/x.json", typeflag: tar.TypeSymlink, linkname: "../victim.json"},
				{name: "rally_home/x.json", typeflag: tar.TypeReg, body: "PWNED"},
			})

			files, err := Extract(bundle, target, DefaultOptions())
			So(err, ShouldBeNil)

			data, err := ioutil.ReadFile(victim)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "original")

			base, err := filepath.EvalSymlinks(target)
			So(err, ShouldBeNil)
			So(files, ShouldResemble, []string{filepath.Join(base, "x.json")})
			info, err := os.Lstat(files[0])
			So(err, ShouldBeNil)
			So(info.Mode().IsRegular(), ShouldBeTrue)

			So(strings.Join(warnings(hook), "\n"), ShouldContainSubstring,
				`Blocked: unsafe link "rally_home/x.json" -> "../victim.json"`)
		})

		Convey("A regular file replaces an existing link instead of following it", func() {
			base, err := resolveBase(target)
			So(err, ShouldBeNil)
			So(os.Symlink(victim, filepath.Join(base, "x.json")), ShouldBeNil)

			bundle := filepath.Join(dir, "replace.tar.gz")
			writeBundle(bundle, []entry{{name: "rally_home/x.json", typeflag: tar.TypeReg, body: "PWNED"}})

			_, err = Extract(bundle, target, DefaultOptions())
			So(err, ShouldBeNil)

			data, err := ioutil.ReadFile(victim)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "original")
			data, err = ioutil.ReadFile(filepath.Join(base, "x.json"))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "PWNED")
		})

		Convey("Links chained through other links are resolved on disk", func() {
			bundle := filepath.Join(dir, "chained.tar.gz")
			writeBundle(bundle, []entry{
				{name: "a/b.json", typeflag: tar.TypeSymlink, linkname: ".."},
				{name: "a/s.json", typeflag: tar.TypeSymlink, linkname: "b.json/.."},
				{name: "a/s.json/v.json", typeflag: tar.TypeReg, body: "PWNED"},
			})

			files, err := Extract(bundle, target, DefaultOptions())
			So(err, ShouldBeNil)

			_, err = os.Stat(filepath.Join(dir, "v.json"))
			So(os.IsNotExist(err), ShouldBeTrue)

			base, err := filepath.EvalSymlinks(target)
			So(err, ShouldBeNil)
			for _, file := range files {
				So(within(base, file), ShouldBeTrue)
			}
			So(strings.Join(warnings(hook), "\n"), ShouldContainSubstring,
				`Blocked: unsafe link "a/s.json" -> "b.json/.."`)
		})

		Convey("Links redirected by later entries are removed", func() {
			bundle := filepath.Join(dir, "redirected.tar.gz")
			writeBundle(bundle, []entry{
				{name: "rally_home/up.json", typeflag: tar.TypeSymlink, linkname: "q.json/.."},
				{name: "rally_home/q.json", typeflag: tar.TypeSymlink, linkname: "."},
			})

			files, err := Extract(bundle, target, DefaultOptions())
			So(err, ShouldBeNil)

			base, err := filepath.EvalSymlinks(target)
			So(err, ShouldBeNil)
			So(files, ShouldResemble, []string{filepath.Join(base, "q.json")})
			_, err = os.Lstat(filepath.Join(base, "up.json"))
			So(os.IsNotExist(err), ShouldBeTrue)
		})
	})

	Convey("A custom suffix selects other entries", t, func() {
		dir, err := ioutil.TempDir("", "archive")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		bundle := filepath.Join(dir, "bundle.tar.gz")
		writeBundle(bundle, []entry{
			{name: "rally_home/rally.log", typeflag: tar.TypeReg, body: "log"},
			{name: "rally_home/report.json", typeflag: tar.TypeReg, body: "{}"},
		})
		files, err := Extract(bundle, filepath.Join(dir, "out"), Options{Suffix: ".log"})
		So(err, ShouldBeNil)
		So(files, ShouldHaveLength, 1)
		So(files[0], ShouldEndWith, filepath.Join("rally_home", "rally.log"))
	})

	Convey("Bundles that are not gzip'd tars are reported", t, func() {
		dir, err := ioutil.TempDir("", "archive")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		plain := filepath.Join(dir, "plain.tar.gz")
		So(ioutil.WriteFile(plain, []byte("not an archive"), 0644), ShouldBeNil)
		So(IsTarGz(plain), ShouldBeFalse)
		So(IsTarGz(filepath.Join(dir, "missing.tar.gz")), ShouldBeFalse)

		_, err = Extract(plain, filepath.Join(dir, "out"), DefaultOptions())
		So(err, ShouldNotBeNil)

		valid := filepath.Join(dir, "valid.tar.gz")
		writeBundle(valid, []entry{{name: "a.json", typeflag: tar.TypeReg, body: "{}"}})
		So(IsTarGz(valid), ShouldBeTrue)
	})
}
