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

package executor

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestExecuteAndWait(t *testing.T) {
	Convey("While executing commands and waiting for them", t, func() {
		l := NewLocal()

		Convey("Successful command output can be read", func() {
			output, err := ReadStdout(l, "echo juice")
			So(err, ShouldBeNil)
			So(output, ShouldEqual, "juice\n")
		})

		Convey("Failing command returns an error", func() {
			handle, err := ExecuteAndWait(l, "sleep 0.2; exit 3")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "exited with code 3")
			So(handle, ShouldNotBeNil)
			handle.Clean()
			handle.EraseOutput()
		})

		Convey("Failing command has no output to read", func() {
			_, err := ReadStdout(l, "exit 1")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestInterruptHandle(t *testing.T) {
	Convey("Registered handles are stopped on demand", t, func() {
		stop := RegisterInterruptHandle()
		defer func() {
			globalMutex.Lock()
			globalTaskHandleStopper = nil
			globalMutex.Unlock()
		}()

		handle, err := NewLocal().Execute("sleep inf")
		So(err, ShouldBeNil)
		defer handle.EraseOutput()
		defer handle.Clean()

		stop()
		So(handle.Status(), ShouldEqual, TERMINATED)
	})
}
