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

package errcollection

import (
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestErrorCollection(t *testing.T) {
	Convey("Collecting teardown errors", t, func() {
		var errs ErrorCollection

		Convey("nothing collected means no error", func() {
			errs.Add(nil)
			So(errs.Len(), ShouldEqual, 0)
			So(errs.GetErrIfAny(), ShouldBeNil)
		})

		Convey("a single error keeps its message", func() {
			errs.Add(errors.New("destroy failed"))
			So(errs.GetErrIfAny(), ShouldBeError, "destroy failed")
		})

		Convey("messages are joined in collection order", func() {
			errs.Add(errors.New("destroy failed"))
			errs.Add(nil)
			errs.Add(errors.Wrap(errors.New("no route to host"), "emulate failed"))
			So(errs.Len(), ShouldEqual, 2)
			So(errs.GetErrIfAny(), ShouldBeError, "destroy failed; emulate failed: no route to host")
		})
	})
}
