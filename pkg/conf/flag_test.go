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

package conf

import (
	"fmt"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEnvFlag(t *testing.T) {
	Convey("While using Flag struct, it should construct proper juice environment var name", t, func() {
		So(NewStringFlag("test_name", "", "").envName(), ShouldEqual, "JUICE_TEST_NAME")
	})
}

func TestFlags(t *testing.T) {
	Convey("While using Conf flags", t, func() {
		Convey("When some custom String Flag is defined", func() {
			customFlag := NewStringFlag("custom_string_arg", "help", "default")
			customFlag.clear()
			defer customFlag.clear()

			Convey("Redefinition with the same default returns the same flag", func() {
				So(NewStringFlag("custom_string_arg", "help", "default"), ShouldEqual, customFlag)
			})

			Convey("Redefinition with other type panics", func() {
				So(func() { NewIntFlag("custom_string_arg", "help", 1) }, ShouldPanic)
			})

			Convey("When we do not define any environment variable we should have default value after parse", func() {
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldEqual, "default")
			})

			Convey("When we define custom environment variable we should have custom value after parse", func() {
				os.Setenv(customFlag.envName(), "customContent")
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldEqual, "customContent")
			})
		})

		Convey("When some custom Int Flag is defined", func() {
			customFlag := NewIntFlag("custom_int_arg", "help", 23424)
			customFlag.clear()
			defer customFlag.clear()

			Convey("When we do not define any environment variable we should have default value after parse", func() {
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldEqual, 23424)
			})

			Convey("When we define custom environment variable we should have custom value after parse", func() {
				os.Setenv(customFlag.envName(), fmt.Sprintf("%d", 12))
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldEqual, 12)
			})
		})

		Convey("When some custom Slice Flag is defined", func() {
			customFlag := NewSliceFlag("custom_slice_arg", "help", "a", "b")
			customFlag.clear()
			defer customFlag.clear()

			Convey("When we do not define any environment variable we should have default value after parse", func() {
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldResemble, []string{"a", "b"})
			})

			Convey("When we define custom environment variable we should have custom value after parse", func() {
				os.Setenv(customFlag.envName(), "c,d")
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldResemble, []string{"c", "d"})
			})
		})

		Convey("When some custom Bool Flag is defined", func() {
			customFlag := NewBoolFlag("custom_bool_arg", "help", false)
			customFlag.clear()
			defer customFlag.clear()

			Convey("When we define custom environment variable we should have custom value after parse", func() {
				os.Setenv(customFlag.envName(), "true")
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldBeTrue)
			})
		})

		Convey("When some custom Duration Flag is defined", func() {
			customFlag := NewDurationFlag("custom_duration_arg", "help", 30*time.Second)
			customFlag.clear()
			defer customFlag.clear()

			Convey("When we do not define any environment variable we should have default value after parse", func() {
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldEqual, 30*time.Second)
			})

			Convey("When we define custom environment variable we should have custom value after parse", func() {
				os.Setenv(customFlag.envName(), "1m")
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldEqual, time.Minute)
			})
		})
	})
}
