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
	"os"

	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/environment"
	"github.com/Marie-Donnie/juice/pkg/executor"
	"github.com/Marie-Donnie/juice/pkg/experiment"
	"github.com/Marie-Donnie/juice/pkg/juice"
	"github.com/sirupsen/logrus"
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case conf.IsUsageError(err):
		return experiment.ExUsage
	case deployment.IsConfigError(err):
		return experiment.ExConfig
	case environment.IsPreconditionError(err):
		return experiment.ExSoftware
	}
	return 1
}

func main() {
	conf.SetAppName("juice")
	conf.SetHelp("Tool to test Keystone over MariaDB, Galera and CockroachDB on Grid'5000")

	stop := executor.RegisterInterruptHandle()

	err := commands(juice.NewFromFlags).Dispatch(os.Args[1:])
	if err != nil {
		logrus.Debugf("%+v", err)
		logrus.Error(err)
		if conf.IsUsageError(err) {
			conf.Usage(os.Args[1:])
		}
	}
	stop()
	os.Exit(exitCode(err))
}
