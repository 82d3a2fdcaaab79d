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
	"github.com/Marie-Donnie/juice/pkg/executor/command"
	"github.com/sirupsen/logrus"
)

const localAddress = "127.0.0.1"

// Local provisioning is responsible for providing the execution environment
// on local machine via exec.Command.
// It runs command as current user.
type Local struct{}

// NewLocal returns a Local instance.
func NewLocal() Local {
	return Local{}
}

// Name returns user-friendly name of executor.
func (l Local) Name() string {
	return "Local executor"
}

// Execute runs the command given as input.
// Returned Task is able to stop & monitor the provisioned process.
func (l Local) Execute(commandLine string) (TaskHandle, error) {
	stdoutFile, stderrFile, err := createExecutorOutputFiles(commandLine, "local")
	if err != nil {
		return nil, err
	}

	logrus.Debug("Starting ", commandLine, " locally")

	cmd := command.NewLocal()
	if err := cmd.Start(commandLine, stdoutFile, stderrFile); err != nil {
		removeExecutorOutputFiles(stdoutFile, stderrFile)
		return nil, err
	}

	handle := newCommandTaskHandle(cmd, commandLine, localAddress, stdoutFile, stderrFile)
	register(handle)

	return checkIfProcessFailedToExecute(commandLine, l.Name(), handle)
}
