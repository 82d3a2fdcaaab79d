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
	"fmt"

	"github.com/Marie-Donnie/juice/pkg/executor/command"
	"github.com/sirupsen/logrus"
)

// Remote provisioning is responsible for providing the execution environment
// on remote machine via ssh.
type Remote struct {
	sshConfig SSHConfig
}

// NewRemote returns a Remote instance.
func NewRemote(sshConfig *SSHConfig) Remote {
	return Remote{
		sshConfig: *sshConfig,
	}
}

// Name returns user-friendly name of executor.
func (remote Remote) Name() string {
	return fmt.Sprintf("Remote executor (%s@%s)", remote.sshConfig.ClientConfig.User, remote.sshConfig.Host)
}

// Execute runs the command given as input.
// Returned Task is able to stop & monitor the provisioned process.
func (remote Remote) Execute(commandLine string) (TaskHandle, error) {
	stdoutFile, stderrFile, err := createExecutorOutputFiles(commandLine, "remote")
	if err != nil {
		return nil, err
	}

	logrus.Debug("Starting ", commandLine, " on ", remote.sshConfig.Host)

	address := fmt.Sprintf("%s:%d", remote.sshConfig.Host, remote.sshConfig.Port)
	cmd := command.NewRemote(remote.sshConfig.ClientConfig, address)
	if err := cmd.Start(commandLine, stdoutFile, stderrFile); err != nil {
		removeExecutorOutputFiles(stdoutFile, stderrFile)
		return nil, err
	}

	handle := newCommandTaskHandle(cmd, commandLine, remote.sshConfig.Host, stdoutFile, stderrFile)
	register(handle)

	return checkIfProcessFailedToExecute(commandLine, remote.Name(), handle)
}
