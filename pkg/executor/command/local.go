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

package command

import (
	"io"
	"os/exec"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Local command is responsible for providing the execution environment
// on local machine via exec.Command.
type Local struct {
	cmd *exec.Cmd
}

// NewLocal returns a Local instance.
func NewLocal() *Local {
	return &Local{}
}

// Start starts the command.
func (l *Local) Start(command string, stdout io.Writer, stderr io.Writer) error {
	l.cmd = exec.Command("sh", "-c", command)
	// It is important to set additional Process Group ID for parent process and his children
	// to have ability to kill all the children processes.
	l.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	l.cmd.Stdout = stdout
	l.cmd.Stderr = stderr

	return l.cmd.Start()
}

// Wait waits synchronously for task.
func (l *Local) Wait() error {
	if err := l.cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			// Not an exit status: we cannot tell if the task terminated.
			return err
		}
	}
	return nil
}

// ExitCode returns ExitCode. It is only allowed to use this method when
// task is terminated. Tasks killed by a signal report -1.
func (l *Local) ExitCode() int {
	return l.cmd.ProcessState.Sys().(syscall.WaitStatus).ExitStatus()
}

// Kill sends SIGKILL signal to task.
func (l *Local) Kill() error {
	// We signal the entire process group.
	// The kill syscall interprets a negated PID N as the process group N belongs to.
	pid := l.cmd.Process.Pid
	logrus.Debug("Sending ", syscall.SIGKILL, " to PID ", -pid)
	return syscall.Kill(-pid, syscall.SIGKILL)
}
