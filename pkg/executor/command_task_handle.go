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
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Marie-Donnie/juice/pkg/executor/command"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// commandTaskHandle implements TaskHandle on top of a started command.Command.
type commandTaskHandle struct {
	cmd        command.Command
	command    string
	address    string
	stdoutFile *os.File
	stderrFile *os.File

	waitEndChannel chan struct{}
	waitErr        error
	cleanOnce      sync.Once
}

func newCommandTaskHandle(cmd command.Command, commandLine, address string, stdoutFile, stderrFile *os.File) *commandTaskHandle {
	handle := &commandTaskHandle{
		cmd:            cmd,
		command:        commandLine,
		address:        address,
		stdoutFile:     stdoutFile,
		stderrFile:     stderrFile,
		waitEndChannel: make(chan struct{}),
	}

	go func() {
		handle.waitErr = cmd.Wait()
		if handle.waitErr != nil {
			logrus.Debugf("waiting for %q on %q failed: %v", commandLine, address, handle.waitErr)
		}
		close(handle.waitEndChannel)
	}()

	return handle
}

func (h *commandTaskHandle) isTerminated() bool {
	select {
	case <-h.waitEndChannel:
		return true
	default:
		return false
	}
}

// Stop kills the task and waits for its termination.
func (h *commandTaskHandle) Stop() error {
	if h.isTerminated() {
		return nil
	}

	if err := h.cmd.Kill(); err != nil {
		if h.isTerminated() {
			return nil
		}
		return errors.Wrapf(err, "cannot stop %q on %q", h.command, h.address)
	}

	<-h.waitEndChannel
	return nil
}

// Status returns a state of the task.
func (h *commandTaskHandle) Status() TaskState {
	if h.isTerminated() {
		return TERMINATED
	}
	return RUNNING
}

// ExitCode returns the exit code of a terminated task.
func (h *commandTaskHandle) ExitCode() (int, error) {
	if !h.isTerminated() {
		return -1, errors.Errorf("task %q on %q is not terminated", h.command, h.address)
	}
	if h.waitErr != nil {
		return -1, errors.Wrapf(h.waitErr, "task %q on %q has no exit code", h.command, h.address)
	}
	return h.cmd.ExitCode(), nil
}

// StdoutFile returns a file handle for file to the task's stdout file.
func (h *commandTaskHandle) StdoutFile() (*os.File, error) {
	return openOutput(h.stdoutFile)
}

// StderrFile returns a file handle for file to the task's stderr file.
func (h *commandTaskHandle) StderrFile() (*os.File, error) {
	return openOutput(h.stderrFile)
}

func openOutput(file *os.File) (*os.File, error) {
	if file == nil {
		return nil, errors.New("output file was not created")
	}
	return os.Open(file.Name())
}

// Wait blocks until the task terminates or the timeout expires.
func (h *commandTaskHandle) Wait(timeout time.Duration) bool {
	if timeout == 0 {
		<-h.waitEndChannel
		return true
	}

	select {
	case <-h.waitEndChannel:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Clean closes output files.
func (h *commandTaskHandle) Clean() (err error) {
	h.cleanOnce.Do(func() {
		if closeErr := h.stdoutFile.Close(); closeErr != nil {
			err = closeErr
		}
		if closeErr := h.stderrFile.Close(); closeErr != nil {
			err = closeErr
		}
	})
	return err
}

// EraseOutput removes output files and their directory.
func (h *commandTaskHandle) EraseOutput() error {
	return os.RemoveAll(filepath.Dir(h.stdoutFile.Name()))
}

// Address returns where the task was started.
func (h *commandTaskHandle) Address() string {
	return h.address
}
