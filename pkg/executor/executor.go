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
	"io/ioutil"

	"github.com/pkg/errors"
)

// Executor is responsible for creating execution environment for given command.
// It returns Task handle when command started gracefully.
// Command is executed asynchronously.
type Executor interface {
	// Execute executes command on underlying platform.
	Execute(command string) (TaskHandle, error)
	// Name returns user-friendly name of executor.
	Name() string
}

// ExecuteAndWait executes the command, blocks until it terminates and
// returns an error when it did not exit with code 0.
func ExecuteAndWait(executor Executor, command string) (TaskHandle, error) {
	handle, err := executor.Execute(command)
	if err != nil {
		return nil, errors.Wrapf(err, "execution of %q on %q failed", command, executor.Name())
	}

	handle.Wait(0)

	exitCode, err := handle.ExitCode()
	if err != nil {
		LogUnsucessfulExecution(command, executor.Name(), handle)
		return handle, errors.Wrapf(err, "cannot get exit code of %q on %q", command, executor.Name())
	}
	if exitCode != 0 {
		LogUnsucessfulExecution(command, executor.Name(), handle)
		return handle, errors.Errorf("command %q on %q exited with code %d", command, executor.Name(), exitCode)
	}

	LogSuccessfulExecution(command, executor.Name(), handle)
	return handle, nil
}

// ReadStdout executes the command like ExecuteAndWait and returns its standard output.
// Output files are removed afterwards.
func ReadStdout(executor Executor, command string) (string, error) {
	handle, err := ExecuteAndWait(executor, command)
	if handle != nil {
		defer func() {
			handle.Clean()
			handle.EraseOutput()
		}()
	}
	if err != nil {
		return "", err
	}

	stdout, err := handle.StdoutFile()
	if err != nil {
		return "", err
	}
	defer stdout.Close()

	output, err := ioutil.ReadAll(stdout)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read output of %q", command)
	}
	return string(output), nil
}
