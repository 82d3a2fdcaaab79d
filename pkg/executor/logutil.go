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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Marie-Donnie/juice/pkg/utils/fs"
	"github.com/sirupsen/logrus"
)

// tailLines of each output are logged when a command fails.
const tailLines = 5

// outputName returns the name of an output file, or why it is unknown.
func outputName(open func() (*os.File, error)) string {
	file, err := open()
	if err != nil {
		return fmt.Sprintf("unknown (%v)", err)
	}
	defer file.Close()
	return file.Name()
}

func executionFields(command, executorName string, handle TaskHandle) logrus.Fields {
	fields := logrus.Fields{
		"command":  command,
		"executor": executorName,
		"address":  handle.Address(),
		"stdout":   outputName(handle.StdoutFile),
		"stderr":   outputName(handle.StderrFile),
	}
	if exitCode, err := handle.ExitCode(); err == nil {
		fields["exit_code"] = exitCode
	}
	return fields
}

// LogSuccessfulExecution logs where the outputs of a finished command are stored.
func LogSuccessfulExecution(command string, executorName string, handle TaskHandle) {
	logrus.WithFields(executionFields(command, executorName, handle)).Debug("Command ended")
}

// LogUnsucessfulExecution logs the outputs location and last lines of a failed command.
func LogUnsucessfulExecution(command string, executorName string, handle TaskHandle) {
	fields := executionFields(command, executorName, handle)
	entry := logrus.WithFields(fields)
	entry.Error("Command might have ended prematurely")

	for _, stream := range []string{"stdout", "stderr"} {
		tail, err := fs.ReadTail(fields[stream].(string), tailLines)
		if err != nil {
			tail = err.Error()
		}
		ErrorLogLines(entry.WithField("stream", stream), strings.NewReader(tail))
	}
}

// ErrorLogLines logs every line of r as a separate error entry.
func ErrorLogLines(entry *logrus.Entry, r *strings.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		entry.Error(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		entry.Errorf("Printing from reader failed: %v", err)
	}
}
