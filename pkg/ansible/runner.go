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

package ansible

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/Marie-Donnie/juice/pkg/executor"
	"github.com/Marie-Donnie/juice/pkg/utils/fs"
	"github.com/alessio/shellescape"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ExtraVars are variables passed to playbooks.
type ExtraVars map[string]interface{}

// PlaybookRunner runs playbooks against an inventory.
type PlaybookRunner interface {
	Run(playbooks []string, inventory string, extraVars ExtraVars) error
}

const (
	defaultBinary = "ansible-playbook"
	tailLines     = 10
)

// Runner runs ansible-playbook through an executor.
type Runner struct {
	executor executor.Executor
	// Dir is prepended to relative playbook paths.
	Dir string
	// Binary is the ansible-playbook command.
	Binary string
}

// NewRunner returns a Runner resolving playbooks from dir.
func NewRunner(exec executor.Executor, dir string) *Runner {
	return &Runner{executor: exec, Dir: dir, Binary: defaultBinary}
}

// Run runs every playbook in order and stops at the first failure.
func (r *Runner) Run(playbooks []string, inventory string, extraVars ExtraVars) error {
	varsFile, err := writeExtraVars(extraVars)
	if err != nil {
		return err
	}
	defer os.Remove(varsFile)

	for _, playbook := range playbooks {
		if !filepath.IsAbs(playbook) && r.Dir != "" {
			playbook = filepath.Join(r.Dir, playbook)
		}
		command := fmt.Sprintf("%s -i %s -e %s %s",
			r.Binary,
			shellescape.Quote(inventory),
			shellescape.Quote("@"+varsFile),
			shellescape.Quote(playbook),
		)

		logrus.Infof("Running playbook %s", playbook)
		handle, err := executor.ExecuteAndWait(r.executor, command)
		if err != nil {
			return errors.Wrapf(err, "playbook %s failed%s", playbook, tail(handle))
		}
		handle.Clean()
		handle.EraseOutput()
	}
	return nil
}

func writeExtraVars(extraVars ExtraVars) (string, error) {
	data, err := json.Marshal(extraVars)
	if err != nil {
		return "", errors.Wrap(err, "cannot encode extra vars")
	}
	file, err := ioutil.TempFile("", "juice-extra-vars")
	if err != nil {
		return "", errors.Wrap(err, "cannot create extra vars file")
	}
	defer file.Close()
	if _, err := file.Write(data); err != nil {
		os.Remove(file.Name())
		return "", errors.Wrapf(err, "cannot write %q", file.Name())
	}
	return file.Name(), nil
}

// tail returns the end of stdout and stderr of a failed playbook.
func tail(handle executor.TaskHandle) string {
	if handle == nil {
		return ""
	}
	defer handle.Clean()

	outputs := []struct {
		name string
		open func() (*os.File, error)
	}{
		{"stdout", handle.StdoutFile},
		{"stderr", handle.StderrFile},
	}

	parts := []string{}
	for _, output := range outputs {
		file, err := output.open()
		if err != nil {
			continue
		}
		file.Close()
		content, err := fs.ReadTail(file.Name(), tailLines)
		if err != nil || strings.TrimSpace(content) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", output.name, strings.TrimSpace(content)))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n" + strings.Join(parts, "\n")
}
