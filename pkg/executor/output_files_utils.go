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
	"os"
	"path/filepath"
	"strings"

	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/pkg/errors"
)

var outputDirFlag = conf.NewStringFlag(
	"executor_output_dir",
	"Directory where stdout and stderr of executed commands are stored",
	os.TempDir(),
)

func getBinaryNameFromCommand(command string) (string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", errors.Errorf("failed to extract command name from %q", command)
	}
	return filepath.Base(fields[0]), nil
}

func createExecutorOutputFiles(command, prefix string) (stdout, stderr *os.File, err error) {
	if len(command) == 0 {
		return nil, nil, errors.New("empty command string")
	}

	commandName, err := getBinaryNameFromCommand(command)
	if err != nil {
		return nil, nil, err
	}

	baseDir := outputDirFlag.Value()
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, nil, errors.Wrapf(err, "cannot create %q", baseDir)
	}

	outputDir, err := ioutil.TempDir(baseDir, prefix+"_"+commandName+"_")
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create output directory for %s", commandName)
	}
	if err := os.Chmod(outputDir, 0755); err != nil {
		return nil, nil, errors.Wrapf(err, "cannot chmod %q", outputDir)
	}

	stdout, err = os.Create(filepath.Join(outputDir, "stdout"))
	if err != nil {
		os.RemoveAll(outputDir)
		return nil, nil, err
	}

	stderr, err = os.Create(filepath.Join(outputDir, "stderr"))
	if err != nil {
		stdout.Close()
		os.RemoveAll(outputDir)
		return nil, nil, err
	}

	return stdout, stderr, nil
}

func removeExecutorOutputFiles(stdout, stderr *os.File) {
	stdout.Close()
	stderr.Close()
	os.RemoveAll(filepath.Dir(stdout.Name()))
}
