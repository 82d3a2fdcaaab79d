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

package experiment

import (
	"os"
	"path/filepath"

	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/pkg/errors"
)

// LogDirFlag is where experiment directories with master logs are created.
var LogDirFlag = conf.NewStringFlag("experiment_log_dir", "Directory where experiment logs are stored", ".")

// CreateExperimentDir creates <experiment_log_dir>/<appName>/<uuid> and opens master.log inside.
func CreateExperimentDir(uuid, appName string) (string, *os.File, error) {
	dir := filepath.Join(LogDirFlag.Value(), filepath.Base(appName), uuid)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, errors.Wrapf(err, "cannot create experiment directory %q", dir)
	}
	logFile, err := os.OpenFile(filepath.Join(dir, "master.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return "", nil, errors.Wrapf(err, "cannot create master log in %q", dir)
	}
	return dir, logFile, nil
}
