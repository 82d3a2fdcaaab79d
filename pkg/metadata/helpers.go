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

package metadata

import (
	"os"
	"strings"
	"time"

	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/pkg/errors"
)

// RecordRuntimeEnv stores what describes the run: flags, JUICE_ environment variables,
// driving host with start time, and platform details.
func RecordRuntimeEnv(metadata Metadata, experimentStart time.Time) error {
	hostname, err := os.Hostname()
	if err != nil {
		return errors.Wrap(err, "cannot retrieve hostname")
	}

	entries := []struct {
		kind  string
		entry map[string]string
	}{
		{TypeFlags, conf.GetFlags()},
		{TypeEnviron, prefixedEnv(conf.EnvironmentPrefix)},
		{TypeEmpty, map[string]string{"time": experimentStart.Format(time.RFC822Z), "host": hostname}},
		{TypePlatform, GetPlatformMetrics()},
	}
	for _, e := range entries {
		if err := metadata.RecordMap(e.entry, e.kind); err != nil {
			return err
		}
	}
	return nil
}

// prefixedEnv returns the environment variables starting with prefix.
func prefixedEnv(prefix string) map[string]string {
	env := map[string]string{}
	for _, variable := range os.Environ() {
		if !strings.HasPrefix(variable, prefix) {
			continue
		}
		fields := strings.SplitN(variable, "=", 2)
		env[fields[0]] = fields[1]
	}
	return env
}

// RecordCombination stores the parameters and the outcome of one sweep combination.
func RecordCombination(metadata Metadata, combination map[string]string, status string, cause error) error {
	entry := map[string]string{"status": status}
	for key, value := range combination {
		entry["param_"+key] = value
	}
	if cause != nil {
		entry["error"] = cause.Error()
	}
	return metadata.RecordMap(entry, TypeCombination)
}
