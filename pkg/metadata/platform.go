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
	"bufio"
	"io/ioutil"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// CPUModelNameKey defines a key in the platform metrics map
	CPUModelNameKey = "cpu_model"
	// KernelVersionKey defines a key in the platform metrics map
	KernelVersionKey = "kernel_version"
	// OSReleaseKey defines a key in the platform metrics map
	OSReleaseKey = "os_release"
	// AnsibleVersionKey defines a key in the platform metrics map
	AnsibleVersionKey = "ansible_version"
)

// GetPlatformMetrics returns map of strings describing the host driving the experiment.
// If metric could not be retrieved value for the key is empty string.
func GetPlatformMetrics() map[string]string {
	getters := []struct {
		key string
		get func() (string, error)
	}{
		{CPUModelNameKey, CPUModelName},
		{KernelVersionKey, KernelVersion},
		{OSReleaseKey, OSRelease},
		{AnsibleVersionKey, AnsibleVersion},
	}

	platformMetrics := map[string]string{}
	for _, getter := range getters {
		item, err := getter.get()
		if err != nil {
			logrus.Warnf("GetPlatformMetrics: Failed to get %s metric. Skipping. Error: %s", getter.key, err.Error())
		}
		platformMetrics[getter.key] = item
	}
	return platformMetrics
}

// CPUModelName reads /proc/cpuinfo and returns the first 'model name' value.
func CPUModelName() (string, error) {
	file, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return "", errors.Wrap(err, "cannot open /proc/cpuinfo")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		chunks := strings.SplitN(scanner.Text(), ":", 2)
		if len(chunks) == 2 && strings.TrimSpace(chunks[0]) == "model name" {
			return strings.TrimSpace(chunks[1]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("did not find 'model name' in /proc/cpuinfo")
}

// KernelVersion returns kernel version as stated in /proc/version.
func KernelVersion() (string, error) {
	return readContents("/proc/version")
}

// OSRelease returns PRETTY_NAME of /etc/os-release.
func OSRelease() (string, error) {
	content, err := readContents("/etc/os-release")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "PRETTY_NAME=") {
			return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), `"`), nil
		}
	}
	return "", errors.New("no PRETTY_NAME in /etc/os-release")
}

// AnsibleVersion returns the first line of 'ansible-playbook --version'.
func AnsibleVersion() (string, error) {
	output, err := exec.Command("ansible-playbook", "--version").Output()
	if err != nil {
		return "", errors.Wrap(err, "failed to get output from ansible-playbook --version")
	}
	return strings.SplitN(strings.TrimSpace(string(output)), "\n", 2)[0], nil
}

func readContents(path string) (string, error) {
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read %s", path)
	}
	return strings.TrimSpace(string(content)), nil
}
