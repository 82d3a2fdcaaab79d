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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Marie-Donnie/juice/pkg/provider"
	"github.com/Marie-Donnie/juice/pkg/utils/fs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// GenerateInventory writes an INI inventory with one group per role. Network role to interface
// mappings of every host become host variables. With checkNetworks, hosts must only reference
// network roles of the given networks.
func GenerateInventory(roles provider.Roles, networks []provider.Network, path string, checkNetworks bool) error {
	known := map[string]bool{}
	for _, network := range networks {
		for _, role := range network.Roles {
			known[role] = true
		}
	}

	buffer := &bytes.Buffer{}
	for _, role := range roles.Names() {
		fmt.Fprintf(buffer, "[%s]\n", role)
		for _, host := range roles[role] {
			line, err := hostLine(host, known, checkNetworks)
			if err != nil {
				return err
			}
			buffer.WriteString(line)
			buffer.WriteString("\n")
		}
		buffer.WriteString("\n")
	}

	buffer.WriteString("[all:vars]\n")
	buffer.WriteString("ansible_python_interpreter=/usr/bin/python3\n")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "cannot create directory of %q", path)
	}
	logrus.Debugf("Writing inventory %s", path)
	return fs.WriteFileAtomic(path, buffer.Bytes(), 0644)
}

func hostLine(host provider.Host, known map[string]bool, checkNetworks bool) (string, error) {
	user := host.User
	if user == "" {
		user = provider.DefaultUser
	}
	line := fmt.Sprintf("%s ansible_host=%s ansible_ssh_user=%s", host.Address, host.Address, user)
	if host.Port != 0 {
		line += fmt.Sprintf(" ansible_port=%d", host.Port)
	}
	if host.KeyPath != "" {
		line += fmt.Sprintf(" ansible_ssh_private_key_file=%s", host.KeyPath)
	}

	networkRoles := make([]string, 0, len(host.Extra))
	for networkRole := range host.Extra {
		networkRoles = append(networkRoles, networkRole)
	}
	sort.Strings(networkRoles)
	for _, networkRole := range networkRoles {
		if checkNetworks && !known[networkRole] {
			return "", errors.Errorf("host %s uses network role %q which no network provides", host.Address, networkRole)
		}
		line += fmt.Sprintf(" %s=%s", networkRole, host.Extra[networkRole])
	}
	return line, nil
}
