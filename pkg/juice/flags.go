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

package juice

import (
	"os/user"
	"time"

	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/Marie-Donnie/juice/pkg/executor"
)

var (
	// EnvFlag is the environment directory used by commands working on an existing deployment.
	EnvFlag = conf.NewStringFlag("env", "Path to the environment directory", "current")
	// IfaceDelayFlag is waited after provisioning for network interfaces to come up.
	IfaceDelayFlag = conf.NewDurationFlag("iface_delay", "Time to wait for interfaces to be ready after provisioning", 30*time.Second)
	// AnsibleDirFlag is where playbooks are looked up.
	AnsibleDirFlag = conf.NewStringFlag("ansible_dir", "Directory holding the juice playbooks", "ansible")
	// FrontendFlag is the Grid'5000 frontend OAR commands are run on. Empty runs them locally.
	FrontendFlag = conf.NewStringFlag("g5k_frontend", "Grid'5000 frontend to run OAR commands on (empty for local)", "")
	// SSHKeyFlag is the private key used to reach the frontend and the nodes.
	SSHKeyFlag = conf.NewStringFlag("ssh_key", "Private key used to connect to the frontend and nodes", defaultKeyPath())
	// KeystoneCheckFlag authenticates against Keystone once it is deployed.
	KeystoneCheckFlag = conf.NewBoolFlag("keystone_check", "Authenticate against Keystone after deploying it", true)
	// SSHUserFlag is the login on the frontend.
	SSHUserFlag = conf.NewStringFlag("ssh_user", "User to connect to the frontend as", currentUser())
)

func defaultKeyPath() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return executor.DefaultKeyPath(u)
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}
