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

package provider

import (
	"sort"

	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/executor"
)

// DefaultUser is the account used on deployed nodes.
const DefaultUser = "root"

// Host is a machine reachable by ssh.
type Host struct {
	Address string `yaml:"address" json:"address"`
	User    string `yaml:"user" json:"user"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
	KeyPath string `yaml:"key_path,omitempty" json:"key_path,omitempty"`
	// Extra maps network roles to the interface carrying them, e.g. database_network: eth1.
	Extra map[string]string `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Roles maps a role name to the hosts playing it.
type Roles map[string][]Host

// Names returns role names sorted.
func (r Roles) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hosts returns the distinct hosts playing any of the given roles, every role when none is given.
func (r Roles) Hosts(roles ...string) []Host {
	if len(roles) == 0 {
		roles = r.Names()
	}
	seen := map[string]bool{}
	hosts := []Host{}
	for _, role := range roles {
		for _, host := range r[role] {
			if seen[host.Address] {
				continue
			}
			seen[host.Address] = true
			hosts = append(hosts, host)
		}
	}
	return hosts
}

// Network is a network obtained from the provider.
type Network struct {
	ID    string   `yaml:"id" json:"id"`
	Type  string   `yaml:"type" json:"type"`
	Site  string   `yaml:"site,omitempty" json:"site,omitempty"`
	Roles []string `yaml:"roles" json:"roles"`
	// VlanID is set for kavlan networks.
	VlanID string `yaml:"vlan_id,omitempty" json:"vlan_id,omitempty"`
}

// Provider claims and releases resources.
type Provider interface {
	// Init claims the resources (reusing existing ones unless force is set) and returns roles and networks.
	Init(force bool) (Roles, []Network, error)
	// Destroy releases the resources.
	Destroy() error
}

// Runner runs a command and returns its standard output.
type Runner func(command string) (string, error)

// NewRunner returns a Runner executing commands with given executor.
func NewRunner(exec executor.Executor) Runner {
	return func(command string) (string, error) {
		return executor.ReadStdout(exec, command)
	}
}

// New returns the provider matching the configuration: Static when hosts are listed, G5k otherwise.
func New(config deployment.Config, runner Runner) Provider {
	if config.Static != nil {
		return NewStatic(*config.Static)
	}
	return NewG5k(config.G5k, runner)
}

