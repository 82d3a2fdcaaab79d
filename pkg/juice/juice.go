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

// Package juice deploys databases under OpenStack Keystone on Grid'5000 and benchmarks them.
//
// Every task reads the environment record left by the previous ones, checks the keys it
// needs and appends its name to the record history.
package juice

import (
	"io"
	"os"
	"time"

	"github.com/Marie-Donnie/juice/pkg/ansible"
	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/environment"
	"github.com/Marie-Donnie/juice/pkg/executor"
	"github.com/Marie-Donnie/juice/pkg/keystone"
	"github.com/Marie-Donnie/juice/pkg/netem"
	"github.com/Marie-Donnie/juice/pkg/provider"
)

// Playbooks, relative to the ansible directory.
const (
	PreparePlaybook   = "prepare.yml"
	StressPlaybook    = "stress.yml"
	OpenstackPlaybook = "openstack.yml"
	RallyPlaybook     = "rally.yml"
)

// AllPlaybooks are run, in order, by backup and destroy.
var AllPlaybooks = []string{PreparePlaybook, StressPlaybook, OpenstackPlaybook, RallyPlaybook}

// NetworkEmulator shapes and measures traffic between roles.
type NetworkEmulator interface {
	Emulate(roles provider.Roles, tc deployment.TC) error
	Validate(roles provider.Roles, groups ...string) ([]netem.Measurement, error)
}

// IdentityChecker tells whether the Keystone deployed on a host answers.
type IdentityChecker interface {
	Check(host string) error
}

// Juice runs the deployment tasks against the environment in EnvDir.
type Juice struct {
	// EnvDir is the environment directory. G5k points it at the directory it creates.
	EnvDir      string
	NewProvider func(config deployment.Config) provider.Provider
	Playbooks   ansible.PlaybookRunner
	Network     NetworkEmulator
	// Identity is asked about the first openstack host once Keystone is deployed. Optional.
	Identity    IdentityChecker
	IfaceDelay  time.Duration
	Out         io.Writer

	sleep func(time.Duration)
}

// New returns a Juice using the given collaborators.
func New(envDir string, newProvider func(deployment.Config) provider.Provider, playbooks ansible.PlaybookRunner, network NetworkEmulator) *Juice {
	return &Juice{
		EnvDir:      envDir,
		NewProvider: newProvider,
		Playbooks:   playbooks,
		Network:     network,
		IfaceDelay:  30 * time.Second,
		Out:         os.Stdout,
		sleep:       time.Sleep,
	}
}

// NewFromFlags returns a Juice configured from the command line and environment.
// OAR commands run on the configured frontend over ssh, playbooks run locally.
func NewFromFlags() (*Juice, error) {
	var frontend executor.Executor = executor.NewLocal()
	if FrontendFlag.Value() != "" {
		config, err := executor.NewSSHConfigWithKey(FrontendFlag.Value(), executor.DefaultSSHPort, SSHUserFlag.Value(), SSHKeyFlag.Value())
		if err != nil {
			return nil, err
		}
		frontend = executor.NewRemote(config)
	}
	runner := provider.NewRunner(frontend)

	j := New(
		EnvFlag.Value(),
		func(config deployment.Config) provider.Provider { return provider.New(config, runner) },
		ansible.NewRunner(executor.NewLocal(), AnsibleDirFlag.Value()),
		netem.NewEmulator(netem.NewSSHExecutorFactory(SSHKeyFlag.Value())),
	)
	j.IfaceDelay = IfaceDelayFlag.Value()
	if KeystoneCheckFlag.Value() {
		j.Identity = keystone.NewChecker(keystone.DefaultConfig())
	}
	return j, nil
}

func (j *Juice) load() (*environment.Record, error) {
	return environment.Load(j.EnvDir)
}
