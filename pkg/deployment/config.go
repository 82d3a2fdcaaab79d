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

package deployment

import (
	"io/ioutil"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config describes one deployment: resources to claim, image registry and network emulation.
type Config struct {
	EnableMonitoring bool     `yaml:"enable_monitoring" json:"enable_monitoring"`
	G5k              G5k      `yaml:"g5k" json:"g5k"`
	Registry         Registry `yaml:"registry" json:"registry"`
	TC               TC       `yaml:"tc" json:"tc"`
	// Static lists already provisioned hosts. When set, G5k is ignored.
	Static *Static `yaml:"static,omitempty" json:"static,omitempty"`
}

// G5k is the Grid'5000 resource request.
type G5k struct {
	DHCP        bool      `yaml:"dhcp" json:"dhcp"`
	EnvName     string    `yaml:"env_name" json:"env_name"`
	JobName     string    `yaml:"job_name" json:"job_name"`
	Queue       string    `yaml:"queue,omitempty" json:"queue,omitempty"`
	Walltime    string    `yaml:"walltime" json:"walltime"`
	Reservation string    `yaml:"reservation,omitempty" json:"reservation,omitempty"`
	Resources   Resources `yaml:"resources" json:"resources"`
}

// Resources groups machine and network requests.
type Resources struct {
	Machines []Machine `yaml:"machines" json:"machines"`
	Networks []Network `yaml:"networks" json:"networks"`
}

// Machine is a group of identical nodes sharing the same roles.
type Machine struct {
	Cluster           string   `yaml:"cluster" json:"cluster"`
	Nodes             int      `yaml:"nodes" json:"nodes"`
	Roles             []string `yaml:"roles" json:"roles"`
	PrimaryNetwork    string   `yaml:"primary_network" json:"primary_network"`
	SecondaryNetworks []string `yaml:"secondary_networks" json:"secondary_networks"`
}

// Network is a network request; Roles are the network roles exposed to playbooks.
type Network struct {
	ID    string   `yaml:"id" json:"id"`
	Type  string   `yaml:"type" json:"type"`
	Site  string   `yaml:"site" json:"site"`
	Roles []string `yaml:"roles" json:"roles"`
}

// Registry is the docker registry configuration handed to playbooks.
type Registry struct {
	Type        string   `yaml:"type" json:"type"`
	Ceph        bool     `yaml:"ceph" json:"ceph"`
	CephID      string   `yaml:"ceph_id,omitempty" json:"ceph_id,omitempty"`
	CephKeyring string   `yaml:"ceph_keyring,omitempty" json:"ceph_keyring,omitempty"`
	CephMonHost []string `yaml:"ceph_mon_host,omitempty" json:"ceph_mon_host,omitempty"`
	CephRbd     string   `yaml:"ceph_rbd,omitempty" json:"ceph_rbd,omitempty"`
}

// Static describes hosts provisioned out of band.
type Static struct {
	Hosts    []StaticHost `yaml:"hosts" json:"hosts"`
	Networks []Network    `yaml:"networks" json:"networks"`
}

// StaticHost is one reachable host with its roles and network role to interface mapping.
type StaticHost struct {
	Address string            `yaml:"address" json:"address"`
	User    string            `yaml:"user,omitempty" json:"user,omitempty"`
	Port    int               `yaml:"port,omitempty" json:"port,omitempty"`
	KeyPath string            `yaml:"key_path,omitempty" json:"key_path,omitempty"`
	Roles   []string          `yaml:"roles" json:"roles"`
	Nics    map[string]string `yaml:"nics,omitempty" json:"nics,omitempty"`
}

var walltimeRegexp = regexp.MustCompile(`^\d{1,3}:\d{2}:\d{2}$`)

// LoadConfig reads and validates a YAML configuration file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, NewConfigError("cannot read configuration %q: %s", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates YAML configuration.
func ParseConfig(data []byte) (Config, error) {
	config := Config{}
	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return Config{}, NewConfigError("cannot decode configuration: %s", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks required fields and cross references between machines and networks.
func (c Config) Validate() error {
	if err := c.TC.Validate(); err != nil {
		return err
	}

	if c.Static != nil {
		if len(c.Static.Hosts) == 0 {
			return NewConfigError("static provider needs at least one host")
		}
		for i, host := range c.Static.Hosts {
			if host.Address == "" {
				return NewConfigError("static host #%d has no address", i)
			}
			if len(host.Roles) == 0 {
				return NewConfigError("static host %q has no role", host.Address)
			}
		}
		return nil
	}

	g := c.G5k
	if g.JobName == "" {
		return NewConfigError("g5k.job_name is required")
	}
	if g.EnvName == "" {
		return NewConfigError("g5k.env_name is required")
	}
	if !walltimeRegexp.MatchString(g.Walltime) {
		return NewConfigError("g5k.walltime %q is not in HH:MM:SS format", g.Walltime)
	}
	if len(g.Resources.Machines) == 0 {
		return NewConfigError("g5k.resources.machines is empty")
	}

	networks := map[string]bool{}
	for _, network := range g.Resources.Networks {
		if network.ID == "" {
			return NewConfigError("network without id")
		}
		if networks[network.ID] {
			return NewConfigError("network %q is defined twice", network.ID)
		}
		networks[network.ID] = true
	}

	for i, machine := range g.Resources.Machines {
		if machine.Cluster == "" {
			return NewConfigError("machine group #%d has no cluster", i)
		}
		if machine.Nodes < 1 {
			return NewConfigError("machine group #%d needs at least one node, got %d", i, machine.Nodes)
		}
		if len(machine.Roles) == 0 {
			return NewConfigError("machine group #%d has no role", i)
		}
		for _, id := range append([]string{machine.PrimaryNetwork}, machine.SecondaryNetworks...) {
			if !networks[id] {
				return NewConfigError("machine group #%d references unknown network %q", i, id)
			}
		}
	}
	return nil
}

// Clone returns a deep copy so that sweeps can tweak their copy freely.
func (c Config) Clone() Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(errors.Wrap(err, "cannot marshal configuration"))
	}
	clone := Config{}
	if err := yaml.Unmarshal(data, &clone); err != nil {
		panic(errors.Wrap(err, "cannot unmarshal configuration"))
	}
	return clone
}

// WithNodes returns a copy where machine group i gets the given node count.
func (c Config) WithNodes(i int, nodes int) (Config, error) {
	clone := c.Clone()
	if i < 0 || i >= len(clone.G5k.Resources.Machines) {
		return Config{}, NewConfigError("there is no machine group #%d", i)
	}
	clone.G5k.Resources.Machines[i].Nodes = nodes
	return clone, nil
}

var tcTimeRegexp = regexp.MustCompile(`^(\d+(?:\.\d+)?)(us|ms|s)?$`)

// ParseMs parses a tc time value like "150ms", "1.5s" or "2000us" to milliseconds.
// A value without unit is in milliseconds. Values that are not a whole number of
// milliseconds are refused since latencies are recorded in milliseconds.
func ParseMs(value string) (int, error) {
	match := tcTimeRegexp.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return 0, NewConfigError("%q is not a delay", value)
	}
	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, NewConfigError("%q is not a delay", value)
	}
	ms := amount
	switch match[2] {
	case "us":
		ms = amount / 1000
	case "s":
		ms = amount * 1000
	}
	if ms != math.Trunc(ms) {
		return 0, NewConfigError("%q is not a whole number of milliseconds", value)
	}
	return int(ms), nil
}
