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

package common

import (
	"github.com/Marie-Donnie/juice/pkg/deployment"
)

// Reference testbed of the keystone experiments.
const (
	DefaultCluster = "ecotype"
	DefaultSite    = "nantes"
	DefaultEnvName = "debian9-x64-nfs"
)

// DatabaseRoles are the roles of the database nodes.
var DatabaseRoles = []string{"chrony", "database", "sysbench", "openstack", "rally"}

// ControlRoles are the roles of the extra node hosting the registry.
var ControlRoles = []string{"registry", "control"}

// Resources sizes the reference deployment.
type Resources struct {
	JobName     string
	Walltime    string
	Reservation string
	Queue       string
	Cluster     string
	Site        string
	// DBNodes is the number of database nodes.
	DBNodes int
}

func (r Resources) withDefaults() Resources {
	if r.Cluster == "" {
		r.Cluster = DefaultCluster
	}
	if r.Site == "" {
		r.Site = DefaultSite
	}
	return r
}

func registry() deployment.Registry {
	return deployment.Registry{
		Type:        "internal",
		Ceph:        true,
		CephID:      "discovery",
		CephKeyring: "/home/discovery/.ceph/ceph.client.discovery.keyring",
		CephMonHost: []string{
			"ceph0.rennes.grid5000.fr",
			"ceph1.rennes.grid5000.fr",
			"ceph2.rennes.grid5000.fr",
		},
		CephRbd: "discovery_kolla_registry/datas",
	}
}

// KeystoneConfig is the reference deployment: database nodes on a kavlan for the database
// traffic plus one control node, with network emulation restricted to database nodes.
func KeystoneConfig(r Resources) deployment.Config {
	r = r.withDefaults()
	return deployment.Config{
		EnableMonitoring: true,
		G5k: deployment.G5k{
			DHCP:        true,
			EnvName:     DefaultEnvName,
			JobName:     r.JobName,
			Queue:       r.Queue,
			Walltime:    r.Walltime,
			Reservation: r.Reservation,
			Resources: deployment.Resources{
				Machines: []deployment.Machine{
					{
						Cluster:           r.Cluster,
						Nodes:             r.DBNodes,
						Roles:             DatabaseRoles,
						PrimaryNetwork:    "n1",
						SecondaryNetworks: []string{"n2"},
					},
					{
						Cluster:        r.Cluster,
						Nodes:          1,
						Roles:          ControlRoles,
						PrimaryNetwork: "n1",
					},
				},
				Networks: []deployment.Network{
					{ID: "n1", Type: "prod", Site: r.Site, Roles: []string{"control_network"}},
					{ID: "n2", Type: "kavlan", Site: r.Site, Roles: []string{"database_network"}},
				},
			},
		},
		Registry: registry(),
		TC: deployment.TC{
			Enable:       true,
			DefaultDelay: "0ms",
			DefaultRate:  "10gbit",
			Constraints: []deployment.Constraint{{
				Src:     "database",
				Dst:     "database",
				Delay:   "0ms",
				Rate:    "10gbit",
				Loss:    0,
				Network: "database_network",
			}},
			Groups: []string{"database"},
		},
	}
}

// SingleNodeConfig puts every role on one node of the production network.
func SingleNodeConfig(r Resources) deployment.Config {
	r = r.withDefaults()
	config := KeystoneConfig(r)
	config.Registry.Type = "none"
	config.G5k.Resources = deployment.Resources{
		Machines: []deployment.Machine{{
			Cluster:        r.Cluster,
			Nodes:          1,
			Roles:          append(append([]string{}, DatabaseRoles...), ControlRoles...),
			PrimaryNetwork: "n1",
		}},
		Networks: []deployment.Network{
			{ID: "n1", Type: "prod", Site: r.Site, Roles: []string{"control_network", "database_network"}},
		},
	}
	config.TC = deployment.DefaultTC()
	return config
}
