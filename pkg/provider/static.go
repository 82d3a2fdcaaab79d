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
	"github.com/Marie-Donnie/juice/pkg/deployment"
)

// Static provides hosts listed in the configuration. Nothing is claimed nor released.
type Static struct {
	config deployment.Static
}

// NewStatic returns a Static provider.
func NewStatic(config deployment.Static) *Static {
	return &Static{config: config}
}

// Init returns roles built from the listed hosts.
func (s *Static) Init(force bool) (Roles, []Network, error) {
	roles := Roles{}
	for _, h := range s.config.Hosts {
		host := Host{
			Address: h.Address,
			User:    h.User,
			Port:    h.Port,
			KeyPath: h.KeyPath,
			Extra:   map[string]string{},
		}
		if host.User == "" {
			host.User = DefaultUser
		}
		for networkRole, nic := range h.Nics {
			host.Extra[networkRole] = nic
		}
		for _, role := range h.Roles {
			roles[role] = append(roles[role], host)
		}
	}

	networks := []Network{}
	for _, n := range s.config.Networks {
		networks = append(networks, Network{
			ID:    n.ID,
			Type:  n.Type,
			Site:  n.Site,
			Roles: append([]string{}, n.Roles...),
		})
	}
	return roles, networks, nil
}

// Destroy does nothing.
func (s *Static) Destroy() error {
	return nil
}
