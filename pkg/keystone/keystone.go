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

// Package keystone checks that a deployed Keystone answers authentication requests.
package keystone

import (
	"fmt"
	"time"

	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	portFlag     = conf.NewIntFlag("keystone_port", "Port of the Keystone public endpoint", 5000)
	userFlag     = conf.NewStringFlag("keystone_user", "User authenticating against Keystone after its deployment", "admin")
	passwordFlag = conf.NewStringFlag("keystone_password", "Password of keystone_user", "demo")
	projectFlag  = conf.NewStringFlag("keystone_project", "Project the Keystone token is scoped to", "admin")
	domainFlag   = conf.NewStringFlag("keystone_domain", "Domain of keystone_user and keystone_project", "Default")
)

// Config of a Checker. Auth.IdentityEndpoint is filled per host.
type Config struct {
	Port int
	Auth gophercloud.AuthOptions
}

// DefaultConfig returns the configuration given on the command line.
func DefaultConfig() Config {
	return Config{
		Port: portFlag.Value(),
		Auth: gophercloud.AuthOptions{
			Username:   userFlag.Value(),
			Password:   passwordFlag.Value(),
			TenantName: projectFlag.Value(),
			DomainName: domainFlag.Value(),
		},
	}
}

// Checker authenticates against the Keystone of a host.
type Checker struct {
	config       Config
	authenticate func(gophercloud.AuthOptions) (*gophercloud.ProviderClient, error)
}

// NewChecker returns a Checker using config.
func NewChecker(config Config) *Checker {
	return &Checker{config: config, authenticate: openstack.AuthenticatedClient}
}

// Endpoint is the identity v3 endpoint of host.
func (c *Checker) Endpoint(host string) string {
	return fmt.Sprintf("http://%s:%d/v3", host, c.config.Port)
}

// Check asks the Keystone running on host for a token.
func (c *Checker) Check(host string) error {
	opts := c.config.Auth
	opts.IdentityEndpoint = c.Endpoint(host)
	opts.AllowReauth = false

	started := time.Now()
	client, err := c.authenticate(opts)
	if err != nil {
		return errors.Wrapf(err, "keystone at %s refused authentication", opts.IdentityEndpoint)
	}
	if client.Token() == "" {
		return errors.Errorf("keystone at %s returned no token", opts.IdentityEndpoint)
	}
	logrus.WithFields(logrus.Fields{
		"endpoint": opts.IdentityEndpoint,
		"user":     opts.Username,
		"elapsed":  time.Since(started),
	}).Info("Keystone answered")
	return nil
}
