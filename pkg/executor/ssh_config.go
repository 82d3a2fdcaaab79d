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

package executor

import (
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

const (
	// DefaultSSHPort represent default port of SSH server (22).
	DefaultSSHPort    = 22
	defaultSSHKeyPath = ".ssh/id_rsa"
)

// SSHConfig with clientConfig, host and port to connect.
type SSHConfig struct {
	ClientConfig *ssh.ClientConfig
	Host         string
	Port         int
}

// getAuthMethod which uses given key.
func getAuthMethod(keyPath string) (ssh.AuthMethod, error) {
	buffer, err := ioutil.ReadFile(keyPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read ssh key %q", keyPath)
	}

	key, err := ssh.ParsePrivateKey(buffer)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse ssh key %q", keyPath)
	}

	return ssh.PublicKeys(key), nil
}

// DefaultKeyPath returns the private key of given user (<home_dir>/.ssh/id_rsa).
func DefaultKeyPath(user *user.User) string {
	return filepath.Join(user.HomeDir, defaultSSHKeyPath)
}

// NewSSHConfig creates a new ssh config for user.
// NOTE: Assumed that private key is available in default dir (<home_dir>/.ssh/).
func NewSSHConfig(host string, port int, user *user.User) (*SSHConfig, error) {
	return NewSSHConfigWithKey(host, port, user.Username, DefaultKeyPath(user))
}

// NewSSHConfigWithKey creates a new ssh config logging in as username with the given private key.
// Testbed nodes are redeployed with fresh host keys, so host keys are not verified.
func NewSSHConfigWithKey(host string, port int, username string, keyPath string) (*SSHConfig, error) {
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		return nil, errors.Errorf("SSH key not found in %s", keyPath)
	}

	authMethod, err := getAuthMethod(keyPath)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{
			authMethod,
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	return &SSHConfig{
		ClientConfig: clientConfig,
		Host:         host,
		Port:         port,
	}, nil
}
