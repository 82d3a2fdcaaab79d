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

package command

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

// Remote command is responsible for providing the execution environment
// on remote machine via ssh.
type Remote struct {
	clientConfig *ssh.ClientConfig
	address      string
	client       *ssh.Client
	session      *ssh.Session
	exitCode     int
}

// NewRemote returns a Remote instance connecting to address ("host:port").
func NewRemote(clientConfig *ssh.ClientConfig, address string) *Remote {
	return &Remote{
		clientConfig: clientConfig,
		address:      address,
	}
}

// Start runs the command given as input.
func (r *Remote) Start(command string, stdout io.Writer, stderr io.Writer) error {
	client, err := ssh.Dial("tcp", r.address, r.clientConfig)
	if err != nil {
		return errors.Wrapf(err, "cannot connect to %q", r.address)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return errors.Wrapf(err, "cannot open session on %q", r.address)
	}

	session.Stdout = stdout
	session.Stderr = stderr

	if err := session.Start(command); err != nil {
		session.Close()
		client.Close()
		return errors.Wrapf(err, "cannot start %q on %q", command, r.address)
	}

	r.client = client
	r.session = session
	return nil
}

// Wait waits synchronously for task.
func (r *Remote) Wait() error {
	defer r.client.Close()

	err := r.session.Wait()
	if err == nil {
		r.exitCode = 0
		return nil
	}

	exitErr, ok := err.(*ssh.ExitError)
	if !ok {
		return err
	}

	r.exitCode = exitErr.ExitStatus()
	return nil
}

// ExitCode returns ExitCode. It is only allowed to use this method when
// task is terminated.
func (r *Remote) ExitCode() int {
	return r.exitCode
}

// Kill sends SIGKILL signal to task and closes the session.
func (r *Remote) Kill() error {
	signalErr := r.session.Signal(ssh.SIGKILL)
	closeErr := r.session.Close()
	if signalErr != nil {
		return signalErr
	}
	if closeErr != nil && closeErr != io.EOF {
		return closeErr
	}
	return nil
}
