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

package conf

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

// Command is one entry of a static command table.
type Command struct {
	Name    string
	Help    string
	Aliases []string
	// Flags declares command scoped options on the clause. Optional.
	Flags func(cmd *kingpin.CmdClause)
	// Handler runs once the command line was parsed.
	Handler func() error
}

// CommandTable maps command names to their option schema and handler.
type CommandTable []Command

// UsageError is returned when the command line does not select a known command or
// its options are wrong.
type UsageError struct {
	cause error
}

func (e UsageError) Error() string {
	return e.cause.Error()
}

// IsUsageError tells whether err (or its cause) is a UsageError.
func IsUsageError(err error) bool {
	_, ok := errors.Cause(err).(UsageError)
	return ok
}

// Validate checks the table: every command needs a unique name (aliases included) and a handler.
func (t CommandTable) Validate() error {
	seen := map[string]bool{}
	for i, cmd := range t {
		if cmd.Name == "" {
			return errors.Errorf("command #%d has no name", i)
		}
		if cmd.Handler == nil {
			return errors.Errorf("command %q has no handler", cmd.Name)
		}
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			if seen[name] {
				return errors.Errorf("command name %q is defined twice", name)
			}
			seen[name] = true
		}
	}
	return nil
}

// Dispatch validates the table, registers it in the application, parses args (flags from
// environment included) and runs the handler of the selected command.
func (t CommandTable) Dispatch(args []string) error {
	resetFlags()
	return t.dispatch(app, args, func() {
		isEnvParsed = true
		logrus.SetLevel(LogLevel())
	})
}

func (t CommandTable) dispatch(application *kingpin.Application, args []string, parsed func()) error {
	if err := t.Validate(); err != nil {
		return err
	}

	handlers := map[string]func() error{}
	for _, cmd := range t {
		clause := application.Command(cmd.Name, cmd.Help)
		for _, alias := range cmd.Aliases {
			clause.Alias(alias)
		}
		if cmd.Flags != nil {
			cmd.Flags(clause)
		}
		handlers[cmd.Name] = cmd.Handler
	}

	selected, err := application.Parse(args)
	if err != nil {
		return UsageError{cause: err}
	}
	if parsed != nil {
		parsed()
	}

	handler, ok := handlers[selected]
	if !ok {
		return UsageError{cause: errors.Errorf("%q is not a %s command", selected, application.Name)}
	}

	logrus.Debugf("running command %q", selected)
	return handler()
}
