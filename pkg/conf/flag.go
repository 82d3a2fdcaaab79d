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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"
)

// flagType is implemented by every flag of the package.
type flagType interface {
	// envName is the environment variable the flag is read from.
	envName() string
	// clear unsets the environment variable.
	clear()
	// current serializes the value.
	current() string
	// reset forgets what a previous parse accumulated.
	reset()
}

// definedFlags holds every flag by name.
var definedFlags = map[string]flagType{}

// cliAndEnvFlag is a kingpin flag whose value may come from JUICE_<NAME> as well.
type cliAndEnvFlag struct {
	*kingpin.FlagClause
}

func newCliAndEnvFlag(flagName string, description string, defaultValue string) *cliAndEnvFlag {
	if definedFlags[flagName] != nil {
		panic(fmt.Sprintf("flag %q was already defined", flagName))
	}

	c := &cliAndEnvFlag{FlagClause: app.Flag(flagName, description)}
	c.OverrideDefaultFromEnvar(c.envName())
	if defaultValue != "" {
		c.Default(defaultValue)
	}
	return c
}

// envName turns "cassandra_address" into "JUICE_CASSANDRA_ADDRESS".
func (f *cliAndEnvFlag) envName() string {
	return EnvironmentPrefix + strings.ToUpper(f.Model().Name)
}

func (f *cliAndEnvFlag) clear() {
	os.Unsetenv(f.envName())
}

func (f *cliAndEnvFlag) reset() {}

// resetFlags prepares registered flags for another parse.
func resetFlags() {
	for _, flag := range definedFlags {
		flag.reset()
	}
}

// typedFlag keeps the parsed value of a flag and its default, returned until flags are parsed.
type typedFlag[T any] struct {
	*cliAndEnvFlag
	defaultValue T
	value        *T
	format       func(T) string
}

// Value returns the parsed value, or the default when flags were not parsed yet.
func (f *typedFlag[T]) Value() T {
	if !isEnvParsed {
		return f.defaultValue
	}
	return *f.value
}

func (f *typedFlag[T]) current() string {
	return f.format(f.Value())
}

// define returns the flag already registered under flagName when it has the same type and
// default, or registers the one built by create.
func define[F flagType](flagName string, sameDefault func(F) bool, create func() F) F {
	if duplicated := definedFlags[flagName]; duplicated != nil {
		flagDef, ok := duplicated.(F)
		if !ok {
			panic(fmt.Sprintf("flag %q was redefined with a different type", flagName))
		}
		if !sameDefault(flagDef) {
			panic(fmt.Sprintf("flag %q was redefined with a different default value", flagName))
		}
		return flagDef
	}

	flagDef := create()
	definedFlags[flagName] = flagDef
	isEnvParsed = false
	return flagDef
}

// StringFlag is a flag with a string value.
type StringFlag struct{ typedFlag[string] }

// NewStringFlag defines a string flag.
func NewStringFlag(flagName string, description string, defaultValue string) *StringFlag {
	return define(flagName,
		func(f *StringFlag) bool { return f.defaultValue == defaultValue },
		func() *StringFlag {
			c := newCliAndEnvFlag(flagName, description, defaultValue)
			return &StringFlag{typedFlag[string]{c, defaultValue, c.String(), func(v string) string { return v }}}
		})
}

// IntFlag is a flag with an int value.
type IntFlag struct{ typedFlag[int] }

// NewIntFlag defines an int flag.
func NewIntFlag(flagName string, description string, defaultValue int) *IntFlag {
	return define(flagName,
		func(f *IntFlag) bool { return f.defaultValue == defaultValue },
		func() *IntFlag {
			c := newCliAndEnvFlag(flagName, description, strconv.Itoa(defaultValue))
			return &IntFlag{typedFlag[int]{c, defaultValue, c.Int(), strconv.Itoa}}
		})
}

// BoolFlag is a flag with a bool value.
type BoolFlag struct{ typedFlag[bool] }

// NewBoolFlag defines a bool flag.
func NewBoolFlag(flagName string, description string, defaultValue bool) *BoolFlag {
	return define(flagName,
		func(f *BoolFlag) bool { return f.defaultValue == defaultValue },
		func() *BoolFlag {
			c := newCliAndEnvFlag(flagName, description, strconv.FormatBool(defaultValue))
			return &BoolFlag{typedFlag[bool]{c, defaultValue, c.Bool(), strconv.FormatBool}}
		})
}

// DurationFlag is a flag with a duration value like "30s".
type DurationFlag struct{ typedFlag[time.Duration] }

// NewDurationFlag defines a duration flag.
func NewDurationFlag(flagName string, description string, defaultValue time.Duration) *DurationFlag {
	return define(flagName,
		func(f *DurationFlag) bool { return f.defaultValue == defaultValue },
		func() *DurationFlag {
			c := newCliAndEnvFlag(flagName, description, defaultValue.String())
			return &DurationFlag{typedFlag[time.Duration]{c, defaultValue, c.Duration(), time.Duration.String}}
		})
}

// SliceFlag is a repeatable flag whose values may also be comma separated.
type SliceFlag struct{ typedFlag[[]string] }

func joinList(values []string) string {
	return strings.Join(values, stringListDelimiter)
}

// NewSliceFlag defines a slice flag.
func NewSliceFlag(flagName string, description string, elemsInDefaultSlice ...string) *SliceFlag {
	return define(flagName,
		func(f *SliceFlag) bool { return joinList(f.defaultValue) == joinList(elemsInDefaultSlice) },
		func() *SliceFlag {
			c := newCliAndEnvFlag(flagName, description, joinList(elemsInDefaultSlice))
			return &SliceFlag{typedFlag[[]string]{c, elemsInDefaultSlice, StringList(c), joinList}}
		})
}

// Value returns a copy of the parsed values, or of the default when flags were not parsed yet.
func (s *SliceFlag) Value() []string {
	return append([]string{}, s.typedFlag.Value()...)
}

// reset drops values appended by a previous parse, kingpin only appends to cumulative flags.
func (s *SliceFlag) reset() {
	*s.value = (*s.value)[:0]
}
