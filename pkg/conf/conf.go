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

// conf is a helper for juice configuration for both command line interface
// and environment variables.
// It gives ability to register arguments which will be fetched from
// CLI input OR environment variable.
// By default it registers following options:
// <JUICE_LOG> --log <Log level for juice: debug, info, warn, error, fatal, panic> Default: info
//
// When `ParseEnv` is executed, only the environment arguments are parsed and
// ready to be used in `promises` variables.
// `ParseEnv` can be run multiple times.
//
// When `ParseFlags` is executed, the arguments from both CLI and Env are parsed.
// In case of --help option - it prints help.

package conf

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

// EnvironmentPrefix is prepended to every flag name to get its environment variable.
const EnvironmentPrefix = "JUICE_"

var (
	app = kingpin.New("juice", "No help available")
	// Default flags and values.
	logLevelFlag = NewStringFlag(
		"log",
		"Log level for juice: debug, info, warn, error, fatal, panic",
		"info",
	)
	isEnvParsed = false
)

// SetHelpPath sets the help message for CLI rendering the file from given file.
func SetHelpPath(readmePath string) {
	readmeData, err := ioutil.ReadFile(readmePath)
	if err != nil {
		panic(errors.Wrapf(err, "reading %s failed", readmePath))
	}
	app.Help = string(readmeData)
}

// SetHelp sets the help message for the CLI.
func SetHelp(help string) {
	app.Help = help
}

// SetAppName sets application name for CLI output.
func SetAppName(name string) {
	app.Name = name
}

// AppName returns specified app name.
func AppName() string {
	return app.Name
}

// LogLevel returns configured logLevel from input option or env variable.
// If it cannot parse the log level, it returns default value.
func LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(logLevelFlag.Value())
	if err == nil {
		return level
	}

	level, err = logrus.ParseLevel(logLevelFlag.defaultValue)
	if err == nil {
		return level
	}

	// Programmer error.
	panic(errors.Wrap(err, "parsing log level failed"))
}

// ParseFlags parse both the command line flags of the process and
// environment variables.
func ParseFlags() error {
	resetFlags()
	_, err := app.Parse(os.Args[1:])
	if err == nil {
		isEnvParsed = true
		return nil
	}

	return errors.Wrapf(err, "could not parse command line flags")
}

// ParseEnv parse the environment for arguments.
func ParseEnv() error {
	resetFlags()
	_, err := app.Parse([]string{})
	if err == nil {
		isEnvParsed = true
		return nil
	}

	return errors.Wrapf(err, "could not parse environment flags")
}

// Usage writes the usage of the application (or of the selected command) to stderr.
func Usage(args []string) {
	app.Usage(args)
}

type flagDefinition struct {
	Name, Value, Default, Help string
}

// getFlagsDefinition returns current, default, keys and description for every flag
// registered through this package, in definition order.
func getFlagsDefinition() (flags []flagDefinition) {
	for _, model := range app.Model().Flags {
		flag, ok := definedFlags[model.Name]
		if !ok {
			// Builtin kingpin flags like help are not environment based.
			continue
		}

		flags = append(flags, flagDefinition{
			Name:    model.Name,
			Help:    model.Help,
			Default: strings.Join(model.Default, ","),
			Value:   flag.current(),
		})
	}
	return flags
}

// DumpConfig dumps environment based configuration with current values of flags.
func DumpConfig() string {
	return DumpConfigMap(nil)
}

// DumpConfigMap dumps environment based configuration with current values overwritten by given flagMap.
// Includes "allexport" directives for bash.
func DumpConfigMap(flagMap map[string]string) string {
	buffer := &bytes.Buffer{}

	buffer.WriteString("# Export are values.\n")
	buffer.WriteString("set -o allexport\n")

	for _, fd := range getFlagsDefinition() {
		fmt.Fprintf(buffer, "\n# %s\n", fd.Help)
		if fd.Default != "" {
			fmt.Fprintf(buffer, "# Default: %s\n", fd.Default)
		}

		value := fd.Value
		if mapValue, ok := flagMap[fd.Name]; ok {
			value = mapValue
		}

		fmt.Fprintf(buffer, "%s%s=%v\n", EnvironmentPrefix, strings.ToUpper(fd.Name), value)
	}

	buffer.WriteString("set +o allexport")
	return buffer.String()
}

// GetFlags returns flags as map with current values.
func GetFlags() map[string]string {
	flagsMap := map[string]string{}
	for _, flag := range getFlagsDefinition() {
		flagsMap[flag.Name] = flag.Value
	}
	return flagsMap
}
