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
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError reports a missing or invalid configuration: bad configuration file,
// unsupported database or output format.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigError builds a ConfigError with formatted reason.
func NewConfigError(format string, args ...interface{}) error {
	return errors.WithStack(ConfigError{Reason: fmt.Sprintf(format, args...)})
}

// IsConfigError tells whether err (or its cause) is a ConfigError.
func IsConfigError(err error) bool {
	_, ok := errors.Cause(err).(ConfigError)
	return ok
}
