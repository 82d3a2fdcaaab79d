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
	"regexp"

	"github.com/pkg/errors"
)

// TC is the network emulation configuration.
type TC struct {
	Enable       bool         `yaml:"enable" json:"enable"`
	DefaultDelay string       `yaml:"default_delay" json:"default_delay"`
	DefaultRate  string       `yaml:"default_rate" json:"default_rate"`
	Constraints  []Constraint `yaml:"constraints" json:"constraints"`
	// Groups restricts emulation to the given roles. Empty means every role.
	Groups []string `yaml:"groups,omitempty" json:"groups,omitempty"`
}

// Constraint applies delay, rate and loss on traffic from hosts of role Src to hosts of role Dst.
type Constraint struct {
	Src   string  `yaml:"src" json:"src"`
	Dst   string  `yaml:"dst" json:"dst"`
	Delay string  `yaml:"delay" json:"delay"`
	Rate  string  `yaml:"rate" json:"rate"`
	Loss  float64 `yaml:"loss" json:"loss"`
	// Network is the network role whose interface carries the traffic. Empty means the default interface.
	Network string `yaml:"network,omitempty" json:"network,omitempty"`
}

var rateRegexp = regexp.MustCompile(`^\d+(\.\d+)?(bit|kbit|mbit|gbit|tbit|bps|kbps|mbps|gbps)$`)

// DefaultTC is the emulation applied by the emulate command: 200ms between database nodes.
func DefaultTC() TC {
	return TC{
		Enable:       true,
		DefaultDelay: "0ms",
		DefaultRate:  "10gbit",
		Constraints: []Constraint{{
			Src:   "database",
			Dst:   "database",
			Delay: "200ms",
			Rate:  "10gbit",
			Loss:  0,
		}},
	}
}

// Validate checks tc units.
func (t TC) Validate() error {
	if !t.Enable {
		return nil
	}
	if t.DefaultDelay != "" {
		if _, err := ParseMs(t.DefaultDelay); err != nil {
			return errors.Wrap(err, "tc.default_delay")
		}
	}
	if t.DefaultRate != "" && !rateRegexp.MatchString(t.DefaultRate) {
		return NewConfigError("tc.default_rate %q is not a valid rate", t.DefaultRate)
	}
	for i, c := range t.Constraints {
		if c.Src == "" || c.Dst == "" {
			return NewConfigError("tc constraint #%d needs src and dst", i)
		}
		if c.Delay != "" {
			if _, err := ParseMs(c.Delay); err != nil {
				return errors.Wrapf(err, "tc constraint #%d delay", i)
			}
		}
		if c.Rate != "" && !rateRegexp.MatchString(c.Rate) {
			return NewConfigError("tc constraint #%d rate %q is not a valid rate", i, c.Rate)
		}
		if c.Loss < 0 || c.Loss > 100 {
			return NewConfigError("tc constraint #%d loss %v is not a percentage", i, c.Loss)
		}
	}
	return nil
}

// WithDelay returns a copy where every constraint uses the given delay in milliseconds.
func (t TC) WithDelay(ms int) TC {
	clone := t
	clone.Constraints = append([]Constraint{}, t.Constraints...)
	clone.Groups = append([]string{}, t.Groups...)
	for i := range clone.Constraints {
		clone.Constraints[i].Delay = fmt.Sprintf("%dms", ms)
	}
	return clone
}

// DelayMs returns the delay of the first constraint in milliseconds, the latency stored in environments.
func (t TC) DelayMs() (int, error) {
	if len(t.Constraints) == 0 {
		return ParseMs(t.DefaultDelay)
	}
	return ParseMs(t.Constraints[0].Delay)
}
