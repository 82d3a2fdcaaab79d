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

package netem

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Marie-Donnie/juice/pkg/provider"
	"github.com/Marie-Donnie/juice/pkg/utils/err_collection"
	"github.com/alessio/shellescape"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PingCount is the number of echo requests per measurement.
const PingCount = 5

var rttRegexp = regexp.MustCompile(`(?m)^(?:rtt|round-trip) min/avg/max/(?:mdev|stddev) = ([\d.]+)/([\d.]+)/([\d.]+)/([\d.]+) ms`)

// Measurement is the round trip time between two hosts in milliseconds.
type Measurement struct {
	Src string  `yaml:"src" json:"src"`
	Dst string  `yaml:"dst" json:"dst"`
	Min float64 `yaml:"min" json:"min"`
	Avg float64 `yaml:"avg" json:"avg"`
	Max float64 `yaml:"max" json:"max"`
}

// ParsePing extracts round trip times from the summary of ping.
func ParsePing(output string) (min, avg, max float64, err error) {
	match := rttRegexp.FindStringSubmatch(output)
	if match == nil {
		return 0, 0, 0, errors.Errorf("no round trip summary in ping output %q", output)
	}
	values := make([]float64, 3)
	for i := range values {
		values[i], err = strconv.ParseFloat(match[i+1], 64)
		if err != nil {
			return 0, 0, 0, errors.Wrapf(err, "cannot parse %q", match[i+1])
		}
	}
	return values[0], values[1], values[2], nil
}

// Validate pings every host of the given roles (every role when none given) from every other one.
// Measurements which failed are left out and reported in the returned error.
func (e *Emulator) Validate(roles provider.Roles, groups ...string) ([]Measurement, error) {
	hosts := roles.Hosts(groups...)
	errs := errcollection.ErrorCollection{}
	measurements := []Measurement{}

	for _, src := range hosts {
		exec, err := e.newExecutor(src)
		if err != nil {
			errs.Add(errors.Wrapf(err, "cannot reach %s", src.Address))
			continue
		}
		for _, dst := range hosts {
			if dst.Address == src.Address {
				continue
			}
			output, err := e.run(exec, fmt.Sprintf("ping -c %d -q %s", PingCount, shellescape.Quote(dst.Address)))
			if err != nil {
				errs.Add(errors.Wrapf(err, "ping from %s to %s failed", src.Address, dst.Address))
				continue
			}
			min, avg, max, err := ParsePing(output)
			if err != nil {
				errs.Add(err)
				continue
			}
			logrus.Infof("RTT %s -> %s: %.3f ms", src.Address, dst.Address, avg)
			measurements = append(measurements, Measurement{Src: src.Address, Dst: dst.Address, Min: min, Avg: avg, Max: max})
		}
	}
	return measurements, errs.GetErrIfAny()
}
