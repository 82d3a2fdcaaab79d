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
	"sort"
	"strings"

	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/executor"
	"github.com/Marie-Donnie/juice/pkg/provider"
	"github.com/Marie-Donnie/juice/pkg/utils/err_collection"
	"github.com/alessio/shellescape"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultDevice is used when a host has no interface for the constraint network.
const DefaultDevice = "eth0"

// ExecutorFactory returns an executor running commands on host.
type ExecutorFactory func(host provider.Host) (executor.Executor, error)

// NewSSHExecutorFactory returns a factory connecting with the given private key
// to the port and user of each host.
func NewSSHExecutorFactory(keyPath string) ExecutorFactory {
	return func(host provider.Host) (executor.Executor, error) {
		port := host.Port
		if port == 0 {
			port = executor.DefaultSSHPort
		}
		user := host.User
		if user == "" {
			user = provider.DefaultUser
		}
		key := host.KeyPath
		if key == "" {
			key = keyPath
		}
		config, err := executor.NewSSHConfigWithKey(host.Address, port, user, key)
		if err != nil {
			return nil, err
		}
		return executor.NewRemote(config), nil
	}
}

// Emulator applies tc rules on hosts.
type Emulator struct {
	newExecutor ExecutorFactory
	// run executes a script and returns its output.
	run func(exec executor.Executor, script string) (string, error)
}

// NewEmulator returns an Emulator using given executor factory.
func NewEmulator(factory ExecutorFactory) *Emulator {
	return &Emulator{newExecutor: factory, run: executor.ReadStdout}
}

// rule shapes traffic from one host to one destination.
type rule struct {
	dst   string
	delay string
	rate  string
	loss  float64
}

// plan is what is applied on one source host.
type plan struct {
	host  provider.Host
	rules map[string][]rule
}

func inGroups(groups []string, role string) bool {
	if len(groups) == 0 {
		return true
	}
	for _, group := range groups {
		if group == role {
			return true
		}
	}
	return false
}

// plans computes per source host and device the rules of tc, in host order.
func plans(roles provider.Roles, tc deployment.TC) []*plan {
	byHost := map[string]*plan{}
	order := []string{}
	for _, constraint := range tc.Constraints {
		if !inGroups(tc.Groups, constraint.Src) || !inGroups(tc.Groups, constraint.Dst) {
			logrus.Debugf("Skipping constraint %s -> %s outside of groups %v", constraint.Src, constraint.Dst, tc.Groups)
			continue
		}
		for _, src := range roles[constraint.Src] {
			p, ok := byHost[src.Address]
			if !ok {
				p = &plan{host: src, rules: map[string][]rule{}}
				byHost[src.Address] = p
				order = append(order, src.Address)
			}
			device := DefaultDevice
			if nic, ok := src.Extra[constraint.Network]; ok && constraint.Network != "" {
				device = nic
			}
			for _, dst := range roles[constraint.Dst] {
				if dst.Address == src.Address {
					continue
				}
				p.rules[device] = append(p.rules[device], rule{
					dst:   dst.Address,
					delay: constraint.Delay,
					rate:  constraint.Rate,
					loss:  constraint.Loss,
				})
			}
		}
	}

	result := make([]*plan, 0, len(order))
	for _, address := range order {
		result = append(result, byHost[address])
	}
	return result
}

func devices(rules map[string][]rule) []string {
	names := make([]string, 0, len(rules))
	for device := range rules {
		names = append(names, device)
	}
	sort.Strings(names)
	return names
}

func resetLine(device string) string {
	return fmt.Sprintf("tc qdisc del dev %s root 2>/dev/null || true", shellescape.Quote(device))
}

// script builds the shell script resetting then shaping the devices of a plan.
func script(p *plan, tc deployment.TC) string {
	lines := []string{"set -e"}
	for _, device := range devices(p.rules) {
		dev := shellescape.Quote(device)
		lines = append(lines,
			resetLine(device),
			fmt.Sprintf("tc qdisc add dev %s root handle 1: htb default 1", dev),
			fmt.Sprintf("tc class add dev %s parent 1: classid 1:1 htb rate %s", dev, tc.DefaultRate),
			fmt.Sprintf("tc qdisc add dev %s parent 1:1 handle 10: netem delay %s", dev, tc.DefaultDelay),
		)
		for i, r := range p.rules[device] {
			class := fmt.Sprintf("1:%x", i+2)
			handle := fmt.Sprintf("%x:", i+0x11)
			rate := r.rate
			if rate == "" {
				rate = tc.DefaultRate
			}
			delay := r.delay
			if delay == "" {
				delay = tc.DefaultDelay
			}
			lines = append(lines,
				fmt.Sprintf("ip=$(getent ahostsv4 %s | awk 'NR==1{print $1}')", shellescape.Quote(r.dst)),
				fmt.Sprintf("tc class add dev %s parent 1: classid %s htb rate %s", dev, class, rate),
				fmt.Sprintf("tc qdisc add dev %s parent %s handle %s netem delay %s loss %v%%", dev, class, handle, delay, r.loss),
				fmt.Sprintf("tc filter add dev %s parent 1: protocol ip prio 1 u32 match ip dst \"$ip\"/32 flowid %s", dev, class),
			)
		}
	}
	return strings.Join(lines, "\n")
}

// Emulate resets then applies the constraints of tc on every source host.
// Hosts are handled independently, errors are gathered.
func (e *Emulator) Emulate(roles provider.Roles, tc deployment.TC) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	if !tc.Enable {
		logrus.Info("Network emulation is disabled, resetting rules")
		return e.Reset(roles, tc)
	}

	errs := errcollection.ErrorCollection{}
	for _, p := range plans(roles, tc) {
		logrus.Infof("Emulating network on %s", p.host.Address)
		errs.Add(e.runOn(p.host, script(p, tc)))
	}
	return errs.GetErrIfAny()
}

// Reset removes rules from the devices tc would shape.
func (e *Emulator) Reset(roles provider.Roles, tc deployment.TC) error {
	errs := errcollection.ErrorCollection{}
	for _, p := range plans(roles, tc) {
		lines := []string{}
		for _, device := range devices(p.rules) {
			lines = append(lines, resetLine(device))
		}
		if len(lines) == 0 {
			continue
		}
		logrus.Infof("Resetting network emulation on %s", p.host.Address)
		errs.Add(e.runOn(p.host, strings.Join(lines, "\n")))
	}
	return errs.GetErrIfAny()
}

func (e *Emulator) runOn(host provider.Host, script string) error {
	exec, err := e.newExecutor(host)
	if err != nil {
		return errors.Wrapf(err, "cannot reach %s", host.Address)
	}
	if _, err := e.run(exec, script); err != nil {
		return errors.Wrapf(err, "network emulation failed on %s", host.Address)
	}
	return nil
}
