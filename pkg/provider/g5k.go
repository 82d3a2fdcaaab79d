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

package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/alessio/shellescape"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	kavlanNetwork = "kavlan"
	// DefaultPollInterval is the time between two job state checks.
	DefaultPollInterval = 10 * time.Second
)

var (
	jobIDRegexp    = regexp.MustCompile(`OAR_JOB_ID=(\d+)`)
	jobStateRegexp = regexp.MustCompile(`^\d+:\s*(\w+)`)
)

// G5k claims nodes on Grid'5000 with OAR and deploys them with kadeploy3.
// Commands are run on a frontend through runner.
type G5k struct {
	config       deployment.G5k
	run          Runner
	PollInterval time.Duration
	// Timeout bounds the wait for the job to start. Zero waits forever.
	Timeout time.Duration
	sleep   func(time.Duration)
}

// NewG5k returns a G5k provider.
func NewG5k(config deployment.G5k, runner Runner) *G5k {
	return &G5k{
		config:       config,
		run:          runner,
		PollInterval: DefaultPollInterval,
		sleep:        time.Sleep,
	}
}

type oarJob struct {
	Name                   string   `json:"name"`
	State                  string   `json:"state"`
	AssignedNetworkAddress []string `json:"assigned_network_address"`
}

// Init reuses the running job named after the configuration or submits a new one, waits
// for it, deploys the environment on new jobs (or when force is set) and assigns roles.
func (g *G5k) Init(force bool) (Roles, []Network, error) {
	if err := g.validate(); err != nil {
		return nil, nil, err
	}

	jobID, err := g.findJob()
	if err != nil {
		return nil, nil, err
	}

	fresh := false
	if jobID == "" {
		jobID, err = g.submit()
		if err != nil {
			return nil, nil, err
		}
		fresh = true
	} else {
		logrus.Infof("Reusing job %s named %q", jobID, g.config.JobName)
	}

	if err := g.waitRunning(jobID); err != nil {
		return nil, nil, err
	}

	nodes, err := g.nodes(jobID)
	if err != nil {
		return nil, nil, err
	}

	vlanID := ""
	if g.kavlan() != nil {
		vlanID, err = g.vlan(jobID)
		if err != nil {
			return nil, nil, err
		}
	}

	if fresh || force {
		if err := g.deploy(nodes, vlanID); err != nil {
			return nil, nil, err
		}
	}

	roles, err := g.assign(nodes)
	if err != nil {
		return nil, nil, err
	}
	return roles, g.networks(vlanID), nil
}

// Destroy deletes the job named after the configuration, if any.
func (g *G5k) Destroy() error {
	jobID, err := g.findJob()
	if err != nil {
		return err
	}
	if jobID == "" {
		logrus.Infof("No job named %q to delete", g.config.JobName)
		return nil
	}
	_, err = g.run(fmt.Sprintf("oardel %s", jobID))
	return errors.Wrapf(err, "cannot delete job %s", jobID)
}

func (g *G5k) validate() error {
	kavlans := 0
	for _, network := range g.config.Resources.Networks {
		if network.Type == kavlanNetwork {
			kavlans++
		}
	}
	if kavlans > 1 {
		return deployment.NewConfigError("only one kavlan network is supported, got %d", kavlans)
	}
	return nil
}

func (g *G5k) kavlan() *deployment.Network {
	for i, network := range g.config.Resources.Networks {
		if network.Type == kavlanNetwork {
			return &g.config.Resources.Networks[i]
		}
	}
	return nil
}

func (g *G5k) findJob() (string, error) {
	output, err := g.run("oarstat -u -J")
	if err != nil {
		return "", errors.Wrap(err, "cannot list jobs")
	}
	if strings.TrimSpace(output) == "" {
		return "", nil
	}

	jobs := map[string]oarJob{}
	if err := json.Unmarshal([]byte(output), &jobs); err != nil {
		return "", errors.Wrap(err, "cannot decode oarstat output")
	}

	ids := []string{}
	for id, job := range jobs {
		if job.Name != g.config.JobName {
			continue
		}
		switch job.State {
		case "Running", "Waiting", "Launching", "toLaunch", "Hold":
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", nil
	}
	sort.Strings(ids)
	if len(ids) > 1 {
		logrus.Warnf("Several jobs are named %q, using %s", g.config.JobName, ids[0])
	}
	return ids[0], nil
}

// ResourceRequest builds the OAR resource request of the configuration.
func (g *G5k) ResourceRequest() string {
	parts := []string{}
	for _, machine := range g.config.Resources.Machines {
		parts = append(parts, fmt.Sprintf("{cluster='%s'}/nodes=%d", machine.Cluster, machine.Nodes))
	}
	if g.kavlan() != nil {
		parts = append(parts, "{type='kavlan'}/vlan=1")
	}
	return fmt.Sprintf("%s,walltime=%s", strings.Join(parts, "+"), g.config.Walltime)
}

func (g *G5k) submit() (string, error) {
	args := []string{
		"oarsub",
		"--name", shellescape.Quote(g.config.JobName),
		"-l", shellescape.Quote(g.ResourceRequest()),
		"-t", "deploy",
	}
	if g.config.Queue != "" && g.config.Queue != "default" {
		args = append(args, "-q", shellescape.Quote(g.config.Queue))
	}
	if g.config.Reservation != "" {
		args = append(args, "-r", shellescape.Quote(g.config.Reservation))
	}
	args = append(args, shellescape.Quote("sleep infinity"))

	output, err := g.run(strings.Join(args, " "))
	if err != nil {
		return "", errors.Wrap(err, "cannot submit job")
	}
	match := jobIDRegexp.FindStringSubmatch(output)
	if match == nil {
		return "", errors.Errorf("cannot find job id in oarsub output %q", output)
	}
	logrus.Infof("Submitted job %s named %q", match[1], g.config.JobName)
	return match[1], nil
}

func (g *G5k) waitRunning(jobID string) error {
	started := time.Now()
	for {
		output, err := g.run(fmt.Sprintf("oarstat -s -j %s", jobID))
		if err != nil {
			return errors.Wrapf(err, "cannot get state of job %s", jobID)
		}
		match := jobStateRegexp.FindStringSubmatch(strings.TrimSpace(output))
		if match == nil {
			return errors.Errorf("cannot parse state of job %s from %q", jobID, output)
		}

		switch match[1] {
		case "Running":
			return nil
		case "Error", "Terminated", "Finishing":
			return errors.Errorf("job %s is in state %s", jobID, match[1])
		}

		if g.Timeout > 0 && time.Since(started) > g.Timeout {
			return errors.Errorf("job %s did not start within %s", jobID, g.Timeout)
		}
		logrus.Debugf("Job %s is %s, waiting", jobID, match[1])
		g.sleep(g.PollInterval)
	}
}

func (g *G5k) nodes(jobID string) ([]string, error) {
	output, err := g.run(fmt.Sprintf("oarstat -f -j %s -J", jobID))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot get nodes of job %s", jobID)
	}
	jobs := map[string]oarJob{}
	if err := json.Unmarshal([]byte(output), &jobs); err != nil {
		return nil, errors.Wrap(err, "cannot decode oarstat output")
	}
	job, ok := jobs[jobID]
	if !ok {
		return nil, errors.Errorf("job %s not found in oarstat output", jobID)
	}
	nodes := append([]string{}, job.AssignedNetworkAddress...)
	sort.Strings(nodes)
	return nodes, nil
}

func (g *G5k) vlan(jobID string) (string, error) {
	output, err := g.run(fmt.Sprintf("kavlan -V -j %s", jobID))
	if err != nil {
		return "", errors.Wrapf(err, "cannot get vlan of job %s", jobID)
	}
	vlan := strings.TrimSpace(output)
	if vlan == "" {
		return "", errors.Errorf("job %s has no vlan", jobID)
	}
	return vlan, nil
}

func (g *G5k) deploy(nodes []string, vlanID string) error {
	args := []string{"kadeploy3", "-e", shellescape.Quote(g.config.EnvName), "-k"}
	for _, node := range nodes {
		args = append(args, "-m", shellescape.Quote(node))
	}
	if vlanID != "" {
		args = append(args, "--vlan", vlanID)
	}
	logrus.Infof("Deploying %s on %d nodes", g.config.EnvName, len(nodes))
	_, err := g.run(strings.Join(args, " "))
	return errors.Wrap(err, "deployment failed")
}

// clusterOf returns the cluster name of a node like "ecotype-12.nantes.grid5000.fr".
func clusterOf(node string) string {
	name := strings.SplitN(node, ".", 2)[0]
	if i := strings.LastIndex(name, "-"); i > 0 {
		return name[:i]
	}
	return name
}

// assign gives nodes to machine groups in configuration order, matching clusters.
func (g *G5k) assign(nodes []string) (Roles, error) {
	used := map[string]bool{}
	roles := Roles{}
	for i, machine := range g.config.Resources.Machines {
		extra := g.nics(machine)
		taken := 0
		for _, node := range nodes {
			if taken == machine.Nodes {
				break
			}
			if used[node] || clusterOf(node) != machine.Cluster {
				continue
			}
			used[node] = true
			taken++

			host := Host{Address: node, User: DefaultUser, Extra: map[string]string{}}
			for k, v := range extra {
				host.Extra[k] = v
			}
			for _, role := range machine.Roles {
				roles[role] = append(roles[role], host)
			}
		}
		if taken < machine.Nodes {
			return nil, errors.Errorf("machine group #%d needs %d nodes of %s, got %d", i, machine.Nodes, machine.Cluster, taken)
		}
	}
	return roles, nil
}

// nics maps network roles to interfaces: the primary network on eth0, secondary ones on eth1 and next.
func (g *G5k) nics(machine deployment.Machine) map[string]string {
	byID := map[string]deployment.Network{}
	for _, network := range g.config.Resources.Networks {
		byID[network.ID] = network
	}
	extra := map[string]string{}
	for index, id := range append([]string{machine.PrimaryNetwork}, machine.SecondaryNetworks...) {
		for _, role := range byID[id].Roles {
			extra[role] = fmt.Sprintf("eth%d", index)
		}
	}
	return extra
}

func (g *G5k) networks(vlanID string) []Network {
	networks := []Network{}
	for _, n := range g.config.Resources.Networks {
		network := Network{
			ID:    n.ID,
			Type:  n.Type,
			Site:  n.Site,
			Roles: append([]string{}, n.Roles...),
		}
		if n.Type == kavlanNetwork {
			network.VlanID = vlanID
		}
		networks = append(networks, network)
	}
	return networks
}
