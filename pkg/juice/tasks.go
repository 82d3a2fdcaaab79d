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

package juice

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Marie-Donnie/juice/pkg/ansible"
	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/environment"
	"github.com/Marie-Donnie/juice/pkg/utils/errutil"
	"github.com/Marie-Donnie/juice/pkg/visualization"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Names of the tasks, as recorded in the environment history.
const (
	TaskG5k       = "g5k"
	TaskInventory = "inventory"
	TaskPrepare   = "prepare"
	TaskStress    = "stress"
	TaskOpenstack = "openstack"
	TaskRally     = "rally"
	TaskEmulate   = "emulate"
	TaskValidate  = "validate"
	TaskBackup    = "backup"
	TaskDestroy   = "destroy"
	TaskRelease   = "release"
)

// InventoryFile is the name of the inventory inside the environment directory.
const InventoryFile = "hosts"

// BackupDir is the directory of the environment the backups are fetched to.
const BackupDir = "backup"

const actionDeploy, actionBackup, actionDestroy = "deploy", "backup", "destroy"

// EnvDirName is the name of an environment directory created at t.
func EnvDirName(t time.Time) string {
	return "juice_" + t.Format("2006-01-02T15-04-05")
}

// G5k claims the resources described by config in a new environment envDir (a fresh
// juice_<date> directory next to the current environment when empty) and records the
// resulting roles and networks.
func (j *Juice) G5k(config deployment.Config, force bool, envDir string) error {
	if envDir == "" {
		envDir = filepath.Join(filepath.Dir(j.EnvDir), EnvDirName(time.Now()))
	}
	if err := config.Validate(); err != nil {
		return err
	}
	record, err := environment.New(envDir)
	if err != nil {
		return err
	}
	j.EnvDir = record.ResultDir

	roles, networks, err := j.NewProvider(config).Init(force)
	if err != nil {
		return errors.Wrap(err, "cannot claim resources")
	}
	logrus.Infof("Wait %s for iface to be ready...", j.IfaceDelay)
	j.sleep(j.IfaceDelay)

	record.Config = &config
	record.Roles = roles
	record.Networks = networks
	return record.AppendTask(TaskG5k)
}

// Inventory generates the ansible inventory of the environment.
func (j *Juice) Inventory() error {
	record, err := j.load()
	if err != nil {
		return err
	}
	if err := record.Require(TaskInventory, environment.KeyRoles, environment.KeyNetworks); err != nil {
		return err
	}
	path := record.Path(InventoryFile)
	if err := ansible.GenerateInventory(record.Roles, record.Networks, path, true); err != nil {
		return err
	}
	record.Inventory = path
	return record.AppendTask(TaskInventory)
}

// deployVars are the variables of the deploy action of a playbook.
func deployVars(record *environment.Record, db deployment.Database) ansible.ExtraVars {
	return ansible.ExtraVars{
		"registry":    record.Config.Registry,
		"db":          db.String(),
		"enos_action": actionDeploy,
	}
}

// deployPlaybook runs playbook with the deploy action after checking the environment.
func (j *Juice) deployPlaybook(task, playbook string, db deployment.Database, vars ansible.ExtraVars, update func(*environment.Record)) error {
	record, err := j.load()
	if err != nil {
		return err
	}
	if err := record.Require(task, environment.KeyConfig, environment.KeyInventory); err != nil {
		return err
	}
	extraVars := deployVars(record, db)
	for k, v := range vars {
		extraVars[k] = v
	}
	if err := j.Playbooks.Run([]string{playbook}, record.Inventory, extraVars); err != nil {
		return err
	}
	if update != nil {
		update(record)
	}
	return record.AppendTask(task)
}

// Prepare deploys the database (and its monitoring) on the resources.
func (j *Juice) Prepare(db deployment.Database, locality bool) error {
	if err := db.ValidateLocality(locality); err != nil {
		return err
	}
	vars := ansible.ExtraVars{"locality": locality}
	return j.deployPlaybook(TaskPrepare, PreparePlaybook, db, vars, func(record *environment.Record) {
		record.DB = db
		record.Locality = locality
	})
}

// Stress runs sysbench against the database.
func (j *Juice) Stress(db deployment.Database) error {
	return j.deployPlaybook(TaskStress, StressPlaybook, db, nil, nil)
}

// Openstack deploys Keystone on top of the database.
func (j *Juice) Openstack(db deployment.Database) error {
	return j.deployPlaybook(TaskOpenstack, OpenstackPlaybook, db, nil, j.checkIdentity)
}

// OpenstackRole is the role of the hosts running Keystone.
const OpenstackRole = "openstack"

// checkIdentity logs a warning when Keystone does not answer. The task still succeeds.
func (j *Juice) checkIdentity(record *environment.Record) {
	if j.Identity == nil {
		return
	}
	hosts := record.Roles[OpenstackRole]
	if len(hosts) == 0 {
		logrus.Warn("No openstack host to check Keystone on")
		return
	}
	errutil.Warn(j.Identity.Check(hosts[0].Address), "Keystone is not answering")
}

// Rally benchmarks Keystone with the scenario files, or every scenario of directory when
// no file is given. Burst runs the scenarios without pause between them.
func (j *Juice) Rally(db deployment.Database, files []string, directory string, burst bool) error {
	vars := ansible.ExtraVars{"burst": burst}
	if len(files) > 0 {
		logrus.Infof("Launching rally using scenarios: %s", strings.Join(files, ", "))
		vars["rally_files"] = files
	} else {
		if directory == "" {
			directory = DefaultRallyDirectory
		}
		logrus.Infof("Launching rally using all scenarios in %s directory", directory)
		vars["rally_directory"] = directory
	}
	return j.deployPlaybook(TaskRally, RallyPlaybook, db, vars, nil)
}

// Emulate applies tc on the resources and records its latency.
func (j *Juice) Emulate(tc deployment.TC) error {
	record, err := j.load()
	if err != nil {
		return err
	}
	if err := record.Require(TaskEmulate, environment.KeyRoles); err != nil {
		return err
	}
	latency, err := tc.DelayMs()
	if err != nil {
		return err
	}
	if err := j.Network.Emulate(record.Roles, tc); err != nil {
		return err
	}
	record.Latency = &latency
	return record.AppendTask(TaskEmulate)
}

// Validate measures the round trip time between the hosts of groups (every role when empty)
// and prints it.
func (j *Juice) Validate(groups ...string) error {
	record, err := j.load()
	if err != nil {
		return err
	}
	if err := record.Require(TaskValidate, environment.KeyRoles); err != nil {
		return err
	}
	measurements, err := j.Network.Validate(record.Roles, groups...)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(measurements))
	for _, m := range measurements {
		rows = append(rows, []string{m.Src, m.Dst, fmt.Sprintf("%.3f", m.Min), fmt.Sprintf("%.3f", m.Avg), fmt.Sprintf("%.3f", m.Max)})
	}
	visualization.NewTable([]string{"Source", "Destination", "Min (ms)", "Avg (ms)", "Max (ms)"}, rows).Draw(j.Out)
	return record.AppendTask(TaskValidate)
}

// Backup fetches the results and logs of every component into the environment.
func (j *Juice) Backup() error {
	record, err := j.load()
	if err != nil {
		return err
	}
	if err := record.Require(TaskBackup, environment.KeyInventory); err != nil {
		return err
	}
	vars := ansible.ExtraVars{
		"enos_action": actionBackup,
		"backup_dir":  record.Path(BackupDir),
		"tasks_ran":   record.TasksRan,
	}
	if err := j.Playbooks.Run(AllPlaybooks, record.Inventory, vars); err != nil {
		return err
	}
	return record.AppendTask(TaskBackup)
}

// Destroy removes every deployed component, the resources are kept.
func (j *Juice) Destroy() error {
	record, err := j.load()
	if err != nil {
		return err
	}
	if err := record.Require(TaskDestroy, environment.KeyInventory, environment.KeyDB); err != nil {
		return err
	}
	vars := ansible.ExtraVars{
		"enos_action": actionDestroy,
		"db":          record.DB.String(),
		"tasks_ran":   record.TasksRan,
	}
	if err := j.Playbooks.Run(AllPlaybooks, record.Inventory, vars); err != nil {
		return err
	}
	return record.AppendTask(TaskDestroy)
}

// Release gives the resources back to the testbed.
func (j *Juice) Release() error {
	record, err := j.load()
	if err != nil {
		return err
	}
	if err := record.Require(TaskRelease, environment.KeyConfig); err != nil {
		return err
	}
	if err := j.NewProvider(*record.Config).Destroy(); err != nil {
		return err
	}
	return record.AppendTask(TaskRelease)
}

// Deploy claims the resources, generates the inventory and deploys the database in envDir.
func (j *Juice) Deploy(config deployment.Config, db deployment.Database, locality bool, envDir string) error {
	if err := db.ValidateLocality(locality); err != nil {
		return err
	}
	if err := j.G5k(config, false, envDir); err != nil {
		return err
	}
	if err := j.Inventory(); err != nil {
		return err
	}
	return j.Prepare(db, locality)
}
