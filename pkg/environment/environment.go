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

package environment

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/provider"
	"github.com/Marie-Donnie/juice/pkg/utils/fs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	// RecordFile is the name of the record inside an environment directory.
	RecordFile = "env"
	// CurrentLink is the symlink pointing to the last created environment.
	CurrentLink = "current"
)

// Keys of the record, used in precondition errors.
const (
	KeyConfig    = "config"
	KeyRoles     = "roles"
	KeyNetworks  = "networks"
	KeyInventory = "inventory"
	KeyDB        = "db"
	KeyLatency   = "latency"
)

// producers maps a key to the step which sets it.
var producers = map[string]string{
	KeyConfig:    "g5k",
	KeyRoles:     "g5k",
	KeyNetworks:  "g5k",
	KeyInventory: "inventory",
	KeyDB:        "prepare",
	KeyLatency:   "emulate",
}

// Record is the persisted state of one deployment, read and rewritten by every step.
type Record struct {
	ResultDir string              `yaml:"resultdir" json:"resultdir"`
	Config    *deployment.Config  `yaml:"config,omitempty" json:"config,omitempty"`
	Roles     provider.Roles      `yaml:"roles,omitempty" json:"roles,omitempty"`
	Networks  []provider.Network  `yaml:"networks,omitempty" json:"networks,omitempty"`
	Inventory string              `yaml:"inventory,omitempty" json:"inventory,omitempty"`
	DB        deployment.Database `yaml:"db,omitempty" json:"db,omitempty"`
	Locality  bool                `yaml:"locality" json:"locality"`
	// Latency is the delay in milliseconds applied by the last emulation.
	Latency  *int     `yaml:"latency,omitempty" json:"latency,omitempty"`
	TasksRan []string `yaml:"tasks_ran" json:"tasks_ran"`
}

// PreconditionError is returned when a step needs a key set by a step which did not run.
type PreconditionError struct {
	Step     string
	Key      string
	Producer string
}

func (e PreconditionError) Error() string {
	return fmt.Sprintf("%s requires %q in the environment, run %s first", e.Step, e.Key, e.Producer)
}

// IsPreconditionError tells whether err (or its cause) is a PreconditionError.
func IsPreconditionError(err error) bool {
	_, ok := errors.Cause(err).(PreconditionError)
	return ok
}

// New creates resultDir with an empty record, discarding any previous one, and points
// the current symlink next to it at resultDir.
func New(resultDir string) (*Record, error) {
	abs, err := fs.Resolve(resultDir)
	if err != nil {
		return nil, err
	}
	link := filepath.Join(filepath.Dir(abs), CurrentLink)
	if link == abs {
		return nil, errors.Errorf("%q is reserved for the link to the current environment", resultDir)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.Wrapf(err, "cannot create environment directory %q", abs)
	}

	if err := relink(link, abs); err != nil {
		return nil, err
	}

	record := &Record{ResultDir: abs, TasksRan: []string{}}
	return record, record.Save()
}

func relink(link, target string) error {
	info, err := os.Lstat(link)
	if err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return errors.Errorf("%q exists and is not a symlink", link)
		}
		if err := os.Remove(link); err != nil {
			return errors.Wrapf(err, "cannot remove %q", link)
		}
	}
	logrus.Debugf("Linking %s to %s", link, target)
	return errors.Wrapf(os.Symlink(target, link), "cannot link %q", link)
}

// Load reads the record from dir, which may be the current symlink.
func Load(dir string) (*Record, error) {
	resolved, err := fs.Resolve(dir)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(resolved, RecordFile)
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, PreconditionError{Step: "loading environment", Key: RecordFile, Producer: "g5k"}
		}
		return nil, errors.Wrapf(err, "cannot read environment %q", path)
	}

	record := &Record{}
	if err := yaml.UnmarshalStrict(data, record); err != nil {
		return nil, errors.Wrapf(err, "cannot decode environment %q", path)
	}
	record.ResultDir = resolved
	if record.TasksRan == nil {
		record.TasksRan = []string{}
	}
	return record, nil
}

// Save writes the record into its directory.
func (r *Record) Save() error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "cannot encode environment")
	}
	return fs.WriteFileAtomic(filepath.Join(r.ResultDir, RecordFile), data, 0644)
}

// Require fails with a PreconditionError naming the first missing key.
func (r *Record) Require(step string, keys ...string) error {
	for _, key := range keys {
		if !r.has(key) {
			return PreconditionError{Step: step, Key: key, Producer: producers[key]}
		}
	}
	return nil
}

func (r *Record) has(key string) bool {
	switch key {
	case KeyConfig:
		return r.Config != nil
	case KeyRoles:
		return r.Roles != nil
	case KeyNetworks:
		return r.Networks != nil
	case KeyInventory:
		return r.Inventory != ""
	case KeyDB:
		return r.DB != ""
	case KeyLatency:
		return r.Latency != nil
	}
	panic(fmt.Sprintf("unknown environment key %q", key))
}

// AppendTask records that step ran and saves the record.
func (r *Record) AppendTask(step string) error {
	r.TasksRan = append(r.TasksRan, step)
	return r.Save()
}

// Ran tells whether step was recorded.
func (r *Record) Ran(step string) bool {
	for _, task := range r.TasksRan {
		if task == step {
			return true
		}
	}
	return false
}

// Path joins elements under the result directory.
func (r *Record) Path(elem ...string) string {
	return filepath.Join(append([]string{r.ResultDir}, elem...)...)
}
