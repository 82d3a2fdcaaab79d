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

package sweep

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/Marie-Donnie/juice/pkg/utils/fs"
	"github.com/nightlyone/lockfile"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// State of a combination in the work queue.
type State string

const (
	// Pending combinations wait to be claimed.
	Pending State = "pending"
	// InProgress combinations are claimed by a sweep process.
	InProgress State = "in_progress"
	// Done combinations completed successfully.
	Done State = "done"
	// Cancelled combinations failed and are retried when the sweeper is opened again.
	Cancelled State = "cancelled"
	// Skipped combinations are never retried.
	Skipped State = "skipped"
)

const (
	stateFile = "state.yaml"
	lockFile  = "lock"
	// DefaultLockTimeout bounds the wait for the state lock.
	DefaultLockTimeout = 30 * time.Second
	lockRetryInterval  = 100 * time.Millisecond
)

// Options tune a ParamSweeper.
type Options struct {
	// MaxAttempts skips combinations cancelled that many times. Zero means unbounded.
	MaxAttempts int
	// LockTimeout bounds the wait for the state lock.
	LockTimeout time.Duration
	// ResetInProgress reclaims combinations left in progress by a crashed process.
	ResetInProgress bool
}

type entry struct {
	Combination Combination `yaml:"combination"`
	State       State       `yaml:"state"`
	Attempts    int         `yaml:"attempts"`
}

type persisted struct {
	Combinations []*entry `yaml:"combinations"`
}

// ParamSweeper is a work queue of combinations persisted in a directory. Several processes
// may share it: every operation holds the directory lock while reading and writing the state.
type ParamSweeper struct {
	dir     string
	options Options
	lock    lockfile.Lockfile
}

// NewParamSweeper opens (or creates) the work queue in dir and adds the combinations it
// does not know yet. Cancelled combinations become pending again.
func NewParamSweeper(dir string, combinations []Combination, options Options) (*ParamSweeper, error) {
	abs, err := fs.Resolve(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.Wrapf(err, "cannot create sweeper directory %q", abs)
	}
	lock, err := lockfile.New(filepath.Join(abs, lockFile))
	if err != nil {
		return nil, errors.Wrap(err, "cannot create sweeper lock")
	}
	if options.LockTimeout == 0 {
		options.LockTimeout = DefaultLockTimeout
	}

	s := &ParamSweeper{dir: abs, options: options, lock: lock}
	err = s.update(func(state *persisted) error {
		known := map[string]bool{}
		for _, e := range state.Combinations {
			known[e.Combination.Key()] = true
		}
		added := 0
		for _, c := range combinations {
			if known[c.Key()] {
				continue
			}
			known[c.Key()] = true
			state.Combinations = append(state.Combinations, &entry{Combination: c.copy(), State: Pending})
			added++
		}
		reopened := reset(state, options.ResetInProgress)
		logrus.Infof("Sweeper %s: %d combinations added, %d reopened", abs, added, reopened)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func reset(state *persisted, inProgress bool) int {
	count := 0
	for _, e := range state.Combinations {
		if e.State == Cancelled || (inProgress && e.State == InProgress) {
			e.State = Pending
			count++
		}
	}
	return count
}

func (s *ParamSweeper) acquire() error {
	deadline := time.Now().Add(s.options.LockTimeout)
	for {
		err := s.lock.TryLock()
		if err == nil {
			return nil
		}
		temporary, ok := err.(interface{ Temporary() bool })
		if err != lockfile.ErrBusy && !(ok && temporary.Temporary()) {
			return errors.Wrapf(err, "cannot lock sweeper %q", s.dir)
		}
		if time.Now().After(deadline) {
			return errors.Wrapf(err, "sweeper %q is still locked after %s", s.dir, s.options.LockTimeout)
		}
		time.Sleep(lockRetryInterval)
	}
}

func (s *ParamSweeper) release() {
	if err := s.lock.Unlock(); err != nil {
		logrus.Warnf("Cannot unlock sweeper %s: %v", s.dir, err)
	}
}

// view runs fn on the state under lock.
func (s *ParamSweeper) view(fn func(state *persisted)) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	state, err := s.load()
	if err != nil {
		return err
	}
	fn(state)
	return nil
}

// update runs fn on the state under lock and saves the result when fn succeeds.
func (s *ParamSweeper) update(fn func(state *persisted) error) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	state, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	data, err := yaml.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "cannot encode sweeper state")
	}
	return fs.WriteFileAtomic(filepath.Join(s.dir, stateFile), data, 0644)
}

func (s *ParamSweeper) load() (*persisted, error) {
	state := &persisted{}
	data, err := ioutil.ReadFile(filepath.Join(s.dir, stateFile))
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read sweeper state in %q", s.dir)
	}
	if err := yaml.UnmarshalStrict(data, state); err != nil {
		return nil, errors.Wrapf(err, "cannot decode sweeper state in %q", s.dir)
	}
	return state, nil
}

func find(state *persisted, c Combination) (*entry, error) {
	key := c.Key()
	for _, e := range state.Combinations {
		if e.Combination.Key() == key {
			return e, nil
		}
	}
	return nil, errors.Errorf("combination %s is not part of the sweep", c)
}

// GetNext claims the first pending combination. It returns false when none is pending.
func (s *ParamSweeper) GetNext() (Combination, bool, error) {
	var next Combination
	err := s.update(func(state *persisted) error {
		for _, e := range state.Combinations {
			if e.State == Pending {
				e.State = InProgress
				e.Attempts++
				next = e.Combination.copy()
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return next, next != nil, nil
}

func (s *ParamSweeper) set(c Combination, fn func(e *entry)) error {
	return s.update(func(state *persisted) error {
		e, err := find(state, c)
		if err != nil {
			return err
		}
		fn(e)
		return nil
	})
}

// Done marks c as successfully completed.
func (s *ParamSweeper) Done(c Combination) error {
	return s.set(c, func(e *entry) { e.State = Done })
}

// Cancel marks c as failed. It is retried when the sweeper is opened again, unless it
// reached the maximum number of attempts.
func (s *ParamSweeper) Cancel(c Combination) error {
	return s.set(c, func(e *entry) {
		if s.options.MaxAttempts > 0 && e.Attempts >= s.options.MaxAttempts {
			logrus.Warnf("Combination %s failed %d times, skipping it", c, e.Attempts)
			e.State = Skipped
			return
		}
		e.State = Cancelled
	})
}

// Skip excludes c from the sweep for good.
func (s *ParamSweeper) Skip(c Combination) error {
	return s.set(c, func(e *entry) { e.State = Skipped })
}

// Stats counts combinations per state.
func (s *ParamSweeper) Stats() (map[State]int, error) {
	stats := map[State]int{}
	err := s.view(func(state *persisted) {
		for _, e := range state.Combinations {
			stats[e.State]++
		}
	})
	return stats, err
}

// Remaining returns the number of pending combinations.
func (s *ParamSweeper) Remaining() (int, error) {
	stats, err := s.Stats()
	return stats[Pending], err
}

// Reset makes cancelled combinations pending again, and in progress ones too when inProgress is set.
func (s *ParamSweeper) Reset(inProgress bool) error {
	return s.update(func(state *persisted) error {
		reset(state, inProgress)
		return nil
	})
}

// Attempts returns how many times c was claimed.
func (s *ParamSweeper) Attempts(c Combination) (int, error) {
	attempts := 0
	var err error
	viewErr := s.view(func(state *persisted) {
		var e *entry
		if e, err = find(state, c); err == nil {
			attempts = e.Attempts
		}
	})
	if viewErr != nil {
		return 0, viewErr
	}
	return attempts, err
}
