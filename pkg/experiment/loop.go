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

package experiment

import (
	"time"

	"github.com/Marie-Donnie/juice/pkg/metadata"
	"github.com/Marie-Donnie/juice/pkg/sweep"
	"github.com/Marie-Donnie/juice/pkg/utils/errutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Sweeper hands out combinations and records their outcome.
type Sweeper interface {
	GetNext() (sweep.Combination, bool, error)
	Done(combination sweep.Combination) error
	Cancel(combination sweep.Combination) error
}

// Progress is told about every treated combination, whatever its outcome.
type Progress interface {
	Increment() int
}

// Step is one operation run for every combination.
type Step struct {
	Name string
	Run  func(combination sweep.Combination) error
}

// Loop runs Steps for every combination of Sweeper until none is left.
// A failing combination is cancelled and the loop goes on with the next one.
type Loop struct {
	Sweeper Sweeper
	// Setup runs before the steps. Its failure cancels the combination. Optional.
	Setup func(combination sweep.Combination) error
	Steps []Step
	// Teardown runs after the steps whatever happened. Its failure is only logged. Optional.
	Teardown func(combination sweep.Combination) error
	// Metadata records combination outcomes. Optional.
	Metadata metadata.Metadata
	// Progress follows the sweep. Optional.
	Progress Progress
}

// Summary lists what a Run did.
type Summary struct {
	Done      []sweep.Combination
	Cancelled []sweep.Combination
}

// Run treats combinations until the sweeper has none pending. Only sweeper errors are returned.
func (l *Loop) Run() (Summary, error) {
	summary := Summary{}
	for {
		combination, ok, err := l.Sweeper.GetNext()
		if err != nil {
			return summary, errors.Wrap(err, "cannot get next combination")
		}
		if !ok {
			logrus.Infof("No combination left: %d done, %d cancelled", len(summary.Done), len(summary.Cancelled))
			return summary, nil
		}

		logrus.Infof("Treating combination %s", combination)
		started := time.Now()
		stepErr := l.treat(combination)
		l.teardown(combination)

		status := "done"
		if stepErr != nil {
			status = "cancelled"
			logrus.Errorf("Combination %s failed with message %s", combination, stepErr)
			logrus.Debugf("%+v", stepErr)
			if err := l.Sweeper.Cancel(combination); err != nil {
				return summary, errors.Wrapf(err, "cannot cancel combination %s", combination)
			}
			summary.Cancelled = append(summary.Cancelled, combination)
		} else {
			if err := l.Sweeper.Done(combination); err != nil {
				return summary, errors.Wrapf(err, "cannot mark combination %s as done", combination)
			}
			summary.Done = append(summary.Done, combination)
			logrus.Infof("Combination %s done in %s", combination, time.Since(started))
		}

		if l.Metadata != nil {
			errutil.Warn(metadata.RecordCombination(l.Metadata, combination, status, stepErr), "Cannot record combination outcome")
		}
		if l.Progress != nil {
			l.Progress.Increment()
		}
	}
}

func (l *Loop) treat(combination sweep.Combination) error {
	if l.Setup != nil {
		if err := l.Setup(combination); err != nil {
			return errors.Wrap(err, "setup failed")
		}
	}
	for _, step := range l.Steps {
		logrus.Debugf("Running step %s of %s", step.Name, combination)
		if err := step.Run(combination); err != nil {
			return errors.Wrapf(err, "step %s failed", step.Name)
		}
	}
	return nil
}

func (l *Loop) teardown(combination sweep.Combination) {
	if l.Teardown == nil {
		return
	}
	errutil.Warn(l.Teardown(combination), "Teardown of combination "+combination.String()+" failed")
}
