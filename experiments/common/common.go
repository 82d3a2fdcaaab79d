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

// Package common holds what the keystone experiments share: the reference deployment,
// the sweep harness and the steps run for every combination.
package common

import (
	"time"

	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/Marie-Donnie/juice/pkg/deployment"
	"github.com/Marie-Donnie/juice/pkg/executor"
	"github.com/Marie-Donnie/juice/pkg/experiment"
	"github.com/Marie-Donnie/juice/pkg/experiment/logger"
	"github.com/Marie-Donnie/juice/pkg/metadata"
	"github.com/Marie-Donnie/juice/pkg/sweep"
	"github.com/Marie-Donnie/juice/pkg/utils/env"
	"github.com/Marie-Donnie/juice/pkg/utils/errutil"
	"github.com/Marie-Donnie/juice/pkg/utils/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ConfFlag replaces the built-in deployment of an experiment.
	ConfFlag            = conf.NewStringFlag("conf", "Configuration file replacing the built-in deployment", "")
	maxAttemptsFlag     = conf.NewIntFlag("max_attempts", "Skip combinations after that many failures (0 retries forever)", 0)
	resetInProgressFlag = conf.NewBoolFlag("reset_in_progress", "Reclaim combinations left in progress by a crashed sweep", false)
)

// SweeperDir returns the default work queue directory of experiment name.
func SweeperDir(name string) string {
	return env.InHome("juice-sweeper-" + name)
}

// Config returns the configuration file given with --conf, or base.
func Config(base deployment.Config) (deployment.Config, error) {
	if ConfFlag.Value() == "" {
		return base, base.Validate()
	}
	return deployment.LoadConfig(ConfFlag.Value())
}

// Experiment is a sweep over Parameters.
type Experiment struct {
	Name       string
	SweeperDir string
	Parameters []sweep.Parameter
	// Init runs once before the sweep. Its failure is only logged. Optional.
	Init func() error
	// Loop runs the combinations; its Sweeper and Metadata are set by Run.
	Loop experiment.Loop
	// Report runs after the sweep. Optional.
	Report func(metadata.Metadata) error
}

// Configure names the application and parses the flags. Run it before reading any flag.
func Configure(name string) {
	conf.SetAppName(name)
	experiment.Configure()
}

// Run sets up logging and metadata then sweeps until no combination is left.
// Flags must have been parsed with Configure.
func Run(x Experiment) {
	experimentStart := time.Now()
	experimentID := uuid.New()
	logger.Initialize(x.Name, experimentID)

	stop := executor.RegisterInterruptHandle()
	defer stop()

	metaData, err := metadata.NewDefault(experimentID)
	errutil.CheckWithContext(err, "Cannot connect to metadata database")
	err = metadata.RecordRuntimeEnv(metaData, experimentStart)
	errutil.CheckWithContext(err, "Cannot save runtime environment in metadata database")

	sweeper, err := sweep.NewParamSweeper(x.SweeperDir, sweep.Sweep(x.Parameters...), sweep.Options{
		MaxAttempts:     maxAttemptsFlag.Value(),
		LockTimeout:     sweep.DefaultLockTimeout,
		ResetInProgress: resetInProgressFlag.Value(),
	})
	errutil.CheckWithContext(err, "Cannot open sweeper")

	if x.Init != nil {
		errutil.Warn(x.Init(), "Setup went wrong. This is not necessarily bad news, in particular if it is the first time you run the experiment")
	}

	loop := x.Loop
	loop.Sweeper = sweeper
	loop.Metadata = metaData
	remaining, err := sweeper.Remaining()
	errutil.Warn(err, "Cannot count pending combinations")
	bar := progressBar(remaining, conf.LogLevel())
	if bar != nil {
		loop.Progress = bar
	}
	summary, err := loop.Run()
	if bar != nil {
		bar.Finish()
	}
	errutil.CheckWithContext(err, "Sweep stopped")

	stats, err := sweeper.Stats()
	errutil.Warn(err, "Cannot read sweeper state")
	logrus.Infof("Sweep finished in %s: %d done and %d cancelled in this run, state %v",
		time.Since(experimentStart), len(summary.Done), len(summary.Cancelled), stats)

	if x.Report != nil {
		errutil.Warn(x.Report(metaData), "Cannot report results")
	}
}
