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

package executor

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
)

type taskHandleStopper struct {
	taskHandles []TaskHandle
	sync.Mutex
}

var (
	globalTaskHandleStopper *taskHandleStopper
	globalMutex             sync.Mutex
)

// RegisterInterruptHandle waits for Interrupt signal and stops unconditionally all taskHandles
// started afterwards. Returned function stops them on demand.
func RegisterInterruptHandle() func() {
	stopper := &taskHandleStopper{taskHandles: []TaskHandle{}}

	globalMutex.Lock()
	globalTaskHandleStopper = stopper
	globalMutex.Unlock()

	return stopper.registerInterruptHandle()
}

func register(t TaskHandle) {
	globalMutex.Lock()
	stopper := globalTaskHandleStopper
	globalMutex.Unlock()

	if stopper != nil {
		stopper.register(t)
	}
}

func (ths *taskHandleStopper) registerInterruptHandle() func() {
	logrus.Debugf("clean: interrupt handle initialized")

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		logrus.Debugf("clean: stopAllTaskHandles on signal '%v'", <-c)
		ths.stopAllTaskHandles()
		os.Exit(1)
	}()
	return ths.stopAllTaskHandles
}

func (ths *taskHandleStopper) stopAllTaskHandles() {
	ths.Lock()
	defer ths.Unlock()
	// Stop in reverse order.
	for i := len(ths.taskHandles) - 1; i >= 0; i-- {
		taskHandle := ths.taskHandles[i]
		if taskHandle.Status() == TERMINATED {
			continue
		}
		logrus.Debugf("clean: stopping task on %q", taskHandle.Address())
		if err := taskHandle.Stop(); err != nil {
			logrus.Warnf("clean: cannot stop task on %q: %v", taskHandle.Address(), err)
		}
	}
	ths.taskHandles = ths.taskHandles[:0]
}

func (ths *taskHandleStopper) register(t TaskHandle) {
	ths.Lock()
	defer ths.Unlock()
	ths.taskHandles = append(ths.taskHandles, t)
}
