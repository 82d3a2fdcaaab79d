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

package mocks

import (
	"os"
	"time"

	"github.com/Marie-Donnie/juice/pkg/executor"
	"github.com/stretchr/testify/mock"
)

// TaskHandle mock
type TaskHandle struct {
	mock.Mock
}

// Address provides a mock function with given fields:
func (_m *TaskHandle) Address() string {
	ret := _m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// Clean provides a mock function with given fields:
func (_m *TaskHandle) Clean() error {
	ret := _m.Called()
	return ret.Error(0)
}

// EraseOutput provides a mock function with given fields:
func (_m *TaskHandle) EraseOutput() error {
	ret := _m.Called()
	return ret.Error(0)
}

// ExitCode provides a mock function with given fields:
func (_m *TaskHandle) ExitCode() (int, error) {
	ret := _m.Called()

	var r0 int
	if rf, ok := ret.Get(0).(func() int); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(int)
	}

	return r0, ret.Error(1)
}

// Status provides a mock function with given fields:
func (_m *TaskHandle) Status() executor.TaskState {
	ret := _m.Called()

	var r0 executor.TaskState
	if rf, ok := ret.Get(0).(func() executor.TaskState); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(executor.TaskState)
	}

	return r0
}

// StderrFile provides a mock function with given fields:
func (_m *TaskHandle) StderrFile() (*os.File, error) {
	ret := _m.Called()

	var r0 *os.File
	if rf, ok := ret.Get(0).(func() *os.File); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*os.File)
		}
	}

	return r0, ret.Error(1)
}

// StdoutFile provides a mock function with given fields:
func (_m *TaskHandle) StdoutFile() (*os.File, error) {
	ret := _m.Called()

	var r0 *os.File
	if rf, ok := ret.Get(0).(func() *os.File); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*os.File)
		}
	}

	return r0, ret.Error(1)
}

// Stop provides a mock function with given fields:
func (_m *TaskHandle) Stop() error {
	ret := _m.Called()
	return ret.Error(0)
}

// Wait provides a mock function with given fields: timeout
func (_m *TaskHandle) Wait(timeout time.Duration) bool {
	ret := _m.Called(timeout)

	var r0 bool
	if rf, ok := ret.Get(0).(func(time.Duration) bool); ok {
		r0 = rf(timeout)
	} else {
		r0 = ret.Get(0).(bool)
	}

	return r0
}
