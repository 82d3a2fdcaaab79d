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
	"github.com/Marie-Donnie/juice/pkg/ansible"
	"github.com/stretchr/testify/mock"
)

// PlaybookRunner mock
type PlaybookRunner struct {
	mock.Mock
}

// Run provides a mock function with given fields: playbooks, inventory, extraVars
func (_m *PlaybookRunner) Run(playbooks []string, inventory string, extraVars ansible.ExtraVars) error {
	ret := _m.Called(playbooks, inventory, extraVars)

	var r0 error
	if rf, ok := ret.Get(0).(func([]string, string, ansible.ExtraVars) error); ok {
		r0 = rf(playbooks, inventory, extraVars)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}
