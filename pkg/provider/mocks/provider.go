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
	"github.com/Marie-Donnie/juice/pkg/provider"
	"github.com/stretchr/testify/mock"
)

// Provider mock
type Provider struct {
	mock.Mock
}

// Init provides a mock function with given fields: force
func (_m *Provider) Init(force bool) (provider.Roles, []provider.Network, error) {
	ret := _m.Called(force)

	var r0 provider.Roles
	if rf, ok := ret.Get(0).(func(bool) provider.Roles); ok {
		r0 = rf(force)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(provider.Roles)
		}
	}

	var r1 []provider.Network
	if rf, ok := ret.Get(1).(func(bool) []provider.Network); ok {
		r1 = rf(force)
	} else {
		if ret.Get(1) != nil {
			r1 = ret.Get(1).([]provider.Network)
		}
	}

	var r2 error
	if rf, ok := ret.Get(2).(func(bool) error); ok {
		r2 = rf(force)
	} else {
		r2 = ret.Error(2)
	}

	return r0, r1, r2
}

// Destroy provides a mock function with given fields:
func (_m *Provider) Destroy() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}
