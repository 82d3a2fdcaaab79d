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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parameter is a named list of values to sweep over.
type Parameter struct {
	Name   string
	Values []string
}

// NewParameter builds a Parameter from any printable values.
func NewParameter(name string, values ...interface{}) Parameter {
	p := Parameter{Name: name}
	for _, value := range values {
		p.Values = append(p.Values, fmt.Sprint(value))
	}
	return p
}

// Combination is one point of the parameter space.
type Combination map[string]string

// Sweep returns the cartesian product of parameters. The last parameter varies fastest.
func Sweep(params ...Parameter) []Combination {
	combinations := []Combination{{}}
	for _, param := range params {
		next := make([]Combination, 0, len(combinations)*len(param.Values))
		for _, combination := range combinations {
			for _, value := range param.Values {
				c := combination.copy()
				c[param.Name] = value
				next = append(next, c)
			}
		}
		combinations = next
	}
	if len(params) == 0 {
		return nil
	}
	return combinations
}

func (c Combination) copy() Combination {
	clone := make(Combination, len(c)+1)
	for k, v := range c {
		clone[k] = v
	}
	return clone
}

// Key identifies the combination independently of map ordering.
func (c Combination) Key() string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+c[name])
	}
	return strings.Join(parts, ",")
}

func (c Combination) String() string {
	return "{" + c.Key() + "}"
}

// Get returns the value of name or an error when it is not part of the combination.
func (c Combination) Get(name string) (string, error) {
	value, ok := c[name]
	if !ok {
		return "", errors.Errorf("combination %s has no parameter %q", c, name)
	}
	return value, nil
}

// Int returns the value of name as an integer.
func (c Combination) Int(name string) (int, error) {
	value, err := c.Get(name)
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(value)
	return i, errors.Wrapf(err, "parameter %q of %s is not an integer", name, c)
}

// Bool returns the value of name as a boolean.
func (c Combination) Bool(name string) (bool, error) {
	value, err := c.Get(name)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(value)
	return b, errors.Wrapf(err, "parameter %q of %s is not a boolean", name, c)
}
