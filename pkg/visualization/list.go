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

package visualization

import (
	"fmt"
	"io"
)

// List is a labelled list of strings.
type List struct {
	elements []string
	label    string
}

// NewList constructs List.
func NewList(elements []string, label string) *List {
	return &List{
		elements,
		label,
	}
}

// Print writes one line per element to w.
func (l *List) Print(w io.Writer) {
	for _, value := range l.elements {
		fmt.Fprintln(w, l.label+value)
	}
}
