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

package analysis

import (
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Key groups the actions of a pivoted table.
type Key struct {
	Scenario string
	DB       string
	Nodes    int
	Name     string
}

// Row is the summary of the durations of one action.
type Row struct {
	Key
	Mean  float64
	Stdev float64
	Count int
}

// Table is the pivot of the actions of one result file, or the concatenation of such pivots.
type Table struct {
	Latency string
	Source  string
	Rows    []Row
}

// Pivot summarizes the durations of actions per (scenario, db, nodes, name).
// Rows follow the first appearance of their key.
func Pivot(actions []Action) ([]Row, error) {
	var keys []Key
	durations := map[Key]stats.Float64Data{}
	for _, action := range actions {
		key := Key{Scenario: action.Scenario, DB: action.DB, Nodes: action.Nodes, Name: action.Name}
		if _, ok := durations[key]; !ok {
			keys = append(keys, key)
		}
		durations[key] = append(durations[key], action.Duration())
	}

	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		data := durations[key]
		mean, err := stats.Mean(data)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot compute mean of %v", key)
		}
		stdev, err := stats.StandardDeviation(data)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot compute standard deviation of %v", key)
		}
		rows = append(rows, Row{Key: key, Mean: mean, Stdev: stdev, Count: len(data)})
	}
	return rows, nil
}

// run identifies an experiment in the aggregator.
type run struct {
	DB       string
	Nodes    int
	Latency  string
	Locality string
}

// Aggregator accumulates pivoted tables per latency class.
// It is not safe for concurrent use.
type Aggregator struct {
	buckets map[string][]*Table
	seen    map[run]string
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		buckets: map[string][]*Table{},
		seen:    map[run]string{},
	}
}

// claim registers the result directory dir of run r, failing if another directory already holds it.
func (a *Aggregator) claim(r run, dir string) error {
	if previous, ok := a.seen[r]; ok && previous != dir {
		return errors.Errorf("%s duplicates the results of %s", dir, previous)
	}
	a.seen[r] = dir
	return nil
}

// Add appends table to the bucket of its latency.
func (a *Aggregator) Add(table *Table) {
	a.buckets[table.Latency] = append(a.buckets[table.Latency], table)
}

// Tables returns the tables accumulated for latency.
func (a *Aggregator) Tables(latency string) []*Table {
	return a.buckets[latency]
}

// Latencies returns the latency classes holding tables, in increasing order.
func (a *Aggregator) Latencies() []string {
	latencies := make([]string, 0, len(a.buckets))
	for latency := range a.buckets {
		latencies = append(latencies, latency)
	}
	sort.Slice(latencies, func(i, j int) bool {
		left, errLeft := strconv.Atoi(latencies[i])
		right, errRight := strconv.Atoi(latencies[j])
		if errLeft != nil || errRight != nil {
			return latencies[i] < latencies[j]
		}
		return left < right
	})
	return latencies
}

// Concat returns all rows of the latency bucket as a single table.
func (a *Aggregator) Concat(latency string) *Table {
	concat := &Table{Latency: latency}
	for _, table := range a.buckets[latency] {
		concat.Rows = append(concat.Rows, table.Rows...)
	}
	return concat
}

// Merge moves the tables of other into a.
func (a *Aggregator) Merge(other *Aggregator) error {
	for r, dir := range other.seen {
		if err := a.claim(r, dir); err != nil {
			return err
		}
	}
	for _, latency := range other.Latencies() {
		a.buckets[latency] = append(a.buckets[latency], other.buckets[latency]...)
	}
	logrus.Debugf("Merged %d latency classes", len(other.buckets))
	return nil
}

// Reset forgets every table.
func (a *Aggregator) Reset() {
	a.buckets = map[string][]*Table{}
	a.seen = map[run]string{}
}
