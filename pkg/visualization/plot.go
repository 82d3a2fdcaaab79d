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
	"sort"
	"strings"

	"github.com/Marie-Donnie/juice/pkg/analysis"
	"github.com/guptarohit/asciigraph"
)

// PlotHeight is the number of lines of a plot.
const PlotHeight = 10

// Series is the mean duration of one action against the cluster size.
type Series struct {
	Scenario string
	DB       string
	Name     string
	Nodes    []int
	Means    []float64
}

// Caption describes the series.
func (s Series) Caption() string {
	nodes := make([]string, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		nodes = append(nodes, fmt.Sprint(n))
	}
	return fmt.Sprintf("%s %s %s (nodes: %s)", s.Scenario, s.DB, s.Name, strings.Join(nodes, ", "))
}

type seriesKey struct {
	scenario, db, name string
}

// SeriesOf splits the rows of table per (scenario, db, action), ordered by node count.
func SeriesOf(table *analysis.Table) []Series {
	var keys []seriesKey
	index := map[seriesKey]*Series{}
	for _, row := range table.Rows {
		key := seriesKey{row.Scenario, row.DB, row.Name}
		series, ok := index[key]
		if !ok {
			series = &Series{Scenario: row.Scenario, DB: row.DB, Name: row.Name}
			index[key] = series
			keys = append(keys, key)
		}
		series.Nodes = append(series.Nodes, row.Nodes)
		series.Means = append(series.Means, row.Mean)
	}

	all := make([]Series, 0, len(keys))
	for _, key := range keys {
		series := *index[key]
		sort.Sort(byNodes(series))
		all = append(all, series)
	}
	return all
}

type byNodes Series

func (s byNodes) Len() int           { return len(s.Nodes) }
func (s byNodes) Less(i, j int) bool { return s.Nodes[i] < s.Nodes[j] }
func (s byNodes) Swap(i, j int) {
	s.Nodes[i], s.Nodes[j] = s.Nodes[j], s.Nodes[i]
	s.Means[i], s.Means[j] = s.Means[j], s.Means[i]
}

// Plot draws one graph per series of table. Series of a single point are printed as text.
func Plot(w io.Writer, table *analysis.Table, caption string) {
	if caption != "" {
		fmt.Fprintln(w, caption)
	}
	for _, series := range SeriesOf(table) {
		if len(series.Means) < 2 {
			fmt.Fprintf(w, "%s: %s s\n\n", series.Caption(), formatDuration(series.Means[0]))
			continue
		}
		graph := asciigraph.Plot(series.Means, asciigraph.Height(PlotHeight), asciigraph.Caption(series.Caption()))
		fmt.Fprintf(w, "%s\n\n", graph)
	}
}
