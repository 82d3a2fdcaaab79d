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
	"strconv"

	"github.com/Marie-Donnie/juice/pkg/analysis"
	"github.com/Marie-Donnie/juice/pkg/dbstats"
)

// AggregateHeaders are the columns of DrawAggregate.
var AggregateHeaders = []string{"Scenario", "DB", "Nodes", "Action", "Mean (s)", "Stdev (s)", "Count"}

func formatDuration(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

// AggregateRows formats the rows of table.
func AggregateRows(table *analysis.Table) [][]string {
	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, []string{
			row.Scenario,
			row.DB,
			strconv.Itoa(row.Nodes),
			row.Name,
			formatDuration(row.Mean),
			formatDuration(row.Stdev),
			strconv.Itoa(row.Count),
		})
	}
	return rows
}

// DrawAggregate renders an aggregate table preceded by its latency.
func DrawAggregate(w io.Writer, table *analysis.Table) {
	fmt.Fprintf(w, "Latency: %sms\n", table.Latency)
	NewTable(AggregateHeaders, AggregateRows(table)).Draw(w)
}

// DrawRatios renders read/write ratios per scenario.
func DrawRatios(w io.Writer, scenarios []string, ratios []dbstats.Ratio) {
	rows := make([][]string, 0, len(ratios))
	for i, ratio := range ratios {
		rows = append(rows, []string{
			scenarios[i],
			strconv.FormatInt(ratio.Reads, 10),
			strconv.FormatInt(ratio.Writes, 10),
			strconv.FormatFloat(ratio.PercentReads, 'f', 2, 64),
			strconv.FormatFloat(ratio.PercentWrites, 'f', 2, 64),
		})
	}
	NewTable([]string{"Scenario", "Reads", "Writes", "%Reads", "%Writes"}, rows).Draw(w)
}
