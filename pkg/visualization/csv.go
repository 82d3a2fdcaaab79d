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
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Marie-Donnie/juice/pkg/analysis"
	"github.com/pkg/errors"
)

// CSVHeaders is the header line of WriteCSV.
var CSVHeaders = []string{"latency", "scenario", "db", "nodes", "action", "mean", "stdev", "count"}

// WriteCSV writes the rows of tables in long form.
func WriteCSV(w io.Writer, tables ...*analysis.Table) error {
	out := csv.NewWriter(w)
	if err := out.Write(CSVHeaders); err != nil {
		return errors.Wrap(err, "cannot write csv header")
	}
	for _, table := range tables {
		for _, row := range table.Rows {
			record := []string{
				table.Latency,
				row.Scenario,
				row.DB,
				strconv.Itoa(row.Nodes),
				row.Name,
				strconv.FormatFloat(row.Mean, 'f', -1, 64),
				strconv.FormatFloat(row.Stdev, 'f', -1, 64),
				strconv.Itoa(row.Count),
			}
			if err := out.Write(record); err != nil {
				return errors.Wrap(err, "cannot write csv record")
			}
		}
	}
	out.Flush()
	return errors.Wrap(out.Error(), "cannot flush csv")
}
