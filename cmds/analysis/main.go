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

package main

import (
	"bytes"
	"io"
	"os"

	"github.com/Marie-Donnie/juice/pkg/analysis"
	"github.com/Marie-Donnie/juice/pkg/archive"
	"github.com/Marie-Donnie/juice/pkg/conf"
	"github.com/Marie-Donnie/juice/pkg/experiment"
	"github.com/Marie-Donnie/juice/pkg/utils/fs"
	"github.com/Marie-Donnie/juice/pkg/visualization"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

// options of the analysis commands.
type options struct {
	directory *string
	latency   *string
	noise     *bool
	noiseName *string
}

func (o *options) register(cmd *kingpin.CmdClause, parse bool) {
	o.directory = cmd.Flag("directory", "Directory holding the result directories").Required().String()
	if !parse {
		return
	}
	o.latency = cmd.Flag("latency", "Latency class to analyse, every class when empty").String()
	o.noise = cmd.Flag("remove-noise", "Drop the cleanup action and its children").Bool()
	o.noiseName = cmd.Flag("noise-action", "Name of the cleanup action").Default(analysis.DefaultNoiseAction).String()
}

// run unpacks and parses every result directory.
func (o *options) run() (*analysis.Aggregator, error) {
	parser := analysis.NewParser()
	parser.NoiseAction = *o.noiseName
	agg := analysis.NewAggregator()
	if err := parser.FullRun(*o.directory, *o.latency, *o.noise, agg); err != nil {
		return nil, err
	}
	if len(agg.Latencies()) == 0 {
		logrus.Warnf("No result found in %s", *o.directory)
	}
	return agg, nil
}

func commands(out io.Writer) conf.CommandTable {
	fullRun, check, unzip, table, plot, csv := &options{}, &options{}, &options{}, &options{}, &options{}, &options{}
	var csvOutput *string

	return conf.CommandTable{
		{
			Name:  "full_run",
			Help:  "Full run from a directory: check, unzip and parse every result directory",
			Flags: func(cmd *kingpin.CmdClause) { fullRun.register(cmd, true) },
			Handler: func() error {
				agg, err := fullRun.run()
				if err != nil {
					return err
				}
				for _, latency := range agg.Latencies() {
					logrus.Infof("Latency %s: %d tables", latency, len(agg.Tables(latency)))
				}
				return nil
			},
		},
		{
			Name:  "check",
			Help:  "List the result directories with a backup",
			Flags: func(cmd *kingpin.CmdClause) { check.register(cmd, false) },
			Handler: func() error {
				visualization.NewList(analysis.Scan(*check.directory), "").Print(out)
				return nil
			},
		},
		{
			Name:  "unzip",
			Help:  "Extract the rally reports of every result directory",
			Flags: func(cmd *kingpin.CmdClause) { unzip.register(cmd, false) },
			Handler: func() error {
				for _, dir := range analysis.Scan(*unzip.directory) {
					files, err := analysis.Unpack(dir, archive.DefaultOptions())
					if err != nil {
						return err
					}
					visualization.NewList(files, "").Print(out)
				}
				return nil
			},
		},
		{
			Name:  "table",
			Help:  "Print the mean duration of every action per latency",
			Flags: func(cmd *kingpin.CmdClause) { table.register(cmd, true) },
			Handler: func() error {
				agg, err := table.run()
				if err != nil {
					return err
				}
				for _, latency := range agg.Latencies() {
					visualization.DrawAggregate(out, agg.Concat(latency))
				}
				return nil
			},
		},
		{
			Name:  "plot",
			Help:  "Plot the mean duration of every action against the cluster size",
			Flags: func(cmd *kingpin.CmdClause) { plot.register(cmd, true) },
			Handler: func() error {
				agg, err := plot.run()
				if err != nil {
					return err
				}
				for _, latency := range agg.Latencies() {
					visualization.Plot(out, agg.Concat(latency), "Latency "+latency+"ms")
				}
				return nil
			},
		},
		{
			Name: "csv",
			Help: "Write the aggregated results as CSV",
			Flags: func(cmd *kingpin.CmdClause) {
				csv.register(cmd, true)
				csvOutput = cmd.Flag("output", "CSV file to write, stdout when empty").String()
			},
			Handler: func() error {
				agg, err := csv.run()
				if err != nil {
					return err
				}
				var tables []*analysis.Table
				for _, latency := range agg.Latencies() {
					tables = append(tables, agg.Concat(latency))
				}
				return writeCSV(out, *csvOutput, tables)
			},
		},
	}
}

// writeCSV writes tables to out, or to the file at path when set.
func writeCSV(out io.Writer, path string, tables []*analysis.Table) error {
	if path == "" {
		return visualization.WriteCSV(out, tables...)
	}
	var buffer bytes.Buffer
	if err := visualization.WriteCSV(&buffer, tables...); err != nil {
		return err
	}
	return errors.Wrapf(fs.WriteFileAtomic(path, buffer.Bytes(), 0644), "cannot write %s", path)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case conf.IsUsageError(err):
		return experiment.ExUsage
	}
	return 1
}

func main() {
	conf.SetAppName("analysis")
	conf.SetHelp("Analyse your results from juice experiments")

	err := commands(os.Stdout).Dispatch(os.Args[1:])
	if err != nil {
		logrus.Debugf("%+v", err)
		logrus.Error(err)
		if conf.IsUsageError(err) {
			conf.Usage(os.Args[1:])
		}
	}
	os.Exit(exitCode(err))
}
