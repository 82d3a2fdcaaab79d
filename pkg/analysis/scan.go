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
	"io/ioutil"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/Marie-Donnie/juice/pkg/archive"
	"github.com/Marie-Donnie/juice/pkg/utils/fs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// BackupDir is the directory of a result directory holding the backups of every role.
	BackupDir = "backup"
	// ResultsDir is where rally reports are unpacked.
	ResultsDir = "results"
)

var (
	dirNamePattern = regexp.MustCompile(`^(maria|cockroach|galera)(db)?-(\d{1,3})-(\d{1,3})(ms)?(-(\w+))?$`)
	backupPattern  = regexp.MustCompile(`(maria|cockroach|galera)`)
	bundlePattern  = regexp.MustCompile(`^rally-.*grid5000\.fr\.tar\.gz$`)
)

// DirInfo is what the name of a result directory tells about its experiment.
type DirInfo struct {
	// Family is the database short code: maria, cockroach or galera.
	Family   string
	Nodes    int
	Latency  string
	Locality string
}

// DB returns the full database name.
func (d DirInfo) DB() string {
	if d.Family == "galera" {
		return d.Family
	}
	return d.Family + "db"
}

// ParseDirName parses names like cockroachdb-25-50-nonlocal.
func ParseDirName(name string) (DirInfo, error) {
	match := dirNamePattern.FindStringSubmatch(name)
	if match == nil {
		return DirInfo{}, errors.Errorf("%q does not match the result directory pattern", name)
	}
	nodes, err := strconv.Atoi(match[3])
	if err != nil {
		return DirInfo{}, errors.Wrapf(err, "invalid node count in %q", name)
	}
	return DirInfo{
		Family:   match[1],
		Nodes:    nodes,
		Latency:  match[4],
		Locality: match[7],
	}, nil
}

// Scan returns the result directories found directly under root.
// Problems with root itself are logged and yield no directory.
func Scan(root string) []string {
	if !fs.Exists(root) {
		logrus.Errorf("NotFound: %s does not exist", root)
		return nil
	}
	if !fs.IsDir(root) {
		logrus.Errorf("NotADirectory: %s is not a directory", root)
		return nil
	}

	children, err := ioutil.ReadDir(root)
	if err != nil {
		logrus.Errorf("Cannot list %s: %v", root, err)
		return nil
	}

	var dirs []string
	for _, child := range children {
		name := child.Name()
		if !dirNamePattern.MatchString(name) {
			logrus.Warnf("%s does not match the correct pattern", name)
			continue
		}
		path := filepath.Join(root, name)
		if !fs.IsDir(filepath.Join(path, BackupDir)) {
			logrus.Warnf("No backup folder in %s", name)
			continue
		}
		dirs = append(dirs, path)
	}
	return dirs
}

// FindBundle returns the rally bundle backed up in result directory dir.
func FindBundle(dir string) (string, error) {
	backup := filepath.Join(dir, BackupDir)
	hosts, err := ioutil.ReadDir(backup)
	if err != nil {
		return "", errors.Wrapf(err, "cannot list %s", backup)
	}
	for _, host := range hosts {
		hostDir := filepath.Join(backup, host.Name())
		if !backupPattern.MatchString(host.Name()) || !fs.IsDir(hostDir) {
			continue
		}
		files, err := ioutil.ReadDir(hostDir)
		if err != nil {
			return "", errors.Wrapf(err, "cannot list %s", hostDir)
		}
		for _, file := range files {
			path := filepath.Join(hostDir, file.Name())
			if bundlePattern.MatchString(file.Name()) && archive.IsTarGz(path) {
				logrus.Debugf("Found rally bundle %s", path)
				return path, nil
			}
		}
	}
	return "", errors.Errorf("no rally bundle in %s", backup)
}

// Unpack extracts the rally bundle of dir into dir/results.
func Unpack(dir string, opts archive.Options) ([]string, error) {
	bundle, err := FindBundle(dir)
	if err != nil {
		return nil, err
	}
	return archive.Extract(bundle, filepath.Join(dir, ResultsDir), opts)
}
