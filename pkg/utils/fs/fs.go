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

package fs

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Exists reports whether something is present under path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Resolve returns an absolute path of given path with every symlink evaluated.
// Path does not need to exist: the deepest existing parent is resolved and
// the rest is joined back.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot get absolute path of %q", path)
	}

	rest := ""
	current := abs
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "cannot resolve %q", current)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(current), rest)
		current = parent
	}
}

// WriteFileAtomic writes data to a temporary file in the same directory and renames it
// over the destination.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := ioutil.TempFile(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		return errors.Wrapf(err, "cannot create temporary file in %q", dir)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "cannot write %q", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "cannot close %q", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return errors.Wrapf(err, "cannot chmod %q", tmp.Name())
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "cannot move %q to %q", tmp.Name(), path)
}
