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

// Package archive extracts result bundles produced by the load generator while refusing
// entries that would land outside the extraction directory.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultSuffix selects rally task reports.
	DefaultSuffix = ".json"
	// DefaultStripPrefix is the directory rally reports are archived under.
	DefaultStripPrefix = "rally_home/"
)

// Options of Extract.
type Options struct {
	// Suffix an entry name must end with to be extracted.
	Suffix string
	// StripPrefix is removed from entry names before writing.
	StripPrefix string
}

// DefaultOptions returns options extracting rally reports.
func DefaultOptions() Options {
	return Options{Suffix: DefaultSuffix, StripPrefix: DefaultStripPrefix}
}

// resolveBase returns the absolute, symlink free form of dir, creating it if needed.
func resolveBase(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve %q", dir)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", errors.Wrapf(err, "cannot create %q", abs)
	}
	base, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve %q", abs)
	}
	return base, nil
}

// resolve returns the path name would occupy when extracted in base.
func resolve(base, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(base, name)
}

func within(base, path string) bool {
	return path == base || strings.HasPrefix(path, base+string(filepath.Separator))
}

func isLink(header *tar.Header) bool {
	return header.Typeflag == tar.TypeSymlink || header.Typeflag == tar.TypeLink
}

// safe tells whether the entry, once written under name, stays inside base, logging the
// reason when it does not. Only the lexical form is checked here; write checks the
// directories actually on disk.
func safe(base, name string, header *tar.Header) bool {
	path := resolve(base, name)
	if !within(base, path) {
		logrus.Warnf("Blocked: illegal path %q", header.Name)
		return false
	}
	if isLink(header) {
		target := resolve(filepath.Dir(path), header.Linkname)
		if !within(base, target) {
			logrus.Warnf("Blocked: unsafe link %q -> %q", header.Name, header.Linkname)
			return false
		}
	}
	return true
}

// maxLinks bounds the symlinks followed by realPath.
const maxLinks = 255

// realPath resolves every existing symlink of path, component by component, so that
// ".." applies to the resolved directory. Components that cannot be read are kept as
// they are. It fails only on link loops.
func realPath(path string) (string, error) {
	hops := 0
	return walk(path, &hops)
}

func walk(path string, hops *int) (string, error) {
	sep := string(filepath.Separator)
	resolved := sep
	parts := strings.Split(path, sep)
	for i, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}
		next := filepath.Join(resolved, part)
		info, err := os.Lstat(next)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			resolved = next
			continue
		}

		*hops++
		if *hops > maxLinks {
			return "", errors.Errorf("too many links resolving %q", path)
		}
		target, err := os.Readlink(next)
		if err != nil {
			return "", errors.Wrapf(err, "cannot resolve %q", path)
		}
		if !filepath.IsAbs(target) {
			target = resolved + sep + target
		}
		return walk(target+sep+strings.Join(parts[i+1:], sep), hops)
	}
	return resolved, nil
}

// destination returns the symlink free path of name under base, creating its parent
// directories. ok is false when the parent resolves outside base.
func destination(base, name string) (path string, ok bool, err error) {
	lexical := resolve(base, name)
	parent, err := realPath(filepath.Dir(lexical))
	if err != nil || !within(base, parent) {
		return "", false, nil
	}
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", false, errors.Wrapf(err, "cannot create directory for %q", lexical)
	}
	return filepath.Join(parent, filepath.Base(lexical)), true, nil
}

// IsTarGz reports whether path is a readable gzip compressed tar archive.
func IsTarGz(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return false
	}
	defer gz.Close()

	_, err = tar.NewReader(gz).Next()
	return err == nil || err == io.EOF
}

// Extract writes the safe entries of the gzip compressed tar bundle whose names end with
// opts.Suffix into targetDir and returns the written paths.
// Unsafe entries are logged and skipped.
func Extract(bundle, targetDir string, opts Options) ([]string, error) {
	base, err := resolveBase(targetDir)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(bundle)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open bundle %q", bundle)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "%q is not gzip compressed", bundle)
	}
	defer gz.Close()

	var extracted, links []string
	reader := tar.NewReader(gz)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return extracted, errors.Wrapf(err, "cannot read bundle %q", bundle)
		}

		name := strings.TrimPrefix(header.Name, opts.StripPrefix)
		if !safe(base, name, header) || !strings.HasSuffix(header.Name, opts.Suffix) {
			continue
		}
		if name == "" || resolve(base, name) == base {
			continue
		}

		path, ok, err := destination(base, name)
		if err != nil {
			return extracted, err
		}
		if !ok {
			logrus.Warnf("Blocked: illegal path %q", header.Name)
			continue
		}

		written, err := write(base, path, header, reader, opts)
		if err != nil {
			return extracted, err
		}
		if !written {
			continue
		}
		extracted = append(extracted, path)
		if header.Typeflag == tar.TypeSymlink {
			links = append(links, path)
		}
	}

	// A later entry can change what an earlier link resolves to.
	extracted, err = dropEscapingLinks(base, extracted, links)
	if err != nil {
		return extracted, err
	}

	logrus.Debugf("Extracted %d files from %s", len(extracted), bundle)
	return extracted, nil
}

// unlinkExisting removes whatever non directory entry exists at path so that nothing is
// written through a previously extracted link. It returns false when a directory is in the way.
func unlinkExisting(path string) (bool, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "cannot stat %q", path)
	}
	if info.IsDir() {
		logrus.Warnf("Skipping %q: a directory is in the way", path)
		return false, nil
	}
	return true, errors.Wrapf(os.Remove(path), "cannot replace %q", path)
}

func write(base, path string, header *tar.Header, reader io.Reader, opts Options) (bool, error) {
	switch header.Typeflag {
	case tar.TypeReg:
		if free, err := unlinkExisting(path); !free || err != nil {
			return false, err
		}
		out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			return false, errors.Wrapf(err, "cannot create %q", path)
		}
		if _, err := io.Copy(out, reader); err != nil {
			out.Close()
			return false, errors.Wrapf(err, "cannot write %q", path)
		}
		if err := out.Close(); err != nil {
			return false, errors.Wrapf(err, "cannot close %q", path)
		}
		return true, nil
	case tar.TypeSymlink:
		target := header.Linkname
		if !filepath.IsAbs(target) {
			target = filepath.Dir(path) + string(filepath.Separator) + target
		}
		resolved, err := realPath(target)
		if err != nil || !within(base, resolved) {
			logrus.Warnf("Blocked: unsafe link %q -> %q", header.Name, header.Linkname)
			return false, nil
		}
		if free, err := unlinkExisting(path); !free || err != nil {
			return false, err
		}
		if err := os.Symlink(header.Linkname, path); err != nil {
			return false, errors.Wrapf(err, "cannot link %q", path)
		}
		return true, nil
	case tar.TypeLink:
		target, err := realPath(resolve(base, strings.TrimPrefix(header.Linkname, opts.StripPrefix)))
		var info os.FileInfo
		if err == nil {
			info, err = os.Lstat(target)
		}
		if err != nil || !within(base, target) || !info.Mode().IsRegular() {
			logrus.Warnf("Blocked: unsafe link %q -> %q", header.Name, header.Linkname)
			return false, nil
		}
		if free, err := unlinkExisting(path); !free || err != nil {
			return false, err
		}
		if err := os.Link(target, path); err != nil {
			return false, errors.Wrapf(err, "cannot link %q", path)
		}
		return true, nil
	default:
		return false, nil
	}
}

// dropEscapingLinks removes the extracted symlinks that now resolve outside base.
func dropEscapingLinks(base string, extracted, links []string) ([]string, error) {
	escaping := map[string]bool{}
	for _, link := range links {
		resolved, err := realPath(link)
		if err == nil && within(base, resolved) {
			continue
		}
		logrus.Warnf("Blocked: unsafe link %q", link)
		if err := os.Remove(link); err != nil {
			return extracted, errors.Wrapf(err, "cannot remove %q", link)
		}
		escaping[link] = true
	}
	if len(escaping) == 0 {
		return extracted, nil
	}
	kept := extracted[:0]
	for _, path := range extracted {
		if !escaping[path] {
			kept = append(kept, path)
		}
	}
	return kept, nil
}
