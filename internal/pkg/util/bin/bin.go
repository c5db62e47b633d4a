// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package bin provides access to external binaries
package bin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apptainer/rootless/pkg/sylog"
	"github.com/spf13/afero"
)

// ErrNotFound is returned when no directory of the search
// path holds an executable with the requested name.
var ErrNotFound = errors.New("executable file not found in search path")

// FindInPath scans every directory of the colon separated searchPath, in
// order, and returns the first regular file named name with at least one
// executable bit set. Empty elements are skipped rather than meaning the
// current directory.
func FindInPath(fs afero.Fs, searchPath, name string) (string, error) {
	if strings.Contains(name, "/") {
		return "", fmt.Errorf("%q is not a bare executable name", name)
	}
	for _, dir := range filepath.SplitList(searchPath) {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, name)
		fi, err := fs.Stat(path)
		if err != nil {
			continue
		}
		if fi.Mode().IsRegular() && fi.Mode().Perm()&0o111 != 0 {
			sylog.Debugf("Found %q at %q", name, path)
			return path, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

// FindBin returns the path to one of the id mapping helpers, searching
// the user's PATH on the host filesystem.
func FindBin(name string) (string, error) {
	switch name {
	case "newgidmap", "newuidmap":
		return FindInPath(afero.NewOsFs(), os.Getenv("PATH"), name)
	}
	return "", fmt.Errorf("unknown executable name %q", name)
}
