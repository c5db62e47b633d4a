// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package rootless

import (
	"errors"

	"github.com/apptainer/rootless/internal/pkg/util/bin"
	"github.com/apptainer/rootless/internal/pkg/util/env"
	"github.com/apptainer/rootless/pkg/sylog"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/spf13/afero"
)

const (
	newuidmap = "newuidmap"
	newgidmap = "newgidmap"
)

// MapBinaries holds the location of the setuid helpers used
// to write multiple id mappings.
type MapBinaries struct {
	NewUIDMap string
	NewGIDMap string
}

// Locator finds the newuidmap and newgidmap helpers.
type Locator struct {
	Fs        afero.Fs
	LookupEnv env.LookupFunc
}

// Locate returns the helper locations required to apply the mappings
// of linux, or nil when they can be written directly. The decision is
// only based on the uid mappings, both helpers are always looked up
// together.
func (l *Locator) Locate(linux *specs.Linux) (*MapBinaries, error) {
	if linux == nil || linux.UIDMappings == nil {
		return nil, nil
	}
	// an unprivileged process can write a single
	// mapping entry itself
	if len(linux.UIDMappings) == 1 {
		return nil, nil
	}

	uidmap, err := l.lookup(newuidmap)
	if err != nil {
		return nil, err
	}
	gidmap, err := l.lookup(newgidmap)
	if err != nil {
		return nil, err
	}
	return &MapBinaries{NewUIDMap: uidmap, NewGIDMap: gidmap}, nil
}

func (l *Locator) lookup(name string) (string, error) {
	searchPath, ok := env.SearchPath(l.LookupEnv)
	if !ok {
		return "", ErrPathLookup
	}

	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	sylog.Debugf("Search for %s binary", name)
	path, err := bin.FindInPath(fs, searchPath, name)
	if errors.Is(err, bin.ErrNotFound) {
		return "", &MissingHelperError{Name: name}
	} else if err != nil {
		return "", err
	}
	return path, nil
}
