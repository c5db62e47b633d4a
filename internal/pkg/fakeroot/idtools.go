// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package fakeroot

import (
	"fmt"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/spf13/afero"
)

// GetIDRange returns the mapping of container ids 1 and above onto the
// subordinate range allotted to u in the subid file at path. Container
// id 0 is left for the user itself.
func GetIDRange(fs afero.Fs, path string, u *User, lookup LookupFunc) (*specs.LinuxIDMapping, error) {
	config, err := GetConfig(fs, path, lookup)
	if err != nil {
		return nil, err
	}
	e, err := config.GetUserEntry(u)
	if err != nil {
		return nil, err
	}
	if e.disabled {
		return nil, fmt.Errorf("your fakeroot mapping has been disabled by the administrator")
	}
	return &specs.LinuxIDMapping{
		ContainerID: 1,
		HostID:      e.Start,
		Size:        e.Count,
	}, nil
}

