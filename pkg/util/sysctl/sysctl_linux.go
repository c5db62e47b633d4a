// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package sysctl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const procSys = "/proc/sys"

// Path returns the procfs path backing a dotted sysctl key,
// kernel.unprivileged_userns_clone gives
// /proc/sys/kernel/unprivileged_userns_clone.
func Path(key string) string {
	return filepath.Join(procSys, strings.ReplaceAll(strings.TrimSpace(key), ".", string(os.PathSeparator)))
}

// Exists reports whether the sysctl key is exposed by the running kernel.
func Exists(fs afero.Fs, key string) (bool, error) {
	return afero.Exists(fs, Path(key))
}

// Get retrieves and returns the sysctl key value with surrounding
// whitespace removed.
func Get(fs afero.Fs, key string) (string, error) {
	value, err := afero.ReadFile(fs, Path(key))
	if err != nil {
		return "", fmt.Errorf("can't retrieve value for key %s: %s", key, err)
	}
	return strings.TrimSpace(string(value)), nil
}
