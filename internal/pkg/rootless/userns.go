// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package rootless

import (
	"github.com/apptainer/rootless/pkg/util/sysctl"
	"github.com/spf13/afero"
)

const unprivilegedUsernsClone = "kernel.unprivileged_userns_clone"

// UnprivilegedUserNamespacesEnabled reports whether unprivileged users are
// allowed to create user namespaces. Kernels without the
// kernel.unprivileged_userns_clone knob always allow it. The result is
// advisory, acting on it is left to the caller.
func UnprivilegedUserNamespacesEnabled(fs afero.Fs) (bool, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	exists, err := sysctl.Exists(fs, unprivilegedUsernsClone)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}

	value, err := sysctl.Get(fs, unprivilegedUsernsClone)
	if err != nil {
		return false, err
	}
	switch value {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, &SysctlParseError{Value: value}
}
