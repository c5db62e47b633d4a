// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package rootless

import "golang.org/x/sys/unix"

// PrivilegeChecker answers whether the invoking host user is the superuser.
type PrivilegeChecker interface {
	Privileged() bool
}

// PrivilegeFunc adapts a function to the PrivilegeChecker interface.
type PrivilegeFunc func() bool

// Privileged calls f.
func (f PrivilegeFunc) Privileged() bool {
	return f()
}

// EUIDChecker reports the invoking user as privileged when its
// effective user ID is 0.
type EUIDChecker struct{}

// Privileged returns true when running with an effective user ID of 0.
func (EUIDChecker) Privileged() bool {
	return unix.Geteuid() == 0
}
