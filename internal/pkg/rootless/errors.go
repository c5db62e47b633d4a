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
	"fmt"
	"strings"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

var (
	// ErrMissingPlatformSection is returned when the specification has no linux section.
	ErrMissingPlatformSection = errors.New("no linux section in container specification")
	// ErrMissingUserNamespace is returned when rootless operation is required
	// or validated and no user namespace is declared.
	ErrMissingUserNamespace = errors.New("rootless container requires valid user namespace definition")
	// ErrEmptyMappingList is returned when a mapping write is requested for zero entries.
	ErrEmptyMappingList = errors.New("at least one id mapping needs to be defined")
	// ErrSupplementaryGroupsForbidden is returned when an unprivileged user requests
	// additional groups, see CVE-2014-8989.
	ErrSupplementaryGroupsForbidden = errors.New("supplementary groups cannot be set in a rootless container by an unprivileged user (CVE-2014-8989)")
	// ErrPathLookup is returned when PATH is not set.
	ErrPathLookup = errors.New("could not find PATH")
)

// MissingMappingError reports an absent or empty uid or gid mapping list.
type MissingMappingError struct {
	Kind string
}

func (e *MissingMappingError) Error() string {
	return fmt.Sprintf("rootless containers require at least one %s mapping", e.Kind)
}

// InvalidMountOptionError reports a uid= or gid= mount option
// whose value is not an unsigned integer.
type InvalidMountOptionError struct {
	Mount  specs.Mount
	Option string
	Err    error
}

func (e *InvalidMountOptionError) Error() string {
	return fmt.Sprintf("mount %s specifies invalid option %s: %s", e.Mount.Destination, e.Option, e.Err)
}

func (e *InvalidMountOptionError) Unwrap() error {
	return e.Err
}

// UnmappedMountIDError reports a mount option referencing an id
// which is not mapped in the user namespace.
type UnmappedMountIDError struct {
	Mount specs.Mount
	Kind  string
	ID    uint32
}

func (e *UnmappedMountIDError) Error() string {
	return fmt.Sprintf("mount %s specifies option %s=%d which is not mapped inside the rootless container", e.Mount.Destination, e.Kind, e.ID)
}

// UnmappedSupplementaryGroupError reports an additional gid
// which is not mapped in the user namespace.
type UnmappedSupplementaryGroupError struct {
	GID uint32
}

func (e *UnmappedSupplementaryGroupError) Error() string {
	return fmt.Sprintf("gid %d is specified as supplementary group, but is not mapped in the user namespace", e.GID)
}

// MissingHelperError reports a mapping helper binary absent from PATH.
type MissingHelperError struct {
	Name string
}

func (e *MissingHelperError) Error() string {
	return fmt.Sprintf("%s binary could not be found in PATH, this is required if multiple id mappings are specified", e.Name)
}

// HelperExecutionError reports a mapping helper which could not be
// started or exited with a non zero status.
type HelperExecutionError struct {
	Path   string
	Status int
	Stderr string
	Err    error
}

func (e *HelperExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to execute %s", e.Path)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %s", e.Err)
	} else {
		fmt.Fprintf(&b, ": exit status %d", e.Status)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, ": %s", stderr)
	}
	return b.String()
}

func (e *HelperExecutionError) Unwrap() error {
	return e.Err
}

// SysctlParseError reports an unexpected unprivileged_userns_clone value.
type SysctlParseError struct {
	Value string
}

func (e *SysctlParseError) Error() string {
	return fmt.Sprintf("failed to parse unprivileged userns value: %q", e.Value)
}

// MappingWriteError reports a failed write to a uid_map or gid_map file.
type MappingWriteError struct {
	Path string
	Err  error
}

func (e *MappingWriteError) Error() string {
	return fmt.Sprintf("failed to write id mapping to %s: %s", e.Path, e.Err)
}

func (e *MappingWriteError) Unwrap() error {
	return e.Err
}
