// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package rootless

import (
	"strconv"
	"strings"

	"github.com/apptainer/rootless/pkg/sylog"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/samber/lo"
)

// Validate checks that spec complies with the requirements of a rootless
// container. privileged tells whether the invoking host user is root,
// which relaxes the supplementary group policy. The first violation found
// is returned.
func Validate(spec *specs.Spec, privileged bool) error {
	linux := spec.Linux
	if linux == nil {
		return ErrMissingPlatformSection
	}
	if _, ok := userNamespace(linux); !ok {
		return ErrMissingUserNamespace
	}

	if len(linux.UIDMappings) == 0 {
		return &MissingMappingError{Kind: "uid"}
	}
	if len(linux.GIDMappings) == 0 {
		return &MissingMappingError{Kind: "gid"}
	}

	if err := validateMounts(spec.Mounts, linux.UIDMappings, linux.GIDMappings); err != nil {
		return err
	}

	if spec.Process == nil {
		return nil
	}
	return validateAdditionalGids(spec.Process.User.AdditionalGids, linux.GIDMappings, privileged)
}

func validateMounts(mounts []specs.Mount, uidMappings, gidMappings []specs.LinuxIDMapping) error {
	for _, mount := range mounts {
		for _, opt := range mount.Options {
			kind, value, ok := strings.Cut(opt, "=")
			if !ok || (kind != "uid" && kind != "gid") {
				continue
			}
			id, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return &InvalidMountOptionError{Mount: mount, Option: opt, Err: err}
			}

			mappings := uidMappings
			if kind == "gid" {
				mappings = gidMappings
			}
			if !IsIDMapped(uint32(id), mappings) {
				return &UnmappedMountIDError{Mount: mount, Kind: kind, ID: uint32(id)}
			}
		}
	}
	return nil
}

func validateAdditionalGids(gids []uint32, gidMappings []specs.LinuxIDMapping, privileged bool) error {
	if len(gids) == 0 {
		return nil
	}
	// the kernel applies supplementary groups before entering the
	// new user namespace, no mapping makes them safe for a
	// non root user
	if !privileged {
		sylog.Debugf("Refusing %d supplementary groups for unprivileged user", len(gids))
		return ErrSupplementaryGroupsForbidden
	}
	for _, gid := range gids {
		if !IsIDMapped(gid, gidMappings) {
			return &UnmappedSupplementaryGroupError{GID: gid}
		}
	}
	return nil
}

// IsIDMapped reports whether id falls within one of mappings. Both ends are
// inclusive: ContainerID+Size itself is considered mapped.
func IsIDMapped(id uint32, mappings []specs.LinuxIDMapping) bool {
	return lo.ContainsBy(mappings, func(m specs.LinuxIDMapping) bool {
		return uint64(id) >= uint64(m.ContainerID) &&
			uint64(id) <= uint64(m.ContainerID)+uint64(m.Size)
	})
}
