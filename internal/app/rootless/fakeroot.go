// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package rootless

import (
	"github.com/apptainer/rootless/internal/pkg/fakeroot"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/opencontainers/runtime-tools/generate"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// FakerootOptions selects the subid files and the user FakerootSpec
// builds mappings for.
type FakerootOptions struct {
	Fs         afero.Fs
	User       *fakeroot.User
	SubUIDFile string
	SubGIDFile string
	Lookup     fakeroot.LookupFunc
}

// FakerootSpec turns spec into a fakeroot configuration: the process
// runs as root inside a new user namespace where container id 0 maps to
// the user and ids 1 and above map to the user's subordinate ranges.
func FakerootSpec(spec *specs.Spec, opts FakerootOptions) error {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.SubUIDFile == "" {
		opts.SubUIDFile = fakeroot.SubUIDFile
	}
	if opts.SubGIDFile == "" {
		opts.SubGIDFile = fakeroot.SubGIDFile
	}
	u := opts.User
	if u == nil {
		var err error
		if u, err = fakeroot.CurrentUser(); err != nil {
			return errors.Wrap(err, "while retrieving current user")
		}
	}

	uidRange, err := fakeroot.GetIDRange(opts.Fs, opts.SubUIDFile, u, opts.Lookup)
	if err != nil {
		return errors.Wrap(err, "could not use fakeroot")
	}
	gidRange, err := fakeroot.GetIDRange(opts.Fs, opts.SubGIDFile, u, opts.Lookup)
	if err != nil {
		return errors.Wrap(err, "could not use fakeroot")
	}

	g := generate.NewFromSpec(spec)
	// replacing drops any path, the container needs its own namespace
	if err := g.AddOrReplaceLinuxNamespace(string(specs.UserNamespace), ""); err != nil {
		return err
	}

	g.ClearLinuxUIDMappings()
	g.AddLinuxUIDMapping(u.UID, 0, 1)
	g.AddLinuxUIDMapping(uidRange.HostID, uidRange.ContainerID, uidRange.Size)

	g.ClearLinuxGIDMappings()
	g.AddLinuxGIDMapping(u.GID, 0, 1)
	g.AddLinuxGIDMapping(gidRange.HostID, gidRange.ContainerID, gidRange.Size)

	g.SetProcessUID(0)
	g.SetProcessGID(0)
	return nil
}
