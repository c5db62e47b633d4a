// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package rootless

import (
	"testing"

	"github.com/apptainer/rootless/internal/pkg/fakeroot"
	rootlessConfig "github.com/apptainer/rootless/internal/pkg/rootless"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/spf13/afero"
	"gotest.tools/v3/assert"
)

func TestFakerootSpec(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NilError(t, afero.WriteFile(fs, "/etc/subuid", []byte("alice:100000:65536\n"), 0o644))
	assert.NilError(t, afero.WriteFile(fs, "/etc/subgid", []byte("1000:200000:65536\n"), 0o644))

	lookup := func(name string) (*fakeroot.User, error) {
		return &fakeroot.User{Name: name, UID: 1000, GID: 1000}, nil
	}
	opts := FakerootOptions{
		Fs:     fs,
		User:   &fakeroot.User{Name: "alice", UID: 1000, GID: 1000},
		Lookup: lookup,
	}

	spec := testSpec()
	spec.Linux.Namespaces[1].Path = "/proc/1/ns/user"
	spec.Process.User = specs.User{UID: 1000, GID: 1000}

	assert.NilError(t, FakerootSpec(spec, opts))
	assert.DeepEqual(t, spec.Linux.Namespaces, []specs.LinuxNamespace{
		{Type: specs.MountNamespace},
		{Type: specs.UserNamespace},
	})
	assert.DeepEqual(t, spec.Linux.UIDMappings, []specs.LinuxIDMapping{
		{ContainerID: 0, HostID: 1000, Size: 1},
		{ContainerID: 1, HostID: 100000, Size: 65536},
	})
	assert.DeepEqual(t, spec.Linux.GIDMappings, []specs.LinuxIDMapping{
		{ContainerID: 0, HostID: 1000, Size: 1},
		{ContainerID: 1, HostID: 200000, Size: 65536},
	})
	assert.Equal(t, spec.Process.User.UID, uint32(0))
	assert.Equal(t, spec.Process.User.GID, uint32(0))

	// the result passes validation and needs the mapping helpers
	r, err := Check(spec, unprivilegedFactory(fs))
	assert.ErrorIs(t, err, rootlessConfig.ErrPathLookup)
	assert.Assert(t, r == nil)

	// without Linux section or user namespace
	spec = &specs.Spec{}
	assert.NilError(t, FakerootSpec(spec, opts))
	assert.DeepEqual(t, spec.Linux.Namespaces, []specs.LinuxNamespace{{Type: specs.UserNamespace}})

	opts.User = &fakeroot.User{Name: "bob", UID: 1001}
	assert.ErrorContains(t, FakerootSpec(&specs.Spec{}, opts), "could not use fakeroot")
}
