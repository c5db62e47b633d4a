// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package rootless

import (
	"context"
	"errors"
	"testing"

	"github.com/apptainer/rootless/internal/pkg/util/env"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/spf13/afero"
	"gotest.tools/v3/assert"
)

func privilege(root bool) PrivilegeChecker {
	return PrivilegeFunc(func() bool { return root })
}

func TestFactoryRequired(t *testing.T) {
	tests := []struct {
		name     string
		root     bool
		env      map[string]string
		required bool
	}{
		{name: "unprivileged", root: false, env: map[string]string{}, required: true},
		{name: "root", root: true, env: map[string]string{}, required: false},
		{name: "root with override", root: true, env: map[string]string{env.UseRootless: "true"}, required: true},
		{name: "root with other override value", root: true, env: map[string]string{env.UseRootless: "yes"}, required: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Factory{Privilege: privilege(tt.root), LookupEnv: envLookup(tt.env)}
			assert.Equal(t, f.Required(), tt.required)
		})
	}
}

func TestFactoryNew(t *testing.T) {
	noUserNs := func(s *specs.Spec) { s.Linux.Namespaces = s.Linux.Namespaces[:1] }

	tests := []struct {
		name    string
		root    bool
		env     map[string]string
		modify  func(*specs.Spec)
		rootful bool
		wantErr func(*testing.T, error)
	}{
		{
			name: "unprivileged without user namespace",
			modify: noUserNs,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMissingUserNamespace)
			},
		},
		{
			name:    "root without user namespace",
			root:    true,
			modify:  noUserNs,
			rootful: true,
		},
		{
			name:   "root forced rootless without user namespace",
			root:   true,
			env:    map[string]string{env.UseRootless: "true"},
			modify: noUserNs,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMissingUserNamespace)
			},
		},
		{
			name: "joined user namespace",
			modify: func(s *specs.Spec) {
				s.Linux.Namespaces[1].Path = "/proc/1234/ns/user"
				// mappings are not looked at when joining
				s.Linux.UIDMappings = nil
			},
			rootful: true,
		},
		{
			name:   "missing linux section",
			modify: func(s *specs.Spec) { s.Linux = nil },
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMissingPlatformSection)
			},
		},
		{
			name: "validation failure",
			modify: func(s *specs.Spec) {
				s.Mounts = []specs.Mount{{Destination: "/data", Options: []string{"uid=50"}}}
			},
			wantErr: func(t *testing.T, err error) {
				var e *UnmappedMountIDError
				assert.Assert(t, errors.As(err, &e))
				assert.ErrorContains(t, err, "failed to comply to rootless requirements")
			},
		},
		{
			name:   "supplementary groups as unprivileged user",
			modify: func(s *specs.Spec) { s.Process.User.AdditionalGids = []uint32{100} },
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrSupplementaryGroupsForbidden)
			},
		},
		{
			name: "helpers required but missing",
			modify: func(s *specs.Spec) {
				s.Linux.UIDMappings = append(s.Linux.UIDMappings, specs.LinuxIDMapping{ContainerID: 10, HostID: 100000, Size: 10})
			},
			env: map[string]string{"PATH": "/nowhere"},
			wantErr: func(t *testing.T, err error) {
				var e *MissingHelperError
				assert.Assert(t, errors.As(err, &e))
			},
		},
		{
			name: "single mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := rootlessSpec()
			if tt.modify != nil {
				tt.modify(spec)
			}
			if tt.env == nil {
				tt.env = map[string]string{}
			}
			f := &Factory{
				Privilege: privilege(tt.root),
				LookupEnv: envLookup(tt.env),
				Fs:        afero.NewMemMapFs(),
			}

			c, err := f.New(spec)
			if tt.wantErr != nil {
				tt.wantErr(t, err)
				assert.Assert(t, c == nil)
				return
			}
			assert.NilError(t, err)
			if tt.rootful {
				assert.Assert(t, c == nil)
				return
			}
			assert.Assert(t, c != nil)
			assert.Assert(t, c.Binaries() == nil)
			assert.Equal(t, c.Privileged(), tt.root)
			assert.Equal(t, c.UserNamespace().Type, specs.UserNamespace)
			assert.DeepEqual(t, c.UIDMappings(), spec.Linux.UIDMappings)
		})
	}
}

func TestConfigViewsSpecMappings(t *testing.T) {
	spec := rootlessSpec()
	f := &Factory{Privilege: privilege(false), LookupEnv: envLookup(map[string]string{}), Fs: afero.NewMemMapFs()}

	c, err := f.New(spec)
	assert.NilError(t, err)

	// mapping lists are shared with the specification, not copied
	assert.Assert(t, &c.UIDMappings()[0] == &spec.Linux.UIDMappings[0])
	assert.Assert(t, &c.GIDMappings()[0] == &spec.Linux.GIDMappings[0])
}

type recordedRun struct {
	path string
	args []string
}

type fakeRunner struct {
	runs   []recordedRun
	status int
	stderr string
	err    error
}

func (r *fakeRunner) Run(_ context.Context, path string, args ...string) (int, []byte, error) {
	r.runs = append(r.runs, recordedRun{path: path, args: args})
	return r.status, []byte(r.stderr), r.err
}

func TestEndToEndMultipleMappings(t *testing.T) {
	spec := rootlessSpec()
	spec.Linux.UIDMappings = []specs.LinuxIDMapping{
		{ContainerID: 0, HostID: 1000, Size: 1},
		{ContainerID: 1, HostID: 100000, Size: 65536},
	}
	spec.Linux.GIDMappings = []specs.LinuxIDMapping{
		{ContainerID: 0, HostID: 1000, Size: 1},
		{ContainerID: 1, HostID: 200000, Size: 65536},
	}

	runner := &fakeRunner{}
	f := &Factory{
		Privilege: privilege(true),
		LookupEnv: envLookup(map[string]string{"PATH": "/usr/sbin:/usr/bin"}),
		Fs:        helpersFs(t, "/usr/bin/newuidmap", "/usr/bin/newgidmap"),
		Runner:    runner,
	}

	c, err := f.New(spec)
	assert.NilError(t, err)
	assert.Assert(t, c != nil)
	assert.DeepEqual(t, c.Binaries(), &MapBinaries{NewUIDMap: "/usr/bin/newuidmap", NewGIDMap: "/usr/bin/newgidmap"})
	assert.Assert(t, c.Privileged())

	ctx := context.Background()
	assert.NilError(t, c.WriteUIDMapping(ctx, 4242))
	assert.NilError(t, c.WriteGIDMapping(ctx, 4242))

	assert.DeepEqual(t, runner.runs, []recordedRun{
		{path: "/usr/bin/newuidmap", args: []string{"4242", "0", "1000", "1", "1", "100000", "65536"}},
		{path: "/usr/bin/newgidmap", args: []string{"4242", "0", "1000", "1", "1", "200000", "65536"}},
	}, cmpRecordedRun)
}
