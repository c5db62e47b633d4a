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
	"testing"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/spf13/afero"
	"gotest.tools/v3/assert"
)

func envLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func helpersFs(t *testing.T, names ...string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, name := range names {
		assert.NilError(t, afero.WriteFile(fs, name, []byte("#!/bin/sh\n"), 0o755))
	}
	return fs
}

func TestLocate(t *testing.T) {
	two := []specs.LinuxIDMapping{
		{ContainerID: 0, HostID: 1000, Size: 1},
		{ContainerID: 1, HostID: 100000, Size: 65536},
	}

	tests := []struct {
		name    string
		linux   *specs.Linux
		fs      afero.Fs
		env     map[string]string
		want    *MapBinaries
		wantErr func(*testing.T, error)
	}{
		{
			name:  "no uid mappings",
			linux: &specs.Linux{},
			fs:    afero.NewMemMapFs(),
			env:   map[string]string{},
		},
		{
			name:  "single uid mapping",
			linux: &specs.Linux{UIDMappings: two[:1], GIDMappings: two},
			fs:    afero.NewMemMapFs(),
			env:   map[string]string{},
		},
		{
			name:  "multiple mappings",
			linux: &specs.Linux{UIDMappings: two, GIDMappings: two},
			fs:    helpersFs(t, "/usr/bin/newuidmap", "/usr/bin/newgidmap", "/bin/newgidmap"),
			env:   map[string]string{"PATH": "/usr/local/bin:/usr/bin:/bin"},
			want:  &MapBinaries{NewUIDMap: "/usr/bin/newuidmap", NewGIDMap: "/usr/bin/newgidmap"},
		},
		{
			name:  "empty uid mappings",
			linux: &specs.Linux{UIDMappings: []specs.LinuxIDMapping{}, GIDMappings: two},
			fs:    helpersFs(t, "/usr/bin/newuidmap", "/usr/bin/newgidmap"),
			env:   map[string]string{"PATH": "/usr/bin"},
			want:  &MapBinaries{NewUIDMap: "/usr/bin/newuidmap", NewGIDMap: "/usr/bin/newgidmap"},
		},
		{
			name:  "multiple uid mappings single gid mapping",
			linux: &specs.Linux{UIDMappings: two, GIDMappings: two[:1]},
			fs:    helpersFs(t, "/usr/bin/newuidmap", "/bin/newgidmap"),
			env:   map[string]string{"PATH": "/usr/bin:/bin"},
			want:  &MapBinaries{NewUIDMap: "/usr/bin/newuidmap", NewGIDMap: "/bin/newgidmap"},
		},
		{
			name:  "PATH unset",
			linux: &specs.Linux{UIDMappings: two, GIDMappings: two},
			fs:    helpersFs(t, "/usr/bin/newuidmap", "/usr/bin/newgidmap"),
			env:   map[string]string{},
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrPathLookup)
			},
		},
		{
			name:  "newgidmap missing",
			linux: &specs.Linux{UIDMappings: two, GIDMappings: two},
			fs:    helpersFs(t, "/usr/bin/newuidmap"),
			env:   map[string]string{"PATH": "/usr/bin"},
			wantErr: func(t *testing.T, err error) {
				var e *MissingHelperError
				assert.Assert(t, errors.As(err, &e))
				assert.Equal(t, e.Name, "newgidmap")
			},
		},
		{
			name:  "newuidmap missing",
			linux: &specs.Linux{UIDMappings: two, GIDMappings: two},
			fs:    helpersFs(t, "/usr/bin/newgidmap"),
			env:   map[string]string{"PATH": "/usr/bin"},
			wantErr: func(t *testing.T, err error) {
				var e *MissingHelperError
				assert.Assert(t, errors.As(err, &e))
				assert.Equal(t, e.Name, "newuidmap")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Locator{Fs: tt.fs, LookupEnv: envLookup(tt.env)}
			got, err := l.Locate(tt.linux)
			if tt.wantErr != nil {
				tt.wantErr(t, err)
				return
			}
			assert.NilError(t, err)
			assert.DeepEqual(t, got, tt.want)
		})
	}
}
