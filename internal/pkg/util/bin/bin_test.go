// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package bin

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"gotest.tools/v3/assert"
)

func TestFindInPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NilError(t, afero.WriteFile(fs, "/usr/bin/newuidmap", nil, 0o755))
	assert.NilError(t, afero.WriteFile(fs, "/usr/local/bin/newuidmap", nil, 0o755))
	assert.NilError(t, afero.WriteFile(fs, "/opt/bin/newgidmap", nil, 0o644))
	assert.NilError(t, fs.MkdirAll("/sbin/newgidmap", 0o755))

	tests := []struct {
		name       string
		searchPath string
		binary     string
		want       string
		wantErr    error
	}{
		{
			name:       "first directory wins",
			searchPath: "/usr/local/bin:/usr/bin",
			binary:     "newuidmap",
			want:       "/usr/local/bin/newuidmap",
		},
		{
			name:       "order respected",
			searchPath: "/usr/bin:/usr/local/bin",
			binary:     "newuidmap",
			want:       "/usr/bin/newuidmap",
		},
		{
			name:       "empty elements skipped",
			searchPath: "::/invalid/dir::/usr/bin",
			binary:     "newuidmap",
			want:       "/usr/bin/newuidmap",
		},
		{
			name:       "not executable",
			searchPath: "/opt/bin",
			binary:     "newgidmap",
			wantErr:    ErrNotFound,
		},
		{
			name:       "directory is not a binary",
			searchPath: "/sbin",
			binary:     "newgidmap",
			wantErr:    ErrNotFound,
		},
		{
			name:       "empty search path",
			searchPath: "",
			binary:     "newuidmap",
			wantErr:    ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindInPath(fs, tt.searchPath, tt.binary)
			if tt.wantErr != nil {
				assert.Assert(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, got, tt.want)
		})
	}
}

func TestFindInPathRejectsPaths(t *testing.T) {
	_, err := FindInPath(afero.NewMemMapFs(), "/usr/bin", "../bin/newuidmap")
	assert.ErrorContains(t, err, "not a bare executable name")
}

func TestFindBinUnknown(t *testing.T) {
	_, err := FindBin("cp")
	assert.ErrorContains(t, err, `unknown executable name "cp"`)
}
