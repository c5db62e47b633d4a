// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package rootless

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/spf13/afero"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestUsernsInfo(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NilError(t, afero.WriteFile(fs, "/proc/self/uid_map", []byte("         0       1000          1\n"), 0o444))
	assert.NilError(t, afero.WriteFile(fs, "/proc/self/gid_map", []byte("         0       1000          1\n"), 0o444))
	assert.NilError(t, afero.WriteFile(fs, "/proc/self/setgroups", []byte("allow\n"), 0o444))
	assert.NilError(t, afero.WriteFile(fs, "/proc/sys/kernel/unprivileged_userns_clone", []byte("0\n"), 0o644))
	opts := UsernsOptions{Fs: fs, LookupEnv: envLookup(nil)}

	r, err := UsernsInfo(opts)
	assert.NilError(t, err)
	assert.Assert(t, r.Setgroups)
	assert.Assert(t, r.Unprivileged)
	wantUID := uint32(os.Getuid())
	if wantUID == 0 {
		wantUID = 1000
	}
	assert.Equal(t, r.HostUID, wantUID)
	assert.Assert(t, !r.UnprivilegedClone)
	assert.Equal(t, r.UnprivilegedDetail, "")
	assert.DeepEqual(t, r.UIDMappings, []specs.LinuxIDMapping{{ContainerID: 0, HostID: 1000, Size: 1}})
	assert.DeepEqual(t, r.GIDMappings, []specs.LinuxIDMapping{{ContainerID: 0, HostID: 1000, Size: 1}})

	var buf bytes.Buffer
	assert.NilError(t, r.Encode(&buf, FormatText))
	assert.Check(t, is.Contains(buf.String(), "unprivileged user namespaces: false\n"))
	assert.Check(t, is.Contains(buf.String(), "uid map: 0 1000 1\n"))

	buf.Reset()
	assert.NilError(t, r.Encode(&buf, FormatJSON))
	assert.Check(t, is.Contains(buf.String(), `"unprivilegedClone": false`))

	assert.NilError(t, afero.WriteFile(fs, "/proc/sys/kernel/unprivileged_userns_clone", []byte("maybe\n"), 0o644))
	r, err = UsernsInfo(opts)
	assert.NilError(t, err)
	assert.Check(t, is.Contains(r.UnprivilegedDetail, "maybe"))
}

func TestUsernsInfoRootlessOverride(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{name: "unset", want: false},
		{name: "true", env: map[string]string{"APPTAINER_USE_ROOTLESS": "true"}, want: true},
		{name: "not literal true", env: map[string]string{"APPTAINER_USE_ROOTLESS": "1"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the override is the variable alone, whoever runs the test
			r, err := UsernsInfo(UsernsOptions{Fs: afero.NewMemMapFs(), LookupEnv: envLookup(tt.env)})
			assert.NilError(t, err)
			assert.Equal(t, r.RootlessOverride, tt.want)

			var buf bytes.Buffer
			assert.NilError(t, r.Encode(&buf, FormatText))
			assert.Check(t, is.Contains(buf.String(), fmt.Sprintf("rootless forced: %t\n", tt.want)))
		})
	}
}

func envLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}
