// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package rootless

import (
	"fmt"
	"io"

	rootlessConfig "github.com/apptainer/rootless/internal/pkg/rootless"
	"github.com/apptainer/rootless/internal/pkg/util/bin"
	"github.com/apptainer/rootless/internal/pkg/util/env"
	"github.com/apptainer/rootless/pkg/sylog"
	"github.com/apptainer/rootless/pkg/util/namespaces"
	"github.com/opencontainers/runc/libcontainer/userns"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/spf13/afero"
)

// UsernsReport summarizes the user namespace situation of the calling
// process.
type UsernsReport struct {
	InUserNamespace    bool                   `json:"inUserNamespace" yaml:"inUserNamespace"`
	Setgroups          bool                   `json:"setgroups" yaml:"setgroups"`
	Unprivileged       bool                   `json:"unprivileged" yaml:"unprivileged"`
	UnprivilegedClone  bool                   `json:"unprivilegedClone" yaml:"unprivilegedClone"`
	RootlessOverride   bool                   `json:"rootlessOverride" yaml:"rootlessOverride"`
	HostUID            uint32                 `json:"hostUid" yaml:"hostUid"`
	HostGID            uint32                 `json:"hostGid" yaml:"hostGid"`
	NewUIDMap          string                 `json:"newuidmap,omitempty" yaml:"newuidmap,omitempty"`
	NewGIDMap          string                 `json:"newgidmap,omitempty" yaml:"newgidmap,omitempty"`
	UIDMappings        []specs.LinuxIDMapping `json:"uidMappings,omitempty" yaml:"uidMappings,omitempty"`
	GIDMappings        []specs.LinuxIDMapping `json:"gidMappings,omitempty" yaml:"gidMappings,omitempty"`
	UnprivilegedDetail string                 `json:"unprivilegedCloneError,omitempty" yaml:"unprivilegedCloneError,omitempty"`
}

// UsernsOptions holds the sources UsernsInfo reads from. A nil Fs
// means the host filesystem, a nil LookupEnv means os.LookupEnv.
type UsernsOptions struct {
	Fs        afero.Fs
	LookupEnv env.LookupFunc
}

// UsernsInfo gathers a UsernsReport.
func UsernsInfo(opts UsernsOptions) (*UsernsReport, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	r := &UsernsReport{
		InUserNamespace:  userns.RunningInUserNS(),
		Unprivileged:     namespaces.IsUnprivileged(fs),
		RootlessOverride: env.IsTrue(opts.LookupEnv, env.UseRootless),
	}
	_, r.Setgroups = namespaces.IsInsideUserNamespace(fs, 0)

	enabled, err := rootlessConfig.UnprivilegedUserNamespacesEnabled(fs)
	if err != nil {
		// an unexpected knob value is reported, not fatal
		sylog.Warningf("%s", err)
		r.UnprivilegedDetail = err.Error()
	}
	r.UnprivilegedClone = enabled

	if r.HostUID, err = namespaces.HostUID(fs); err != nil {
		return nil, err
	}
	if r.HostGID, err = namespaces.HostGID(fs); err != nil {
		return nil, err
	}

	// helpers are only reported, their absence is not an error here
	if r.NewUIDMap, err = bin.FindBin("newuidmap"); err != nil {
		sylog.Debugf("%s", err)
	}
	if r.NewGIDMap, err = bin.FindBin("newgidmap"); err != nil {
		sylog.Debugf("%s", err)
	}

	if r.UIDMappings, err = namespaces.ReadIDMap(fs, 0, namespaces.UIDMap); err != nil {
		sylog.Debugf("Could not read uid map: %s", err)
	}
	if r.GIDMappings, err = namespaces.ReadIDMap(fs, 0, namespaces.GIDMap); err != nil {
		sylog.Debugf("Could not read gid map: %s", err)
	}
	return r, nil
}

// Encode writes r to w in the requested format.
func (r *UsernsReport) Encode(w io.Writer, format string) error {
	if format == FormatText || format == "" {
		fmt.Fprintf(w, "in user namespace: %t\n", r.InUserNamespace)
		fmt.Fprintf(w, "setgroups allowed: %t\n", r.Setgroups)
		fmt.Fprintf(w, "unprivileged: %t\n", r.Unprivileged)
		fmt.Fprintf(w, "unprivileged user namespaces: %t\n", r.UnprivilegedClone)
		fmt.Fprintf(w, "rootless forced: %t\n", r.RootlessOverride)
		fmt.Fprintf(w, "host uid/gid: %d/%d\n", r.HostUID, r.HostGID)
		fmt.Fprintf(w, "newuidmap: %s\n", orNone(r.NewUIDMap))
		fmt.Fprintf(w, "newgidmap: %s\n", orNone(r.NewGIDMap))
		for _, m := range r.UIDMappings {
			fmt.Fprintf(w, "uid map: %d %d %d\n", m.ContainerID, m.HostID, m.Size)
		}
		for _, m := range r.GIDMappings {
			fmt.Fprintf(w, "gid map: %d %d %d\n", m.ContainerID, m.HostID, m.Size)
		}
		return nil
	}
	return encode(w, r, format)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
