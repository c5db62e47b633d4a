// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package rootless implements the actions of the rootless command.
package rootless

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	rootlessConfig "github.com/apptainer/rootless/internal/pkg/rootless"
	"github.com/apptainer/rootless/pkg/sylog"
	"github.com/blang/semver/v4"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// Output formats accepted by CheckResult.Encode.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const configFile = "config.json"

// LoadSpec reads a container configuration. path is either a bundle
// directory holding config.json or the configuration file itself.
func LoadSpec(fs afero.Fs, path string) (*specs.Spec, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if isDir, err := afero.IsDir(fs, path); err == nil && isDir {
		path = filepath.Join(path, configFile)
	}

	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "while reading %s", path)
	}
	spec := new(specs.Spec)
	if err := json.Unmarshal(b, spec); err != nil {
		return nil, errors.Wrapf(err, "while decoding %s", path)
	}
	if err := checkVersion(spec.Version); err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return spec, nil
}

// checkVersion rejects configurations written for another major version
// of the runtime specification.
func checkVersion(version string) error {
	if version == "" {
		sylog.Debugf("No OCI version in container configuration, assuming %s", specs.Version)
		return nil
	}
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return fmt.Errorf("bad OCI version %q: %s", version, err)
	}
	if v.Major != specs.VersionMajor {
		return fmt.Errorf("unsupported OCI version %s, expected %d.x", version, specs.VersionMajor)
	}
	return nil
}

// CheckResult describes the rootless setup a specification requires.
type CheckResult struct {
	Rootless    bool                   `json:"rootless" yaml:"rootless"`
	Privileged  bool                   `json:"privileged" yaml:"privileged"`
	NewUIDMap   string                 `json:"newuidmap,omitempty" yaml:"newuidmap,omitempty"`
	NewGIDMap   string                 `json:"newgidmap,omitempty" yaml:"newgidmap,omitempty"`
	UIDMappings []specs.LinuxIDMapping `json:"uidMappings,omitempty" yaml:"uidMappings,omitempty"`
	GIDMappings []specs.LinuxIDMapping `json:"gidMappings,omitempty" yaml:"gidMappings,omitempty"`
}

// Check builds the rootless context of spec with factory and reports it.
// A nil factory uses the process environment.
func Check(spec *specs.Spec, factory *rootlessConfig.Factory) (*CheckResult, error) {
	c, err := newConfig(spec, factory)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &CheckResult{}, nil
	}

	r := &CheckResult{
		Rootless:    true,
		Privileged:  c.Privileged(),
		UIDMappings: c.UIDMappings(),
		GIDMappings: c.GIDMappings(),
	}
	if b := c.Binaries(); b != nil {
		r.NewUIDMap = b.NewUIDMap
		r.NewGIDMap = b.NewGIDMap
	}
	return r, nil
}

// Encode writes r to w in the requested format.
func (r *CheckResult) Encode(w io.Writer, format string) error {
	if format == FormatText || format == "" {
		return r.encodeText(w)
	}
	return encode(w, r, format)
}

func encode(w io.Writer, v interface{}, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}

func (r *CheckResult) encodeText(w io.Writer) error {
	if !r.Rootless {
		_, err := fmt.Fprintln(w, "rootless setup not required")
		return err
	}

	fmt.Fprintln(w, "rootless setup required")
	fmt.Fprintf(w, "privileged: %t\n", r.Privileged)
	if r.NewUIDMap != "" {
		fmt.Fprintf(w, "newuidmap: %s\nnewgidmap: %s\n", r.NewUIDMap, r.NewGIDMap)
	}
	for _, m := range r.UIDMappings {
		fmt.Fprintf(w, "uid mapping: %d %d %d\n", m.ContainerID, m.HostID, m.Size)
	}
	for _, m := range r.GIDMappings {
		fmt.Fprintf(w, "gid mapping: %d %d %d\n", m.ContainerID, m.HostID, m.Size)
	}
	return nil
}

// MapIDs writes the uid and then the gid mappings of spec for pid. The
// process must wait in its new user namespace until MapIDs returns.
func MapIDs(ctx context.Context, spec *specs.Spec, factory *rootlessConfig.Factory, pid int) error {
	c, err := newConfig(spec, factory)
	if err != nil {
		return err
	}
	if c == nil {
		sylog.Infof("Container configuration doesn't require rootless setup, nothing to map")
		return nil
	}

	if err := c.WriteUIDMapping(ctx, pid); err != nil {
		return errors.Wrapf(err, "while writing uid mappings of process %d", pid)
	}
	if err := c.WriteGIDMapping(ctx, pid); err != nil {
		return errors.Wrapf(err, "while writing gid mappings of process %d", pid)
	}
	sylog.Verbosef("ID mappings written for process %d", pid)
	return nil
}

func newConfig(spec *specs.Spec, factory *rootlessConfig.Factory) (*rootlessConfig.Config, error) {
	if factory == nil {
		return rootlessConfig.New(spec)
	}
	return factory.New(spec)
}
