// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package rootless decides whether a container has to be set up in a user
// namespace owned by an unprivileged host user, validates the container
// specification against the kernel rootless constraints and writes the
// uid/gid mappings of the container process.
package rootless

import (
	"os"

	"github.com/apptainer/rootless/internal/pkg/util/env"
	"github.com/apptainer/rootless/pkg/sylog"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Config is the rootless setup decided for a container. It references the
// mapping lists of the specification it was built from and must not outlive
// it. A Config is never modified once returned by New.
type Config struct {
	binaries      *MapBinaries
	uidMappings   []specs.LinuxIDMapping
	gidMappings   []specs.LinuxIDMapping
	userNamespace specs.LinuxNamespace
	privileged    bool

	fs     afero.Fs
	runner CommandRunner
}

// NewConfig returns a Config viewing the mappings of linux. binaries may be
// nil when no helper is needed.
func NewConfig(linux *specs.Linux, userNs specs.LinuxNamespace, privileged bool, binaries *MapBinaries) *Config {
	return &Config{
		binaries:      binaries,
		uidMappings:   linux.UIDMappings,
		gidMappings:   linux.GIDMappings,
		userNamespace: userNs,
		privileged:    privileged,
		fs:            afero.NewOsFs(),
		runner:        ExecRunner{},
	}
}

// Binaries returns the helper locations or nil if mappings are
// written directly.
func (c *Config) Binaries() *MapBinaries {
	return c.binaries
}

// UIDMappings returns the uid mappings of the specification.
func (c *Config) UIDMappings() []specs.LinuxIDMapping {
	return c.uidMappings
}

// GIDMappings returns the gid mappings of the specification.
func (c *Config) GIDMappings() []specs.LinuxIDMapping {
	return c.gidMappings
}

// UserNamespace returns the user namespace entry of the specification.
func (c *Config) UserNamespace() specs.LinuxNamespace {
	return c.userNamespace
}

// Privileged reports whether the container is requested by the host root user.
func (c *Config) Privileged() bool {
	return c.privileged
}

// Factory builds rootless configurations. The zero value queries the
// real process credentials, environment, filesystem and helpers.
type Factory struct {
	Privilege PrivilegeChecker
	LookupEnv env.LookupFunc
	Fs        afero.Fs
	Runner    CommandRunner
}

var defaultFactory Factory

// New builds the rootless configuration of spec with the default Factory.
func New(spec *specs.Spec) (*Config, error) {
	return defaultFactory.New(spec)
}

// Required reports whether rootless mode must be used: either the invoking
// user is not root or APPTAINER_USE_ROOTLESS is set to true.
func (f *Factory) Required() bool {
	if !f.privileged() {
		return true
	}
	return env.IsTrue(f.lookupEnv(), env.UseRootless)
}

// New returns the rootless configuration for spec, or nil if spec doesn't
// request a new user namespace and can go through the regular setup.
func (f *Factory) New(spec *specs.Spec) (*Config, error) {
	if spec == nil || spec.Linux == nil {
		return nil, ErrMissingPlatformSection
	}
	linux := spec.Linux

	userNs, hasUserNs := userNamespace(linux)

	// rootless mode requires either creating or joining a user namespace
	if f.Required() && !hasUserNs {
		return nil, ErrMissingUserNamespace
	}

	if !hasUserNs || userNs.Path != "" {
		sylog.Debugf("This is NOT a rootless container")
		return nil, nil
	}

	sylog.Debugf("Rootless container should be created")

	privileged := f.privileged()
	if err := Validate(spec, privileged); err != nil {
		return nil, errors.Wrap(err, "the specification failed to comply to rootless requirements")
	}

	locator := &Locator{Fs: f.fs(), LookupEnv: f.lookupEnv()}
	binaries, err := locator.Locate(linux)
	if err != nil {
		return nil, errors.Wrap(err, "while looking up id mapping binaries")
	}

	c := NewConfig(linux, userNs, privileged, binaries)
	c.fs = f.fs()
	if f.Runner != nil {
		c.runner = f.Runner
	}
	return c, nil
}

func (f *Factory) privileged() bool {
	if f.Privilege == nil {
		return EUIDChecker{}.Privileged()
	}
	return f.Privilege.Privileged()
}

func (f *Factory) lookupEnv() env.LookupFunc {
	if f.LookupEnv == nil {
		return os.LookupEnv
	}
	return f.LookupEnv
}

func (f *Factory) fs() afero.Fs {
	if f.Fs == nil {
		return afero.NewOsFs()
	}
	return f.Fs
}

// userNamespace returns the first user namespace entry of linux.
func userNamespace(linux *specs.Linux) (specs.LinuxNamespace, bool) {
	for _, ns := range linux.Namespaces {
		if ns.Type == specs.UserNamespace {
			return ns, true
		}
	}
	return specs.LinuxNamespace{}, false
}
