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
	"fmt"
	"os"
	"strconv"

	"github.com/apptainer/rootless/pkg/sylog"
	"github.com/apptainer/rootless/pkg/util/namespaces"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/samber/lo"
)

// WriteUIDMapping installs the uid mappings in the user namespace of pid.
// The process must be paused in a freshly created user namespace whose
// mappings were not written yet. It does nothing if the specification
// carries no uid mappings.
func (c *Config) WriteUIDMapping(ctx context.Context, pid int) error {
	if c.uidMappings == nil {
		return nil
	}
	sylog.Debugf("Write UID mapping for %d", pid)

	var helper string
	if c.binaries != nil {
		helper = c.binaries.NewUIDMap
	}
	return c.writeIDMapping(ctx, pid, namespaces.MapPath(pid, namespaces.UIDMap), c.uidMappings, helper, newuidmap)
}

// WriteGIDMapping installs the gid mappings in the user namespace of pid,
// see WriteUIDMapping.
func (c *Config) WriteGIDMapping(ctx context.Context, pid int) error {
	if c.gidMappings == nil {
		return nil
	}
	sylog.Debugf("Write GID mapping for %d", pid)

	var helper string
	if c.binaries != nil {
		helper = c.binaries.NewGIDMap
	}
	return c.writeIDMapping(ctx, pid, namespaces.MapPath(pid, namespaces.GIDMap), c.gidMappings, helper, newgidmap)
}

func (c *Config) writeIDMapping(ctx context.Context, pid int, mapFile string, mappings []specs.LinuxIDMapping, helper, helperName string) error {
	sylog.Debugf("Write ID mapping: %v", mappings)

	switch len(mappings) {
	case 0:
		return ErrEmptyMappingList
	case 1:
		m := mappings[0]
		line := fmt.Sprintf("%d %d %d", m.ContainerID, m.HostID, m.Size)
		// the kernel accepts a single write per map file
		if err := c.writeOnce(mapFile, []byte(line)); err != nil {
			return &MappingWriteError{Path: mapFile, Err: err}
		}
		return nil
	}

	if helper == "" {
		return &MissingHelperError{Name: helperName}
	}

	args := append([]string{strconv.Itoa(pid)}, helperArgs(mappings)...)
	status, stderr, err := c.runner.Run(ctx, helper, args...)
	if err != nil || status != 0 {
		return &HelperExecutionError{
			Path:   helper,
			Status: status,
			Stderr: string(stderr),
			Err:    err,
		}
	}
	return nil
}

func (c *Config) writeOnce(path string, data []byte) error {
	f, err := c.fs.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// helperArgs flattens mappings into the "container host size" argument
// triples expected by newuidmap and newgidmap.
func helperArgs(mappings []specs.LinuxIDMapping) []string {
	return lo.FlatMap(mappings, func(m specs.LinuxIDMapping, _ int) []string {
		return []string{
			strconv.FormatUint(uint64(m.ContainerID), 10),
			strconv.FormatUint(uint64(m.HostID), 10),
			strconv.FormatUint(uint64(m.Size), 10),
		}
	})
}
