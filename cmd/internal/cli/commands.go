// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/apptainer/rootless/docs"
	"github.com/apptainer/rootless/internal/app/rootless"
	"github.com/apptainer/rootless/internal/pkg/fakeroot"
	"github.com/apptainer/rootless/pkg/cmdline"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	mapPid       int
	subUIDFile   string
	subGIDFile   string
)

// -f|--format
var formatFlag = cmdline.Flag{
	ID:           "formatFlag",
	Value:        &outputFormat,
	DefaultValue: rootless.FormatText,
	Name:         "format",
	ShortHand:    "f",
	Usage:        "output format: text, json or yaml",
	EnvKeys:      []string{"FORMAT"},
}

// -p|--pid
var mapPidFlag = cmdline.Flag{
	ID:           "mapPidFlag",
	Value:        &mapPid,
	DefaultValue: 0,
	Name:         "pid",
	ShortHand:    "p",
	Usage:        "process waiting in the new user namespace",
	Required:     true,
}

// --subuid
var subUIDFileFlag = cmdline.Flag{
	ID:           "subUIDFileFlag",
	Value:        &subUIDFile,
	DefaultValue: fakeroot.SubUIDFile,
	Name:         "subuid",
	Usage:        "subordinate uid ranges file",
}

// --subgid
var subGIDFileFlag = cmdline.Flag{
	ID:           "subGIDFileFlag",
	Value:        &subGIDFile,
	DefaultValue: fakeroot.SubGIDFile,
	Name:         "subgid",
	Usage:        "subordinate gid ranges file",
}

func init() {
	addCmdInit(func(cmdManager *cmdline.CommandManager) {
		cmdManager.RegisterCmd(CheckCmd)
		cmdManager.RegisterCmd(MapCmd)
		cmdManager.RegisterCmd(UsernsCmd)
		cmdManager.RegisterCmd(FakerootSpecCmd)

		cmdManager.RegisterFlagForCmd(&formatFlag, CheckCmd, UsernsCmd)
		cmdManager.RegisterFlagForCmd(&mapPidFlag, MapCmd)
		cmdManager.RegisterFlagForCmd(&subUIDFileFlag, FakerootSpecCmd)
		cmdManager.RegisterFlagForCmd(&subGIDFileFlag, FakerootSpecCmd)
	})
}

// CheckCmd validates a container configuration against the rootless
// requirements.
var CheckCmd = &cobra.Command{
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := rootless.LoadSpec(afero.NewOsFs(), args[0])
		if err != nil {
			return err
		}
		r, err := rootless.Check(spec, nil)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.New(color.FgRed).Sprint("[FAIL]"), args[0])
			return err
		}
		if outputFormat == rootless.FormatText {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.New(color.FgGreen).Sprint("[OK]"), args[0])
		}
		return r.Encode(cmd.OutOrStdout(), outputFormat)
	},
	DisableFlagsInUseLine: true,

	Use:     docs.CheckUse,
	Short:   docs.CheckShort,
	Long:    docs.CheckLong,
	Example: docs.CheckExample,
}

// MapCmd writes the id mappings of a container process.
var MapCmd = &cobra.Command{
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if mapPid <= 0 {
			return cmdline.FlagError(fmt.Sprintf("invalid process ID %d", mapPid))
		}
		spec, err := rootless.LoadSpec(afero.NewOsFs(), args[0])
		if err != nil {
			return err
		}
		return rootless.MapIDs(cmd.Context(), spec, nil, mapPid)
	},
	DisableFlagsInUseLine: true,

	Use:     docs.MapUse,
	Short:   docs.MapShort,
	Long:    docs.MapLong,
	Example: docs.MapExample,
}

// UsernsCmd shows user namespace information.
var UsernsCmd = &cobra.Command{
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := rootless.UsernsInfo(rootless.UsernsOptions{})
		if err != nil {
			return err
		}
		return r.Encode(cmd.OutOrStdout(), outputFormat)
	},
	DisableFlagsInUseLine: true,

	Use:     docs.UsernsUse,
	Short:   docs.UsernsShort,
	Long:    docs.UsernsLong,
	Example: docs.UsernsExample,
}

// FakerootSpecCmd prints a fakeroot version of a container configuration.
var FakerootSpecCmd = &cobra.Command{
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		spec, err := rootless.LoadSpec(fs, args[0])
		if err != nil {
			return err
		}
		opts := rootless.FakerootOptions{
			Fs:         fs,
			SubUIDFile: subUIDFile,
			SubGIDFile: subGIDFile,
		}
		if err := rootless.FakerootSpec(spec, opts); err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "\t")
		return enc.Encode(spec)
	},
	DisableFlagsInUseLine: true,

	Use:     docs.FakerootSpecUse,
	Short:   docs.FakerootSpecShort,
	Long:    docs.FakerootSpecLong,
	Example: docs.FakerootSpecExample,
}
