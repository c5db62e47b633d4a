// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package main

import (
	"github.com/apptainer/rootless/cmd/internal/cli"
	"github.com/apptainer/rootless/pkg/sylog"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	"golang.org/x/sys/unix"
)

var generators = map[string]func(*cobra.Command, string) error{
	"markdown": doc.GenMarkdownTree,
	"man": func(rootCmd *cobra.Command, outDir string) error {
		return doc.GenManTree(rootCmd, &doc.GenManHeader{Title: "rootless", Section: "1"}, outDir)
	},
}

func main() {
	var dir string
	rootCmd := &cobra.Command{
		ValidArgs: []string{"markdown", "man"},
		Args:      cobra.ExactArgs(1),
		Use:       "makeDocs {markdown | man}",
		Short:     "Generates rootless documentation",
		Run: func(_ *cobra.Command, args []string) {
			gen, ok := generators[args[0]]
			if !ok {
				sylog.Fatalf("Invalid output type %s", args[0])
			}
			if err := unix.Access(dir, unix.W_OK); err != nil {
				sylog.Fatalf("Given directory (%s) does not exist or is not writable by calling user", dir)
			}

			// commands are only registered by Init
			cli.Init()
			sylog.Infof("Creating rootless %s documentation at %s", args[0], dir)
			if err := gen(cli.RootCmd(), dir); err != nil {
				sylog.Fatalf("Failed to create %s documentation: %s", args[0], err)
			}
		},
	}
	rootCmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory in which to put the generated documentation")
	rootCmd.Execute()
}
