// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/apptainer/rootless/docs"
	"github.com/apptainer/rootless/internal/pkg/util/env"
	"github.com/apptainer/rootless/pkg/cmdline"
	"github.com/apptainer/rootless/pkg/sylog"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at link time.
var Version = "unknown"

// cmdInits holds all the init function to be called
// for commands/flags registration.
var cmdInits = make([]func(*cmdline.CommandManager), 0)

// rootless command flags
var (
	debug   bool
	nocolor bool
	silent  bool
	verbose bool
	quiet   bool
)

// -d|--debug
var rootlessDebugFlag = cmdline.Flag{
	ID:           "rootlessDebugFlag",
	Value:        &debug,
	DefaultValue: false,
	Name:         "debug",
	ShortHand:    "d",
	Usage:        "print debugging information (highest verbosity)",
	EnvKeys:      []string{"DEBUG"},
}

// --nocolor
var rootlessNoColorFlag = cmdline.Flag{
	ID:           "rootlessNoColorFlag",
	Value:        &nocolor,
	DefaultValue: false,
	Name:         "nocolor",
	Usage:        "print without color output (default False)",
	EnvKeys:      []string{"NOCOLOR"},
}

// -s|--silent
var rootlessSilentFlag = cmdline.Flag{
	ID:           "rootlessSilentFlag",
	Value:        &silent,
	DefaultValue: false,
	Name:         "silent",
	ShortHand:    "s",
	Usage:        "only print errors",
}

// -q|--quiet
var rootlessQuietFlag = cmdline.Flag{
	ID:           "rootlessQuietFlag",
	Value:        &quiet,
	DefaultValue: false,
	Name:         "quiet",
	ShortHand:    "q",
	Usage:        "suppress normal output",
}

// -v|--verbose
var rootlessVerboseFlag = cmdline.Flag{
	ID:           "rootlessVerboseFlag",
	Value:        &verbose,
	DefaultValue: false,
	Name:         "verbose",
	ShortHand:    "v",
	Usage:        "print additional information",
}

func addCmdInit(cmdInit func(*cmdline.CommandManager)) {
	cmdInits = append(cmdInits, cmdInit)
}

func setSylogMessageLevel() {
	level := sylog.InfoLevel

	if debug {
		level = sylog.DebugLevel
	} else if verbose {
		level = sylog.VerboseLevel
	} else if quiet {
		level = sylog.LogLevel
	} else if silent {
		level = sylog.ErrorLevel
	}

	useColor := true
	if nocolor || !term.IsTerminal(2) {
		useColor = false
	}
	color.NoColor = !useColor || !term.IsTerminal(1)

	sylog.SetLevel(int(level), useColor)
}

func getColumns() int {
	width, _, err := term.GetSize(1)
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

var initialized bool

// Init initializes and registers all rootless commands.
func Init() {
	if initialized {
		return
	}
	initialized = true

	cmdManager := cmdline.NewCommandManager(rootlessCmd)

	rootlessCmd.Flags().SetInterspersed(false)
	rootlessCmd.PersistentFlags().SetInterspersed(false)

	rootlessCmd.SetVersionTemplate("rootless version {{printf \"%s\" .Version}}\n")

	// set persistent pre run function here to avoid initialization loop error
	rootlessCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		foundKeys := make(map[string]string)
		for precedence := range env.ApptainerPrefixes {
			if err := cmdManager.UpdateCmdFlagFromEnv(rootlessCmd, precedence, foundKeys); err != nil {
				return fmt.Errorf("while parsing global environment variables: %w", err)
			}
		}
		for precedence := range env.ApptainerPrefixes {
			if err := cmdManager.UpdateCmdFlagFromEnv(cmd, precedence, foundKeys); err != nil {
				return fmt.Errorf("while parsing environment variables: %w", err)
			}
		}
		setSylogMessageLevel()
		sylog.Debugf("rootless version: %s", Version)
		return nil
	}

	cmdManager.RegisterFlagForCmd(&rootlessDebugFlag, rootlessCmd)
	cmdManager.RegisterFlagForCmd(&rootlessNoColorFlag, rootlessCmd)
	cmdManager.RegisterFlagForCmd(&rootlessSilentFlag, rootlessCmd)
	cmdManager.RegisterFlagForCmd(&rootlessQuietFlag, rootlessCmd)
	cmdManager.RegisterFlagForCmd(&rootlessVerboseFlag, rootlessCmd)

	cmdManager.RegisterCmd(VersionCmd)

	// register all others commands/flags
	for _, cmdInit := range cmdInits {
		cmdInit(cmdManager)
	}

	// any error reported by command manager is considered as fatal
	cliErrors := len(cmdManager.GetError())
	if cliErrors > 0 {
		for _, e := range cmdManager.GetError() {
			sylog.Errorf("%s", e)
		}
		sylog.Fatalf("CLI command manager reported %d error(s)", cliErrors)
	}
}

// rootlessCmd is the base command when called without any subcommands
var rootlessCmd = &cobra.Command{
	TraverseChildren:      true,
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdline.CommandError("invalid command")
	},

	Use:           docs.RootlessUse,
	Version:       Version,
	Short:         docs.RootlessShort,
	Long:          docs.RootlessLong,
	Example:       docs.RootlessExample,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// RootCmd returns the root rootless cobra command.
func RootCmd() *cobra.Command {
	return rootlessCmd
}

// VersionCmd displays installed rootless version
var VersionCmd = &cobra.Command{
	Args: cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
	DisableFlagsInUseLine: true,

	Use:   docs.VersionUse,
	Short: docs.VersionShort,
}

// ExecuteRootless adds all child commands to the root command and sets
// flags appropriately. This is called by main.main(). It only needs to happen
// once to the root command (rootless).
func ExecuteRootless() {
	Init()

	// Setup a cancellable context that will trap Ctrl-C / SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootlessCmd.ExecuteContext(ctx); err != nil {
		subCmd, _, subCmdErr := rootlessCmd.Find(os.Args[1:])
		if subCmdErr != nil {
			rootlessCmd.Printf("Error: %v\n\n", subCmdErr)
		}

		name := subCmd.Name()
		switch err.(type) {
		case cmdline.FlagError:
			usage := subCmd.Flags().FlagUsagesWrapped(getColumns())
			rootlessCmd.Printf("Error for command %q: %s\n\n", name, err)
			rootlessCmd.Printf("Options for %s command:\n\n%s\n", name, usage)
		case cmdline.CommandError:
			rootlessCmd.Println(subCmd.UsageString())
		default:
			sylog.Errorf("%s", err)
			os.Exit(1)
		}
		rootlessCmd.Printf("Run '%s --help' for more detailed usage information.\n",
			rootlessCmd.CommandPath())
		os.Exit(1)
	}
}
