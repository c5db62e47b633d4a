// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package cmdline registers cobra commands and flags and lets flags be
// set from APPTAINER_ prefixed environment variables.
package cmdline

import (
	"fmt"
	"os"
	"strings"

	"github.com/apptainer/rootless/internal/pkg/util/env"
	"github.com/apptainer/rootless/pkg/sylog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	flagIDAnnotation  = "flagID"
	envKeysAnnotation = "envkeys"
)

// FlagError is returned for flag parsing errors.
type FlagError string

func (e FlagError) Error() string {
	return string(e)
}

// CommandError is returned for invalid command usage.
type CommandError string

func (e CommandError) Error() string {
	return string(e)
}

// Flag describes a command line flag. Value points to the variable
// holding the flag value and DefaultValue must have the matching
// non pointer type.
type Flag struct {
	ID           string
	Value        interface{}
	DefaultValue interface{}
	Name         string
	ShortHand    string
	Usage        string
	Deprecated   string
	Hidden       bool
	Required     bool
	EnvKeys      []string
}

// CommandManager holds the registered commands and flags.
type CommandManager struct {
	rootCmd *cobra.Command
	flags   map[string]*Flag
	errPool []error
}

func newCommandManager(rootCmd *cobra.Command) (*CommandManager, error) {
	if rootCmd == nil {
		return nil, fmt.Errorf("nil root command passed")
	}
	return &CommandManager{
		rootCmd: rootCmd,
		flags:   make(map[string]*Flag),
		errPool: make([]error, 0),
	}, nil
}

// NewCommandManager returns a CommandManager for rootCmd.
func NewCommandManager(rootCmd *cobra.Command) *CommandManager {
	cm, err := newCommandManager(rootCmd)
	if err != nil {
		sylog.Fatalf("%s", err)
	}
	return cm
}

func (m *CommandManager) pushError(format string, a ...interface{}) {
	m.errPool = append(m.errPool, fmt.Errorf(format, a...))
}

// GetError returns the errors collected during registrations.
func (m *CommandManager) GetError() []error {
	return m.errPool
}

// RegisterCmd adds cmd below the root command.
func (m *CommandManager) RegisterCmd(cmd *cobra.Command) {
	m.RegisterSubCmd(m.rootCmd, cmd)
}

// RegisterSubCmd adds child below parent.
func (m *CommandManager) RegisterSubCmd(parent, child *cobra.Command) {
	if parent == nil || child == nil {
		m.pushError("nil command passed for registration")
		return
	}
	parent.AddCommand(child)
}

// GetFlag returns the flag registered with ID id.
func (m *CommandManager) GetFlag(id string) *Flag {
	return m.flags[id]
}

// RegisterFlagForCmd defines flag for each of cmds.
func (m *CommandManager) RegisterFlagForCmd(flag *Flag, cmds ...*cobra.Command) {
	if flag == nil {
		m.pushError("nil flag passed for registration")
		return
	}
	if len(cmds) == 0 {
		m.pushError("no command passed for flag %s", flag.Name)
		return
	}
	for _, cmd := range cmds {
		if cmd == nil {
			m.pushError("nil command passed for flag %s", flag.Name)
			return
		}
	}

	for _, cmd := range cmds {
		if err := m.registerFlag(flag, cmd.Flags()); err != nil {
			m.pushError("while registering flag %s for command %s: %s", flag.Name, cmd.Name(), err)
			return
		}
	}
	m.flags[flag.ID] = flag
}

func (m *CommandManager) registerFlag(flag *Flag, flags *pflag.FlagSet) error {
	switch v := flag.DefaultValue.(type) {
	case string:
		p, ok := flag.Value.(*string)
		if !ok {
			return fmt.Errorf("value is not a string pointer")
		}
		flags.StringVarP(p, flag.Name, flag.ShortHand, v, flag.Usage)
	case bool:
		p, ok := flag.Value.(*bool)
		if !ok {
			return fmt.Errorf("value is not a bool pointer")
		}
		flags.BoolVarP(p, flag.Name, flag.ShortHand, v, flag.Usage)
	case int:
		p, ok := flag.Value.(*int)
		if !ok {
			return fmt.Errorf("value is not an int pointer")
		}
		flags.IntVarP(p, flag.Name, flag.ShortHand, v, flag.Usage)
	case uint32:
		p, ok := flag.Value.(*uint32)
		if !ok {
			return fmt.Errorf("value is not an uint32 pointer")
		}
		flags.Uint32VarP(p, flag.Name, flag.ShortHand, v, flag.Usage)
	case []string:
		p, ok := flag.Value.(*[]string)
		if !ok {
			return fmt.Errorf("value is not a string slice pointer")
		}
		flags.StringSliceVarP(p, flag.Name, flag.ShortHand, v, flag.Usage)
	default:
		return fmt.Errorf("type %T not supported", flag.DefaultValue)
	}

	if flag.Deprecated != "" {
		flags.MarkDeprecated(flag.Name, flag.Deprecated)
	}
	if flag.Hidden {
		flags.MarkHidden(flag.Name)
	}
	if flag.Required {
		cobra.MarkFlagRequired(flags, flag.Name)
	}
	flags.SetAnnotation(flag.Name, flagIDAnnotation, []string{flag.ID})
	if len(flag.EnvKeys) > 0 {
		flags.SetAnnotation(flag.Name, envKeysAnnotation, flag.EnvKeys)
	}
	return nil
}

// UpdateCmdFlagFromEnv sets the flags of cmd not given on the command line
// from the environment. precedence indexes env.ApptainerPrefixes, a
// negative value means environment keys are used without prefix.
// foundKeys records the variable already applied for each key so a lower
// precedence prefix doesn't override it.
func (m *CommandManager) UpdateCmdFlagFromEnv(cmd *cobra.Command, precedence int, foundKeys map[string]string) error {
	if precedence >= len(env.ApptainerPrefixes) {
		return fmt.Errorf("bad environment precedence %d", precedence)
	}
	prefix := ""
	if precedence >= 0 {
		prefix = env.ApptainerPrefixes[precedence]
	}

	var errs []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		for _, key := range f.Annotations[envKeysAnnotation] {
			name := prefix + key
			value, ok := os.LookupEnv(name)
			if !ok {
				continue
			}
			if prev, found := foundKeys[key]; found {
				if prev != name {
					sylog.Warningf("%s and %s are both set, using %s", prev, name, prev)
				}
				continue
			}
			if err := f.Value.Set(value); err != nil {
				errs = append(errs, fmt.Sprintf("while setting flag %s from %s: %s", f.Name, name, err))
				continue
			}
			foundKeys[key] = name
			sylog.Debugf("Set flag %s from environment variable %s", f.Name, name)
		}
	})
	if len(errs) > 0 {
		return FlagError(strings.Join(errs, "; "))
	}
	return nil
}
