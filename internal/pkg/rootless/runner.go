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
	"context"
	"errors"
	"os/exec"
)

// CommandRunner executes a mapping helper to completion and returns its
// exit status along with everything it wrote on standard error. A non nil
// error means the helper could not be started at all.
type CommandRunner interface {
	Run(ctx context.Context, path string, args ...string) (status int, stderr []byte, err error)
}

// ExecRunner runs helpers as child processes.
type ExecRunner struct{}

// Run starts path with args and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, path string, args ...string) (int, []byte, error) {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return 0, stderr.Bytes(), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), stderr.Bytes(), nil
	}
	return -1, stderr.Bytes(), err
}
