// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package sylog

type messageLevel int

// Message levels, lower is more important.
const (
	FatalLevel   messageLevel = iota - 4 // Fatal : -4
	ErrorLevel                           // Error : -3
	WarnLevel                            // Warn : -2
	LogLevel                             // Log : -1
	_                                    // SKIP : 0
	InfoLevel                            // Info : 1
	VerboseLevel                         // Verbose : 2
	DebugLevel                           // Debug : 3
)

// MessageLevelEnv is the environment variable holding the
// message level inherited by child processes.
const MessageLevelEnv = "APPTAINER_MESSAGELEVEL"

func (l messageLevel) String() string {
	str, ok := messageLabels[l]
	if !ok {
		str = "????"
	}
	return str
}

var messageLabels = map[messageLevel]string{
	FatalLevel:   "FATAL",
	ErrorLevel:   "ERROR",
	WarnLevel:    "WARNING",
	LogLevel:     "LOG",
	InfoLevel:    "INFO",
	VerboseLevel: "VERBOSE",
	DebugLevel:   "DEBUG",
}
