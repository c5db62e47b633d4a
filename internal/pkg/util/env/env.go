// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package env

import (
	"os"
)

const (
	// ApptainerPrefix is the prefix of environment variables
	// recognized by the rootless tooling.
	ApptainerPrefix = "APPTAINER_"
	// UseRootless forces rootless decisions even when invoked by root
	// if set to "true".
	UseRootless = ApptainerPrefix + "USE_ROOTLESS"
)

// ApptainerPrefixes lists the accepted prefixes, the legacy
// SINGULARITY_ one included.
var ApptainerPrefixes = []string{ApptainerPrefix, "SINGULARITY_"}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// IsTrue reports whether key is set to the literal "true".
func IsTrue(lookup LookupFunc, key string) bool {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(key)
	return ok && v == "true"
}

// SearchPath returns the PATH value used to look up helper binaries
// and whether it is set at all.
func SearchPath(lookup LookupFunc) (string, bool) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return lookup("PATH")
}
