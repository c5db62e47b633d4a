// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package docs

// Global content for help and man pages
const (

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// main rootless command
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	RootlessUse   string = `rootless [global options...]`
	RootlessShort string = `
Prepare user namespaces of rootless OCI containers`
	RootlessLong string = `
  rootless checks that an OCI container configuration can run without
  privileges in a user namespace, and installs its uid and gid mappings
  for a container process, either directly or through the setuid
  newuidmap and newgidmap helpers.`
	RootlessExample string = `
  $ rootless check ./bundle
  $ rootless map --pid 4242 ./bundle/config.json
  $ rootless userns`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// check
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	CheckUse   string = `check [check options...] <bundle or config.json>`
	CheckShort string = `Validate the rootless requirements of a container configuration`
	CheckLong  string = `
  The check command validates a container configuration against the
  rootless requirements: a new user namespace with uid and gid mappings,
  mount options and additional groups referencing mapped ids only. It
  reports the mappings and the helpers which would be used to install
  them. Setting APPTAINER_USE_ROOTLESS=true applies the unprivileged
  rules when invoked as root.`
	CheckExample string = `
  $ rootless check ./bundle
  $ rootless check --format json ./bundle/config.json`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// map
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	MapUse   string = `map --pid <pid> <bundle or config.json>`
	MapShort string = `Write the id mappings of a container process`
	MapLong  string = `
  The map command writes the uid mappings and then the gid mappings of
  the container configuration for the given process. The process must
  wait in a freshly created user namespace. A single mapping is written
  directly to /proc/<pid>/uid_map or gid_map, several mappings require
  newuidmap and newgidmap to be found in PATH.`
	MapExample string = `
  $ rootless map --pid 4242 ./bundle`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// userns
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	UsernsUse   string = `userns [userns options...]`
	UsernsShort string = `Show user namespace information of the current process`
	UsernsLong  string = `
  The userns command reports whether the current process runs in a user
  namespace, its host uid and gid, its id maps and whether the kernel
  lets unprivileged users create user namespaces.`
	UsernsExample string = `
  $ rootless userns
  $ rootless userns --format yaml`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// fakeroot-spec
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	FakerootSpecUse   string = `fakeroot-spec [fakeroot-spec options...] <bundle or config.json>`
	FakerootSpecShort string = `Print a container configuration running as fakeroot`
	FakerootSpecLong  string = `
  The fakeroot-spec command reads a container configuration and prints it
  with a new user namespace where root is mapped to the current user and
  ids 1 and above are mapped to the user's ranges from /etc/subuid and
  /etc/subgid.`
	FakerootSpecExample string = `
  $ rootless fakeroot-spec ./bundle > fakeroot.json`
)

// Documentation for version command.
const (
	VersionUse   string = `version`
	VersionShort string = `Show the version for rootless`
)
