// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package namespaces

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ccoveille/go-safecast"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/spf13/afero"
)

// IDMapKind selects between the uid_map and gid_map procfs files.
type IDMapKind string

const (
	UIDMap IDMapKind = "uid"
	GIDMap IDMapKind = "gid"
)

// fullRange is the size reported by the initial user namespace.
const fullRange = ^uint32(0)

func orOsFs(fs afero.Fs) afero.Fs {
	if fs == nil {
		return afero.NewOsFs()
	}
	return fs
}

// MapPath returns the path of the uid_map or gid_map file of pid.
// A pid of 0 designates the current process.
func MapPath(pid int, kind IDMapKind) string {
	if pid == 0 {
		return fmt.Sprintf("/proc/self/%s_map", kind)
	}
	return fmt.Sprintf("/proc/%d/%s_map", pid, kind)
}

// ParseIDMap parses the content of a uid_map or gid_map file,
// one "<container> <host> <size>" triple per line.
func ParseIDMap(content string) ([]specs.LinuxIDMapping, error) {
	var mappings []specs.LinuxIDMapping

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed id map line %q", scanner.Text())
		}
		var ids [3]uint32
		for i, f := range fields {
			v, err := strconv.ParseUint(f, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("failed to convert id map field %s: %s", f, err)
			}
			ids[i] = uint32(v)
		}
		mappings = append(mappings, specs.LinuxIDMapping{
			ContainerID: ids[0],
			HostID:      ids[1],
			Size:        ids[2],
		})
	}
	return mappings, scanner.Err()
}

// ReadIDMap returns the mappings currently installed for pid.
func ReadIDMap(fs afero.Fs, pid int, kind IDMapKind) ([]specs.LinuxIDMapping, error) {
	b, err := afero.ReadFile(fs, MapPath(pid, kind))
	if err != nil {
		return nil, err
	}
	return ParseIDMap(string(b))
}

// IsInsideUserNamespace checks if a process is already running in a
// user namespace and also returns if the process has permissions to use
// setgroups in this user namespace. procfs is read through fs, nil means
// the host filesystem.
func IsInsideUserNamespace(fs afero.Fs, pid int) (bool, bool) {
	fs = orOsFs(fs)
	// can fail if the kernel doesn't support user namespace
	mappings, err := ReadIDMap(fs, pid, UIDMap)
	if err != nil || len(mappings) == 0 {
		return false, false
	}
	if mappings[0].Size == fullRange {
		return false, false
	}

	setgroups := "/proc/self/setgroups"
	if pid != 0 {
		setgroups = fmt.Sprintf("/proc/%d/setgroups", pid)
	}
	d, err := afero.ReadFile(fs, setgroups)
	if err != nil {
		return true, false
	}
	return true, string(d) == "allow\n"
}

// HostUID attempts to find the original host UID if the current
// process is root running inside a user namespace, and if not it
// simply returns the current UID
func HostUID(fs afero.Fs) (uint32, error) {
	uid, err := safecast.ToUint32(os.Getuid())
	if err != nil {
		return 0, fmt.Errorf("failed to convert uid to uint32: %s", err)
	}
	return getHostID(orOsFs(fs), UIDMap, uid)
}

// Likewise for HostGID
func HostGID(fs afero.Fs) (uint32, error) {
	gid, err := safecast.ToUint32(os.Getgid())
	if err != nil {
		return 0, fmt.Errorf("failed to convert gid to uint32: %s", err)
	}
	return getHostID(orOsFs(fs), GIDMap, gid)
}

func getHostID(fs afero.Fs, kind IDMapKind, currentID uint32) (uint32, error) {
	if currentID != 0 {
		return currentID, nil
	}

	mappings, err := ReadIDMap(fs, 0, kind)
	if err != nil {
		if os.IsNotExist(err) {
			// user namespace not supported
			return currentID, nil
		}
		return 0, fmt.Errorf("failed to read: %s: %s", MapPath(0, kind), err)
	}

	for _, m := range mappings {
		if m.Size == fullRange {
			break
		}
		// a user won't have two consecutive IDs, look
		// for a 1:1 mapping of the current ID
		if m.Size == 1 && m.ContainerID == currentID {
			return m.HostID, nil
		}
	}
	return currentID, nil
}

// IsUnprivileged returns true if running as an unprivileged user, even
// if the user id is root inside an unprivileged user namespace; otherwise
// it returns false
func IsUnprivileged(fs afero.Fs) bool {
	if os.Geteuid() != 0 {
		return true
	}
	uid, err := HostUID(fs)
	if err != nil {
		return true
	}
	return uid != 0
}
