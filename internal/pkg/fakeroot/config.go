// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package fakeroot reads the subordinate id ranges allotted to users in
// /etc/subuid and /etc/subgid and turns them into user namespace mappings.
package fakeroot

import (
	"bufio"
	"fmt"
	"os/user"
	"strconv"
	"strings"

	"github.com/apptainer/rootless/pkg/sylog"
	"github.com/ccoveille/go-safecast"
	"github.com/spf13/afero"
)

const (
	// SubUIDFile lists subordinate uid ranges.
	SubUIDFile = "/etc/subuid"
	// SubGIDFile lists subordinate gid ranges.
	SubGIDFile = "/etc/subgid"

	validRangeCount = 65536
	disabledPrefix  = "!"
)

// User identifies the owner of a range.
type User struct {
	Name string
	UID  uint32
	GID  uint32
}

// LookupFunc resolves a user name found in a subid file.
type LookupFunc func(name string) (*User, error)

// Entry is a single "name:start:count" line.
type Entry struct {
	UID      uint32
	Start    uint32
	Count    uint32
	disabled bool
	line     string
}

// Disabled reports whether the administrator disabled the entry by
// prefixing it with an exclamation mark.
func (e *Entry) Disabled() bool {
	return e.disabled
}

func (e *Entry) String() string {
	return e.line
}

// Config holds the parsed entries of a subid file.
type Config struct {
	path    string
	entries []*Entry
}

// LookupUser resolves name with the system user database.
func LookupUser(name string) (*User, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return nil, err
	}
	return toUser(u)
}

// CurrentUser returns the user running the process.
func CurrentUser() (*User, error) {
	u, err := user.Current()
	if err != nil {
		return nil, err
	}
	return toUser(u)
}

func toUser(u *user.User) (*User, error) {
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("bad uid %q for user %s: %s", u.Uid, u.Username, err)
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("bad gid %q for user %s: %s", u.Gid, u.Username, err)
	}
	return &User{Name: u.Username, UID: uint32(uid), GID: uint32(gid)}, nil
}

// GetConfig parses the subid file at path. Malformed lines and lines
// naming unknown users are skipped. A nil lookup resolves names with
// LookupUser.
func GetConfig(fs afero.Fs, path string, lookup LookupFunc) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("no subid file path provided")
	}
	if lookup == nil {
		lookup = LookupUser
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %s", path, err)
	}
	defer f.Close()

	c := &Config{path: path}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, err := parseEntry(line, lookup)
		if err != nil {
			sylog.Debugf("Skipping entry %q in %s: %s", line, path, err)
			continue
		}
		c.entries = append(c.entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("while reading %s: %s", path, err)
	}
	return c, nil
}

func parseEntry(line string, lookup LookupFunc) (*Entry, error) {
	e := &Entry{line: line}

	rest, disabled := strings.CutPrefix(line, disabledPrefix)
	e.disabled = disabled

	fields := strings.Split(rest, ":")
	if len(fields) != 3 {
		return nil, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}

	if id, err := strconv.ParseUint(fields[0], 10, 32); err == nil {
		e.UID = uint32(id)
	} else {
		u, err := lookup(fields[0])
		if err != nil {
			return nil, err
		}
		e.UID = u.UID
	}

	start, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("bad range start %q", fields[1])
	}
	count, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil || count == 0 {
		return nil, fmt.Errorf("bad range count %q", fields[2])
	}
	// the range must fit in the 32 bits id space
	if start+count-1 > uint64(^uint32(0)) {
		return nil, fmt.Errorf("range %d:%d overflows", start, count)
	}

	if e.Start, err = safecast.ToUint32(start); err != nil {
		return nil, err
	}
	if e.Count, err = safecast.ToUint32(count); err != nil {
		return nil, err
	}
	return e, nil
}

// Entries returns every entry belonging to uid in file order.
func (c *Config) Entries(uid uint32) []*Entry {
	var entries []*Entry
	for _, e := range c.entries {
		if e.UID == uid {
			entries = append(entries, e)
		}
	}
	return entries
}

// GetUserEntry returns the entry to use for u. A disabled entry takes
// precedence over any other entry of the user, otherwise the last entry
// holding at least 65536 ids wins.
func (c *Config) GetUserEntry(u *User) (*Entry, error) {
	entries := c.Entries(u.UID)
	if len(entries) == 0 {
		return nil, fmt.Errorf("no mapping entry found in %s for %s", c.path, u.Name)
	}

	var found *Entry
	for _, e := range entries {
		if e.disabled {
			return e, nil
		}
		if e.Count >= validRangeCount {
			found = e
		}
	}
	if found == nil {
		return nil, fmt.Errorf("mapping entries for user %s found in %s but all with a range count lower than %d", u.Name, c.path, validRangeCount)
	}
	return found, nil
}
