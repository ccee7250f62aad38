// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package version implements the major.minor.patch version numbers used to
// name datastore directories and to select migrations (spec §3, §4.J). A
// leading "v" is tolerated on parse, as produced by the versioned symlink
// chain's directory names.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a three-component, strictly-ordered version number.
type Version struct {
	Major, Minor, Patch uint64
}

// Parse reads "[v]major.minor.patch". A trailing "_<tag>" suffix, as found
// on concrete versioned datastore directories, is not accepted here; strip
// it with SplitDirName first.
func Parse(s string) (Version, error) {
	s = strings.TrimPrefix(s, "v")
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version: %q is not major.minor.patch", s)
	}
	nums := make([]uint64, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("version: %q: %w", s, err)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// SplitDirName splits a concrete versioned directory name of the form
// "vM.m.p_<tag>" into its version and tag parts. A bare "vM.m.p" (no tag)
// returns an empty tag.
func SplitDirName(name string) (Version, string, error) {
	base := name
	tag := ""
	if i := strings.IndexByte(name, '_'); i >= 0 {
		base = name[:i]
		tag = name[i+1:]
	}
	v, err := Parse(base)
	return v, tag, err
}

// String renders "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// DirName renders the "vM.m.p" form used for the vM.m.p symlink.
func (v Version) DirName() string {
	return "v" + v.String()
}

// MajorMinorName renders "vM.m", used for the vM.m symlink.
func (v Version) MajorMinorName() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// MajorName renders "vM", used for the vM symlink.
func (v Version) MajorName() string {
	return fmt.Sprintf("v%d", v.Major)
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmp(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmp(v.Minor, other.Minor)
	default:
		return cmp(v.Patch, other.Patch)
	}
}

// SameMajor reports whether v and other share a major version. The
// migration engine only bridges same-major differences (spec §3).
func (v Version) SameMajor(other Version) bool {
	return v.Major == other.Major
}

func cmp(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
