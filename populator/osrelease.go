// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package populator

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/bottlerocket-os/settings-engine/version"
)

// VersionFromOSRelease reads VERSION_ID out of an /etc/os-release-shaped
// file, used when the populator is not given an explicit --version (spec
// §4.I/§6: "If --version is not given, the version will be pulled from
// /etc/os-release").
func VersionFromOSRelease(path string) (version.Version, error) {
	f, err := os.Open(path)
	if err != nil {
		return version.Version{}, fmt.Errorf("populator: opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		name, val, ok := strings.Cut(line, "=")
		if !ok || name != "VERSION_ID" {
			continue
		}
		val = strings.Trim(val, `"`)
		return version.Parse(val)
	}
	if err := scanner.Err(); err != nil {
		return version.Version{}, fmt.Errorf("populator: reading %s: %w", path, err)
	}
	return version.Version{}, fmt.Errorf("populator: %s has no VERSION_ID", path)
}
