// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package migration

import (
	"encoding/json"
	"fmt"

	"github.com/bottlerocket-os/settings-engine/version"
)

// Manifest is the structure the migrator consumes from the signed target
// repository (spec §6): an ordered migration list per same-major version
// pair. Keys are the canonical "lower->higher" form of the pair regardless
// of which direction a caller travels; List reverses the list for backward
// travel.
type Manifest struct {
	Migrations map[string][]string `json:"migrations"`
}

// ParseManifest decodes manifest.json's bytes (itself a signed target, per
// spec §6, not LZ4-compressed like migration binaries).
func ParseManifest(b []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("migration: decoding manifest: %w", err)
	}
	if m.Migrations == nil {
		m.Migrations = map[string][]string{}
	}
	return &m, nil
}

func pairKey(lo, hi version.Version) string {
	return lo.String() + "->" + hi.String()
}

// List returns the ordered migration names to run to go from "from" to
// "to", already reversed if the trip is backward, and reports which
// direction that is. A pair with no manifest entry yields an empty list,
// which is a valid "no migrations needed" result (spec §4.J step 5).
func (m *Manifest) List(from, to version.Version) (names []string, forward bool) {
	forward = to.Compare(from) > 0
	lo, hi := from, to
	if !forward {
		lo, hi = to, from
	}
	found := m.Migrations[pairKey(lo, hi)]
	if !forward {
		names = reversed(found)
	} else {
		names = append([]string(nil), found...)
	}
	return names, forward
}

func reversed(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
