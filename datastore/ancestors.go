// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package datastore

import "github.com/bottlerocket-os/settings-engine/key"

// Ancestors returns k and each of its ancestors, deepest first, ending with
// the single-segment root. Both backends use this to implement
// GetMetadata's inheriting lookup (spec §3: "the deepest ancestor's value").
func Ancestors(k key.Key) []key.Key {
	segs := k.Segments()
	out := make([]key.Key, 0, len(segs))
	for n := len(segs); n >= 1; n-- {
		anc, err := key.FromSegments(k.Kind(), segs[:n])
		if err != nil {
			// Every prefix of a valid segment list is itself valid, so
			// this is unreachable.
			continue
		}
		out = append(out, anc)
	}
	return out
}
