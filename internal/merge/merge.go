// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package merge deep-merges JSON-shaped trees, last writer wins. It backs
// the populator's variant-overlay precedence (spec §4.I), reimplemented for
// our map-tree shape since the teacher's merge helper is unexported.
package merge

// Maps deep-merges overlay into base, last writer wins, and returns base.
// Values that are themselves map[string]interface{} in both base and
// overlay are merged recursively; any other type (including a slice) in
// overlay replaces base's value outright.
func Maps(base, overlay map[string]interface{}) map[string]interface{} {
	if base == nil {
		base = map[string]interface{}{}
	}
	for k, ov := range overlay {
		if bv, ok := base[k]; ok {
			bm, bok := bv.(map[string]interface{})
			om, ook := ov.(map[string]interface{})
			if bok && ook {
				base[k] = Maps(bm, om)
				continue
			}
		}
		base[k] = ov
	}
	return base
}

// MapsInOrder merges a precedence-ordered list of trees (earliest lowest
// priority), per spec §4.I's variant-overlay requirement: a common
// defaults.d/ tree first, then a variant-specific overlay.
func MapsInOrder(trees ...map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for _, t := range trees {
		out = Maps(out, t)
	}
	return out
}
