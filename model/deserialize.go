// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package model

import (
	"reflect"
	"sort"

	"github.com/bottlerocket-os/settings-engine/key"
	"github.com/bottlerocket-os/settings-engine/scalar"
)

// Deserialize walks dest (a pointer to a struct, map, slice, or scalar) and
// populates it from values, a flattened Key->String map, per spec §4.F.
// prefix strips a common leading segment set before matching begins; it is
// required when dest does not resolve to a named struct at the root.
func Deserialize(values map[string]string, dest interface{}, prefix *key.Key) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return &Error{Message: "deserialize destination must be a non-nil pointer"}
	}

	base := prefix
	if base == nil {
		elem := rv.Elem()
		if elem.Kind() != reflect.Struct {
			return &Error{Message: "a prefix key is required to deserialize into a non-struct root"}
		}
		k, err := key.New(key.Data, dashCase(elem.Type().Name()))
		if err != nil {
			return err
		}
		base = &k
	}

	entries := subset(values, base.Segments())
	if len(entries) == 0 {
		// Leave dest untouched: every descendant is absent, matching
		// Option::None at a top level field too.
		return nil
	}
	return deserializeValue(entries, rv.Elem())
}

// entry pairs a matched flat key's remaining segments (after stripping the
// prefix this recursion level matched) with its raw string value.
type entry struct {
	rest []string
	raw  string
}

// subset returns, for every value whose key starts with pre, the segments
// left over after stripping pre.
func subset(values map[string]string, pre []string) []entry {
	var out []entry
	for name, raw := range values {
		k, err := key.New(key.Data, name)
		if err != nil {
			continue
		}
		if !k.StartsWithSegments(pre) {
			continue
		}
		out = append(out, entry{rest: k.Segments()[len(pre):], raw: raw})
	}
	return out
}

func deserializeValue(entries []entry, rv reflect.Value) error {
	// An entry with no remaining segments is the value at this exact node:
	// only possible for scalar/slice leaves (a struct cannot be one).
	if len(entries) == 1 && len(entries[0].rest) == 0 {
		return deserializeLeaf(entries[0].raw, rv)
	}

	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			name, skip := fieldName(f)
			if skip {
				continue
			}
			sub := childEntries(entries, name)
			if len(sub) == 0 {
				continue // Option::None, or a genuinely absent required field.
			}
			if err := deserializeValue(sub, rv.Field(i)); err != nil {
				return err
			}
			if v, ok := rv.Field(i).Addr().Interface().(Validator); ok {
				if err := v.Validate(); err != nil {
					return err
				}
			}
		}
		return nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return &Error{Message: "map keys must be strings"}
		}
		if rv.IsNil() {
			rv.Set(reflect.MakeMap(rv.Type()))
		}
		byFirst := map[string][]entry{}
		order := []string{}
		for _, e := range entries {
			if len(e.rest) == 0 {
				continue
			}
			first := e.rest[0]
			if _, ok := byFirst[first]; !ok {
				order = append(order, first)
			}
			byFirst[first] = append(byFirst[first], entry{rest: e.rest[1:], raw: e.raw})
		}
		sort.Strings(order)
		for _, mk := range order {
			elem := reflect.New(rv.Type().Elem()).Elem()
			if err := deserializeValue(byFirst[mk], elem); err != nil {
				return err
			}
			// Re-encode the bare segment through §4.A so a map key that
			// required quoting (e.g. it contains a dot) round-trips back
			// to the same quoted textual form Serialize produced it from.
			encoded, err := key.FromSegments(key.Data, []string{mk})
			if err != nil {
				return err
			}
			rv.SetMapIndex(reflect.ValueOf(encoded.Name()), elem)
		}
		return nil

	default:
		return &Error{Message: "ambiguous deserialize target: multiple stored keys map onto a scalar field"}
	}
}

func deserializeLeaf(raw string, rv reflect.Value) error {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct, reflect.Map:
		if !isLeafType(rv) {
			return &Error{Message: "a compound destination cannot be populated from a single leaf value"}
		}
		fallthrough
	default:
		ptr := reflect.New(rv.Type())
		if err := scalar.Deserialize(raw, ptr.Interface()); err != nil {
			return err
		}
		rv.Set(ptr.Elem())
		return nil
	}
}

// childEntries narrows entries to those whose first remaining segment
// equals name (a struct field name match), stripping that segment.
func childEntries(entries []entry, name string) []entry {
	var out []entry
	for _, e := range entries {
		if len(e.rest) == 0 || e.rest[0] != name {
			continue
		}
		out = append(out, entry{rest: e.rest[1:], raw: e.raw})
	}
	return out
}
