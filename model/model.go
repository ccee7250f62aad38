// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package model bridges typed Go values (structs, maps, slices, pointers,
// and scalars) and the flat Map<Key, String> the datastore actually stores
// (spec §4.E/§4.F). It is grounded on the path-mapping idiom in
// storage/disk/paths.go, generalized from a single path segment per map
// level to the full struct/map/slice/option walk the settings model needs.
package model

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/bottlerocket-os/settings-engine/key"
	"github.com/bottlerocket-os/settings-engine/scalar"
)

// Validator is implemented by typed wrappers (package modeledtypes) that
// enforce a construction-time predicate. Deserialize calls Validate after
// populating a field so malformed input is rejected at the API boundary
// rather than at consumer read time (spec §4.H).
type Validator interface {
	Validate() error
}

// Serialize walks v (a struct, map, slice, pointer, or scalar) and returns
// its flattened Key->String representation. If prefix is nil and v is not
// a struct, an error is returned — maps and slices have no inherent name.
func Serialize(v interface{}, prefix *key.Key) (map[string]string, error) {
	out := map[string]string{}
	rv := reflect.ValueOf(v)
	base := prefix
	if base == nil {
		rootName, err := rootSegment(rv)
		if err != nil {
			return nil, err
		}
		k, err := key.New(key.Data, rootName)
		if err != nil {
			return nil, err
		}
		base = &k
	}
	if err := serializeValue(rv, base, out); err != nil {
		return nil, err
	}
	return out, nil
}

func rootSegment(rv reflect.Value) (string, error) {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", &Error{Message: "cannot derive a root key name from a nil value without a prefix"}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", &Error{Message: "a prefix key is required to serialize a non-struct root value"}
	}
	return dashCase(rv.Type().Name()), nil
}

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// isLeafType reports whether rv's type opts out of struct/map field-walking
// by implementing json.Marshaler itself — this is how typed wrappers
// (package modeledtypes) and named-string enums present themselves as a
// single scalar at the model boundary even though their Kind is Struct.
func isLeafType(rv reflect.Value) bool {
	if rv.Type().Implements(marshalerType) {
		return true
	}
	return rv.CanAddr() && reflect.PtrTo(rv.Type()).Implements(marshalerType)
}

func serializeValue(rv reflect.Value, at *key.Key, out map[string]string) error {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil // Option::None: omitted entirely, not an explicit null.
		}
		rv = rv.Elem()
	}

	if (rv.Kind() == reflect.Struct || rv.Kind() == reflect.Map) && isLeafType(rv) {
		enc, err := scalar.Serialize(rv.Interface())
		if err != nil {
			return err
		}
		out[at.Name()] = enc
		return nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue // unexported
			}
			name, skip := fieldName(f)
			if skip {
				continue
			}
			child, err := at.AppendSegments(name)
			if err != nil {
				return err
			}
			if err := serializeValue(rv.Field(i), &child, out); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return &Error{Message: "map keys must be strings"}
		}
		iter := rv.MapRange()
		for iter.Next() {
			mk, err := key.New(key.Data, iter.Key().String())
			if err != nil {
				return err
			}
			child, err := at.AppendKey(mk)
			if err != nil {
				return err
			}
			if err := serializeValue(iter.Value(), &child, out); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return &Error{Message: "byte arrays are not permitted at the model boundary"}
		}
		body, err := json.Marshal(rv.Interface())
		if err != nil {
			return &Error{Message: err.Error()}
		}
		out[at.Name()] = string(body)
		return nil

	case reflect.Uint, reflect.Uint64:
		return &Error{Message: "unsigned 64-bit integers are not permitted at the model boundary"}

	case reflect.Float32, reflect.Float64:
		return &Error{Message: "floating point values are not permitted at the model boundary"}

	default:
		enc, err := scalar.Serialize(rv.Interface())
		if err != nil {
			return err
		}
		out[at.Name()] = enc
		return nil
	}
}

// fieldName returns the segment a struct field contributes, and whether it
// should be skipped entirely (settings:"-").
func fieldName(f reflect.StructField) (string, bool) {
	if tag, ok := f.Tag.Lookup("settings"); ok {
		if tag == "-" {
			return "", true
		}
		if name, _, found := strings.Cut(tag, ","); found || name != "" {
			return name, false
		}
	}
	return dashCase(f.Name), false
}

func dashCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
