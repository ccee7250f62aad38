// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package scalar implements the canonical, byte-stable serialization of
// leaf settings values: JSON-shaped strings, integers, booleans, null, and
// arrays of the same. The datastore treats the resulting string as opaque;
// this package exists so every layer above it agrees on one encoding.
package scalar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Serialize encodes v into its canonical textual form. Floating point
// values, and any value that round-trips through JSON as a float64 without
// being a whole number representable as int64, are rejected.
func Serialize(v interface{}) (string, error) {
	if err := reject(v); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := encodeValue(&buf, normalize(v)); err != nil {
		return "", &Error{Message: err.Error()}
	}
	return buf.String(), nil
}

// encodeValue writes v's canonical, JSON-shaped encoding to buf. Every
// leaf but string is delegated to encoding/json, whose output already
// matches the canonical form for numbers, bools, and null; strings are
// hand-rolled because encoding/json also escapes control bytes and
// HTML-special characters, which spec §4.B's canonical form does not
// ("escape only \" and \\; control bytes are passed through literally").
func encodeValue(buf *bytes.Buffer, v interface{}) error {
	switch x := v.(type) {
	case string:
		encodeString(buf, x)
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		bs, err := json.Marshal(x)
		if err != nil {
			return err
		}
		buf.Write(bs)
		return nil
	}
}

// encodeString writes s as a quoted string literal, escaping only '"' and
// '\\'; every other byte, including control bytes, passes through
// unchanged.
func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(c)
	}
	buf.WriteByte('"')
}

// Deserialize parses s, the canonical form produced by Serialize, into dst.
func Deserialize(s string, dst interface{}) error {
	if err := json.Unmarshal([]byte(reescapeControlBytes(s)), dst); err != nil {
		return &Error{Message: err.Error()}
	}
	return nil
}

// Raw parses s into a generic interface{} tree (string, float64 for every
// number, bool, nil, or []interface{}) for callers that don't know the
// destination type ahead of time (e.g. the API server's JSON boundary).
func Raw(s string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(reescapeControlBytes(s)), &v); err != nil {
		return nil, &Error{Message: err.Error()}
	}
	return v, nil
}

// reescapeControlBytes rewrites the literal control bytes encodeString
// leaves inside string literals into the escapes encoding/json's decoder
// requires (it rejects raw control characters in a JSON string), so the
// canonical encoding stays parseable by the standard decoder without
// relaxing what Serialize itself is allowed to emit.
func reescapeControlBytes(s string) string {
	hasControl := false
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 {
			hasControl = true
			break
		}
	}
	if !hasControl {
		return s
	}

	var buf bytes.Buffer
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			buf.WriteByte(c)
			continue
		}
		if escaped {
			buf.WriteByte(c)
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			buf.WriteByte(c)
			escaped = true
		case c == '"':
			buf.WriteByte(c)
			inString = false
		case c < 0x20:
			switch c {
			case '\n':
				buf.WriteString(`\n`)
			case '\t':
				buf.WriteString(`\t`)
			case '\r':
				buf.WriteString(`\r`)
			case '\b':
				buf.WriteString(`\b`)
			case '\f':
				buf.WriteString(`\f`)
			default:
				fmt.Fprintf(&buf, `\u%04x`, c)
			}
		default:
			buf.WriteByte(c)
		}
	}
	return buf.String()
}

func reject(v interface{}) error {
	switch x := v.(type) {
	case float32, float64:
		return &Error{Message: "floating point values are not permitted at the scalar boundary"}
	case []interface{}:
		for _, e := range x {
			if err := reject(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	default:
		return x
	}
}

// CanonicalObjectJSON re-encodes an arbitrary JSON object with its members
// emitted in sorted key order, recursively. This is used only by the
// signed-target loader's digesting code, which needs byte-identical
// encodings across producer and verifier; the datastore itself never uses
// this form.
func CanonicalObjectJSON(v interface{}) ([]byte, error) {
	return canonicalize(v)
}

func canonicalize(v interface{}) ([]byte, error) {
	switch x := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := []byte("{")
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			out = append(out, kb...)
			out = append(out, ':')
			vb, err := canonicalize(x[k])
			if err != nil {
				return nil, err
			}
			out = append(out, vb...)
		}
		out = append(out, '}')
		return out, nil
	case []interface{}:
		out := []byte("[")
		for i, e := range x {
			if i > 0 {
				out = append(out, ',')
			}
			eb, err := canonicalize(e)
			if err != nil {
				return nil, err
			}
			out = append(out, eb...)
		}
		out = append(out, ']')
		return out, nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return []byte(fmt.Sprintf("%d", int64(x))), nil
		}
		return nil, fmt.Errorf("non-integral number %v is not permitted in canonical encoding", x)
	default:
		return json.Marshal(x)
	}
}
