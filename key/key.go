// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package key implements the hierarchical key model used throughout the
// settings engine: a kind (Data or Meta) plus an ordered, non-empty list of
// segments. The canonical textual form joins segments with "." and quotes
// any segment that itself contains a ".".
package key

import (
	"fmt"
	"strings"
)

// Kind distinguishes a data key (identifies a settings value) from a meta
// key (identifies a metadata annotation on a data key).
type Kind int

const (
	// Data keys locate values in the settings tree. They may have any
	// number of segments >= 1.
	Data Kind = iota
	// Meta keys name a metadata annotation. They always have exactly one
	// segment.
	Meta
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case Meta:
		return "meta"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MaxNameLength is the maximum encoded length, in bytes, of a key's name.
const MaxNameLength = 255

// validSegmentByte reports whether b is a legal unquoted key character.
func validSegmentByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '_' || b == '-' || b == '/':
		return true
	}
	return false
}

// Key is a parsed, validated hierarchical name. Key is comparable by value
// once converted to its canonical segment-joined form via Name, but
// equality per the spec is defined on the segment list, not the text - use
// Equal.
type Key struct {
	kind     Kind
	segments []string
	name     string
}

// New parses name under kind, validating and returning a Key whose Name()
// and Segments() are both freshly reconstructed.
func New(kind Kind, name string) (Key, error) {
	segs, err := parse(name)
	if err != nil {
		return Key{}, err
	}
	return FromSegments(kind, segs)
}

// FromSegments builds a Key directly from a segment list, validating and
// re-deriving the canonical name.
func FromSegments(kind Kind, segs []string) (Key, error) {
	if len(segs) == 0 {
		return Key{}, invalidKeyError("key must have at least one segment")
	}
	if kind == Meta && len(segs) != 1 {
		return Key{}, invalidKeyError("meta keys must have exactly one segment")
	}
	for _, s := range segs {
		if s == "" {
			return Key{}, invalidKeyError("segment must not be empty")
		}
		for i := 0; i < len(s); i++ {
			if !validSegmentByte(s[i]) && s[i] != '.' {
				return Key{}, invalidKeyError(fmt.Sprintf("invalid character %q in segment %q", s[i], s))
			}
		}
	}
	cp := make([]string, len(segs))
	copy(cp, segs)
	name := encode(cp)
	if len(name) > MaxNameLength {
		return Key{}, invalidKeyError(fmt.Sprintf("key name exceeds %d bytes", MaxNameLength))
	}
	return Key{kind: kind, segments: cp, name: name}, nil
}

// Kind returns the key's kind.
func (k Key) Kind() Kind { return k.kind }

// Name returns the canonical textual form.
func (k Key) Name() string { return k.name }

// Segments returns a copy of the segment list.
func (k Key) Segments() []string {
	cp := make([]string, len(k.segments))
	copy(cp, k.segments)
	return cp
}

// Equal compares two keys by kind and segment list, per spec.
func (k Key) Equal(other Key) bool {
	if k.kind != other.kind || len(k.segments) != len(other.segments) {
		return false
	}
	for i := range k.segments {
		if k.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// HashKey returns a value suitable for use as a map key, encoding kind and
// segments (not the textual name) so that Equal keys hash identically
// regardless of quoting choices upstream.
func (k Key) HashKey() string {
	var b strings.Builder
	b.WriteByte(byte(k.kind))
	for _, s := range k.segments {
		b.WriteByte(0)
		b.WriteString(s)
	}
	return b.String()
}

func (k Key) String() string { return k.name }

// StartsWithSegments reports whether pre is a (possibly equal) prefix of
// k's segments.
func (k Key) StartsWithSegments(pre []string) bool {
	if len(pre) > len(k.segments) {
		return false
	}
	for i := range pre {
		if k.segments[i] != pre[i] {
			return false
		}
	}
	return true
}

// StripPrefixSegments walks pre against k's segments. On the first mismatch
// k is returned unchanged. If pre equals k's segments exactly, an error is
// returned since an empty key is disallowed.
func (k Key) StripPrefixSegments(pre []string) (Key, error) {
	if !k.StartsWithSegments(pre) {
		return k, nil
	}
	if len(pre) == len(k.segments) {
		return Key{}, invalidKeyError("stripping prefix would yield an empty key")
	}
	return FromSegments(k.kind, k.segments[len(pre):])
}

// AppendSegments returns a new Key whose segments are k's segments followed
// by extra, re-validating the aggregate.
func (k Key) AppendSegments(extra ...string) (Key, error) {
	return FromSegments(k.kind, append(k.Segments(), extra...))
}

// AppendKey returns a new Key whose segments are k's followed by other's.
// other must be the same kind (meta keys cannot be appended since the
// result would have more than one segment).
func (k Key) AppendKey(other Key) (Key, error) {
	if other.kind == Meta {
		return Key{}, invalidKeyError("cannot append a meta key")
	}
	return k.AppendSegments(other.segments...)
}

// parse runs the single left-to-right scan described in spec §4.A.
func parse(name string) ([]string, error) {
	if name == "" {
		return nil, invalidKeyError("empty key")
	}
	var segs []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if inQuote {
			if c == '"' {
				inQuote = false
				continue
			}
			if !validSegmentByte(c) && c != '.' {
				return nil, invalidKeyError(fmt.Sprintf("invalid character %q", c))
			}
			cur.WriteByte(c)
			continue
		}
		switch {
		case c == '"':
			inQuote = true
		case c == '.':
			if cur.Len() == 0 {
				return nil, invalidKeyError("empty segment")
			}
			segs = append(segs, cur.String())
			cur.Reset()
		case validSegmentByte(c):
			cur.WriteByte(c)
		default:
			return nil, invalidKeyError(fmt.Sprintf("invalid character %q", c))
		}
	}
	if inQuote {
		return nil, invalidKeyError("unbalanced quote")
	}
	if cur.Len() == 0 {
		return nil, invalidKeyError("trailing separator or empty segment")
	}
	segs = append(segs, cur.String())
	return segs, nil
}

// encode is the inverse of parse: segments containing "." (and only those)
// are wrapped in double quotes.
func encode(segs []string) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte('.')
		}
		if strings.ContainsRune(s, '.') {
			b.WriteByte('"')
			b.WriteString(s)
			b.WriteByte('"')
		} else {
			b.WriteString(s)
		}
	}
	return b.String()
}
