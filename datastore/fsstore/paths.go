// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package fsstore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bottlerocket-os/settings-engine/key"
)

const (
	liveDir     = "live"
	metadataDir = "metadata"
	pendingDir  = "pending"
)

// escapeSegment maps a key segment onto a filesystem-safe path component.
// The only character valid in a key segment that is unsafe as a single
// path component is '/' (segments may legally contain it, per spec §4.A);
// the quoted segments "." and ".." would name a directory itself or its
// parent, so their dots are written as "%2E". '%' is escaped too so the
// mapping is unambiguous to reverse.
func escapeSegment(s string) string {
	if s == "." || s == ".." {
		return strings.ReplaceAll(s, ".", "%2E")
	}
	if !strings.ContainsAny(s, "/%") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '/':
			b.WriteString("%2F")
		case '%':
			b.WriteString("%25")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func unescapeSegment(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			switch s[i+1 : i+3] {
			case "2F":
				b.WriteByte('/')
				i += 2
				continue
			case "25":
				b.WriteByte('%')
				i += 2
				continue
			case "2E":
				b.WriteByte('.')
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// keyRelPath returns k's path relative to a live/ or pending/<tx>/ root.
func keyRelPath(k key.Key) string {
	segs := k.Segments()
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = escapeSegment(s)
	}
	return filepath.Join(parts...)
}

// relPathToKey reconstructs the Key that produced rel under a live/ or
// pending/<tx>/ root.
func relPathToKey(rel string) (key.Key, error) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	segs := make([]string, len(parts))
	for i, p := range parts {
		segs[i] = unescapeSegment(p)
	}
	return key.FromSegments(key.Data, segs)
}

// metaRelPath returns the path, relative to metadata/, for the pair (m, d).
func metaRelPath(m key.Key, d key.Key) string {
	segs := d.Segments()
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = escapeSegment(s)
	}
	parts[len(parts)-1] = parts[len(parts)-1] + "." + escapeSegment(m.Segments()[0])
	return filepath.Join(parts...)
}

// splitMetaRelPath is the inverse of metaRelPath: it recovers the data key
// and meta key from a path relative to metadata/.
func splitMetaRelPath(rel string) (data key.Key, meta key.Key, err error) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	last := parts[len(parts)-1]
	dot := strings.LastIndexByte(last, '.')
	if dot < 0 {
		return key.Key{}, key.Key{}, os.ErrInvalid
	}
	parts[len(parts)-1] = last[:dot]
	metaSeg := unescapeSegment(last[dot+1:])

	segs := make([]string, len(parts))
	for i, p := range parts {
		segs[i] = unescapeSegment(p)
	}
	data, err = key.FromSegments(key.Data, segs)
	if err != nil {
		return key.Key{}, key.Key{}, err
	}
	meta, err = key.FromSegments(key.Meta, []string{metaSeg})
	return data, meta, err
}
