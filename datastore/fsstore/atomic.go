// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package fsstore

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// tombstoneBody is the on-disk sentinel marking a pending unset. No valid
// scalar encoding from package scalar ever serializes to this exact byte
// sequence (every scalar encoding is non-empty JSON text that never consists
// of a lone NUL byte, e.g. `""`, `0`, `null`, or an array/object), so a single NUL
// byte is unambiguous without a second, more expensive check. See spec §9
// open question on tombstone representation.
var tombstoneBody = []byte{0}

func isTombstone(body []byte) bool {
	return len(body) == 1 && body[0] == 0
}

// writeFileAtomic writes body to path via a temp file in the same
// directory followed by rename, so a crash midway through yields either
// the previous contents or the new ones, never a truncated file.
func writeFileAtomic(path string, body []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+uuid.NewString())
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
