// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package populator

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultInventoryPath is the RPM inventory file the application-inventory
// symlink normally points at.
const DefaultInventoryPath = "/usr/share/bottlerocket/application-inventory.json"

// CreateInventorySymlink (re-)creates destination as a symlink to source,
// creating destination's parent directory if needed. Grounded on
// storewolf's create_inventory_symlink: a stale symlink from an older boot
// is replaced, not appended to.
func CreateInventorySymlink(source, destination string) error {
	parent := filepath.Dir(destination)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("populator: creating %s: %w", parent, err)
	}
	if err := os.Remove(destination); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("populator: removing stale inventory symlink: %w", err)
	}
	if err := os.Symlink(source, destination); err != nil {
		return fmt.Errorf("populator: creating inventory symlink: %w", err)
	}
	return nil
}
