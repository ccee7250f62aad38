// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package collaborators

import (
	"context"
	"fmt"
	"os/exec"
)

// Applier shells out to the external settings applier binary and
// implements apiserver.Applier.
type Applier struct {
	Path string
}

// Apply implements apiserver.Applier. When all is true, keys is ignored and
// the applier is invoked with --all so it re-applies every setting; keys is
// JSON-flattened dotted names, one --key flag per entry. The applier is
// started and Apply returns without waiting for it to exit; only a failure
// to start it is reported.
func (a Applier) Apply(_ context.Context, keys []string, all bool) error {
	var args []string
	if all {
		args = []string{"--all"}
	} else {
		for _, k := range keys {
			args = append(args, "--key", k)
		}
	}
	cmd := exec.Command(a.Path, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("collaborators: starting applier %s: %w", a.Path, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
