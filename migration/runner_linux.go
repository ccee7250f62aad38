// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

//go:build linux

package migration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// memfdRunner loads a migration binary into an anonymous, in-memory file
// (memfd_create(2)) and executes it by path through /proc/self/fd, so the
// decoded executable bytes are never written to a real filesystem location
// (spec §4.J step 6c).
type memfdRunner struct{}

// DefaultRunner returns the production Runner.
func DefaultRunner() Runner { return memfdRunner{} }

func (memfdRunner) Run(ctx context.Context, binary []byte, args []string) (int, error) {
	fd, err := unix.MemfdCreate("settings-migration", 0)
	if err != nil {
		return 0, fmt.Errorf("memfd_create: %w", err)
	}
	f := os.NewFile(uintptr(fd), "settings-migration")
	defer f.Close()

	if _, err := f.Write(binary); err != nil {
		return 0, fmt.Errorf("writing migration binary to memfd: %w", err)
	}
	if err := unix.Fchmod(fd, 0o700); err != nil {
		return 0, fmt.Errorf("chmod memfd: %w", err)
	}

	cmd := exec.CommandContext(ctx, fmt.Sprintf("/proc/self/fd/%d", fd), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err = cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}
