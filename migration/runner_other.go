// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

//go:build !linux

package migration

import (
	"context"
	"errors"
)

type unsupportedRunner struct{}

// DefaultRunner returns a Runner that always errors: the production
// memfd-backed runner is Linux-only, matching the target platform (spec.md
// §1's Bottlerocket is a Linux distribution). Non-Linux builds are expected
// to supply their own Runner (e.g. a fake) for testing.
func DefaultRunner() Runner { return unsupportedRunner{} }

func (unsupportedRunner) Run(context.Context, []byte, []string) (int, error) {
	return 0, errors.New("migration: no Runner available on this platform")
}
