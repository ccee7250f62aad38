// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package cliexit gives the settings-engine binaries a shared way to carry
// an intended process exit code on an error returned from cobra's RunE,
// per spec §6's "exit code 2 for bad arguments, 1 for runtime error, 0 on
// success" contract.
package cliexit

// Err wraps err with the process exit code main should use for it.
type Err struct {
	Code int
	Err  error
}

func (e *Err) Error() string { return e.Err.Error() }
func (e *Err) Unwrap() error { return e.Err }

// Usage wraps err as a bad-arguments failure (exit code 2).
func Usage(err error) error { return &Err{Code: 2, Err: err} }

// Runtime wraps err as a runtime failure (exit code 1).
func Runtime(err error) error { return &Err{Code: 1, Err: err} }

// Code extracts the intended exit code from err, defaulting to 1 for any
// error not produced by Usage or Runtime.
func Code(err error) int {
	if e, ok := err.(*Err); ok {
		return e.Code
	}
	return 1
}
