// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package datastore

import "fmt"

// ErrorCode enumerates the failure kinds a Store operation can report,
// mirroring spec §7's error taxonomy as it applies to this layer.
type ErrorCode int

const (
	// InternalErr indicates an invariant violation inside the store.
	InternalErr ErrorCode = iota
	// NotFoundErr indicates a referenced key, transaction, or metadata
	// entry does not exist where the caller required it to.
	NotFoundErr
	// InvalidTransactionErr indicates an operation against a transaction
	// that is empty, already committed, or otherwise not usable.
	InvalidTransactionErr
	// IOErr indicates the backing store (filesystem, lock) failed.
	IOErr
)

func (c ErrorCode) String() string {
	switch c {
	case InternalErr:
		return "internal_error"
	case NotFoundErr:
		return "not_found"
	case InvalidTransactionErr:
		return "invalid_transaction"
	case IOErr:
		return "io_error"
	default:
		return "unknown"
	}
}

// Error is returned by every Store operation that can fail.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("datastore: %s: %s", e.Code, e.Message)
}

// NotFoundError builds a NotFoundErr for the given key or transaction name.
func NotFoundError(name string) *Error {
	return &Error{Code: NotFoundErr, Message: fmt.Sprintf("%s not found", name)}
}

// InternalError builds an InternalErr with a formatted message.
func InternalError(format string, args ...interface{}) *Error {
	return &Error{Code: InternalErr, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransactionError builds an InvalidTransactionErr.
func InvalidTransactionError(msg string) *Error {
	return &Error{Code: InvalidTransactionErr, Message: msg}
}

// IOError wraps a lower-level I/O failure.
func IOError(err error) *Error {
	return &Error{Code: IOErr, Message: err.Error()}
}
