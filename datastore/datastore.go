// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package datastore defines the transactional key/value store contract
// (spec §4.C): live and pending views over data keys, inheriting metadata
// over data keys, and named, independently-committable transactions. Two
// implementations exist: memstore (in-memory, used by tests) and fsstore
// (the production,
// filesystem-backed store with versioned symlinks).
package datastore

import (
	"context"

	"github.com/bottlerocket-os/settings-engine/key"
)

// Committed identifies which view of the store an operation targets: the
// live, authoritative view, or a named pending transaction's view (which
// shadows Live for keys it has touched).
type Committed struct {
	tx string // empty means Live
}

// Live is the authoritative committed view.
var Live = Committed{}

// Pending returns the view for the named transaction. tx must be non-empty.
func Pending(tx string) Committed {
	return Committed{tx: tx}
}

// IsLive reports whether c refers to the Live view.
func (c Committed) IsLive() bool { return c.tx == "" }

// Tx returns the transaction name, or "" if c is Live.
func (c Committed) Tx() string { return c.tx }

func (c Committed) String() string {
	if c.IsLive() {
		return "live"
	}
	return "pending:" + c.tx
}

// Store is the interface implemented by every datastore backend. All
// operations that can fail return an *Error with a typed Code.
type Store interface {
	Trigger

	// KeyPopulated reports whether k has a value under committed.
	KeyPopulated(ctx context.Context, k key.Key, committed Committed) (bool, error)

	// ListPopulatedKeys returns the set of populated keys whose segments
	// start with prefix's segments, under committed.
	ListPopulatedKeys(ctx context.Context, prefix key.Key, committed Committed) (map[string]key.Key, error)

	// GetKey returns k's value under committed, or ok=false if unset.
	GetKey(ctx context.Context, k key.Key, committed Committed) (value string, ok bool, err error)

	// SetKey sets k's value under committed.
	SetKey(ctx context.Context, k key.Key, value string, committed Committed) error

	// UnsetKey removes k under committed. Under Live this deletes the key
	// outright; under a pending transaction it records a tombstone.
	UnsetKey(ctx context.Context, k key.Key, committed Committed) error

	// SetKeys is a batched form of SetKey.
	SetKeys(ctx context.Context, values map[string]KeyValue, committed Committed) error

	// UnsetKeys is a batched form of UnsetKey.
	UnsetKeys(ctx context.Context, keys []key.Key, committed Committed) error

	// GetMetadataRaw returns the metadata value for (m, k) set directly on
	// k, without walking ancestors.
	GetMetadataRaw(ctx context.Context, m key.Key, k key.Key) (value string, ok bool, err error)

	// GetMetadata walks k and its ancestors (deepest first) and returns the
	// first value found for m.
	GetMetadata(ctx context.Context, m key.Key, k key.Key) (value string, ok bool, err error)

	// SetMetadata sets the value for (m, k). Metadata is always Live.
	SetMetadata(ctx context.Context, m key.Key, k key.Key, value string) error

	// UnsetMetadata removes the value for (m, k).
	UnsetMetadata(ctx context.Context, m key.Key, k key.Key) error

	// ListPopulatedMetadata returns, for every data key under prefix that
	// has metadata set, the set of meta keys populated on it. If
	// filterName is non-nil, only that meta name is considered.
	ListPopulatedMetadata(ctx context.Context, prefix key.Key, filterName *key.Key) (map[string]MetaSet, error)

	// GetPrefix returns every populated key under prefix and its value,
	// under committed.
	GetPrefix(ctx context.Context, prefix key.Key, committed Committed) (map[string]string, error)

	// GetMetadataPrefix composes GetPrefix semantics for metadata.
	GetMetadataPrefix(ctx context.Context, prefix key.Key, name *key.Key) (map[string]MetaSet, error)

	// CommitTransaction applies tx's values and tombstones to Live and
	// removes tx. It returns the set of keys whose Live value changed.
	CommitTransaction(ctx context.Context, tx string) (map[string]key.Key, error)

	// DeleteTransaction discards tx's pending entries without committing
	// them, returning the set of keys that were pending.
	DeleteTransaction(ctx context.Context, tx string) (map[string]key.Key, error)

	// ListTransactions returns the set of open transaction names.
	ListTransactions(ctx context.Context) (map[string]bool, error)
}

// MetaSet is a set of meta keys, represented as a map for O(1) membership.
type MetaSet map[string]key.Key

// KeyValue pairs a parsed key with its intended value for SetKeys.
type KeyValue struct {
	Key   key.Key
	Value string
}

// KV constructs a KeyValue pair; exported so callers outside this package
// can build the SetKeys argument.
func KV(k key.Key, v string) KeyValue { return KeyValue{Key: k, Value: v} }
