// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package datastore

import "context"

// TriggerEvent describes one batch of key writes (a SetKeys, UnsetKeys or
// CommitTransaction call), passed to both the Before and After callbacks of
// a registered trigger.
type TriggerEvent struct {
	Tx      string
	Changed map[string]interface{}
}

// TriggerConfig bundles the optional Before/After callbacks a caller
// registers against a store (spec §4.C Trigger). The API server registers
// none; it takes the change set for the applier from CommitTransaction's
// return value.
type TriggerConfig struct {
	Before func(ctx context.Context, event TriggerEvent) error
	After  func(ctx context.Context, event TriggerEvent)
}

// Handle identifies a registered trigger so it can later be unregistered.
type Handle struct {
	id uint64
}

// NewHandle constructs a Handle wrapping a backend-assigned id. Backends
// use this to hand callers an opaque Unregister token.
func NewHandle(id uint64) Handle { return Handle{id: id} }

// ID returns the backend-assigned identifier, for use as a map key inside
// a Store implementation's trigger registry.
func (h Handle) ID() uint64 { return h.id }

// Trigger is embedded in Store so every backend supports change
// notification the same way.
type Trigger interface {
	// Register adds a trigger and returns a handle for Unregister.
	Register(config TriggerConfig) Handle

	// Unregister removes a previously registered trigger. Unregistering an
	// unknown handle is a no-op.
	Unregister(h Handle)
}
