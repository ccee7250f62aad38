// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package memstore

import (
	"context"
	"testing"

	"github.com/bottlerocket-os/settings-engine/datastore"
	"github.com/bottlerocket-os/settings-engine/key"
)

func mustKey(t *testing.T, kind key.Kind, name string) key.Key {
	t.Helper()
	k, err := key.New(kind, name)
	if err != nil {
		t.Fatalf("key.New(%v, %q): %v", kind, name, err)
	}
	return k
}

func TestSetGetUnsetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	k := mustKey(t, key.Data, "settings.motd")

	if err := s.SetKey(ctx, k, `"hi"`, datastore.Live); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.GetKey(ctx, k, datastore.Live)
	if err != nil || !ok || v != `"hi"` {
		t.Fatalf("got (%q, %v, %v)", v, ok, err)
	}

	if err := s.UnsetKey(ctx, k, datastore.Live); err != nil {
		t.Fatal(err)
	}
	_, ok, err = s.GetKey(ctx, k, datastore.Live)
	if err != nil || ok {
		t.Fatalf("expected unset, got ok=%v err=%v", ok, err)
	}
}

// TestScenarioS1 mirrors spec.md scenario S1: set/read round trip through
// a transaction commit.
func TestScenarioS1(t *testing.T) {
	s := New()
	ctx := context.Background()
	k := mustKey(t, key.Data, "settings.motd")
	tx := datastore.Pending("t")

	if err := s.SetKey(ctx, k, `"hi"`, tx); err != nil {
		t.Fatal(err)
	}

	v, ok, err := s.GetKey(ctx, k, tx)
	if err != nil || !ok || v != `"hi"` {
		t.Fatalf("pending read: got (%q, %v, %v)", v, ok, err)
	}

	_, ok, err = s.GetKey(ctx, k, datastore.Live)
	if err != nil || ok {
		t.Fatalf("live read before commit should be absent, got ok=%v", ok)
	}

	changed, err := s.CommitTransaction(ctx, "t")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := changed[k.Name()]; !ok || len(changed) != 1 {
		t.Fatalf("expected exactly settings.motd changed, got %v", changed)
	}

	v, ok, err = s.GetKey(ctx, k, datastore.Live)
	if err != nil || !ok || v != `"hi"` {
		t.Fatalf("live read after commit: got (%q, %v, %v)", v, ok, err)
	}

	txs, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if txs["t"] {
		t.Fatalf("expected transaction t to be gone after commit")
	}
}

// TestScenarioS2 mirrors spec.md scenario S2: metadata inheritance.
func TestScenarioS2(t *testing.T) {
	s := New()
	ctx := context.Background()

	meta := mustKey(t, key.Meta, "affected-services")
	a := mustKey(t, key.Data, "settings.a")
	abc := mustKey(t, key.Data, "settings.a.b.c")

	if err := s.SetMetadata(ctx, meta, a, `["svc"]`); err != nil {
		t.Fatal(err)
	}

	v, ok, err := s.GetMetadata(ctx, meta, abc)
	if err != nil || !ok || v != `["svc"]` {
		t.Fatalf("inherited lookup: got (%q, %v, %v)", v, ok, err)
	}

	_, ok, err = s.GetMetadataRaw(ctx, meta, abc)
	if err != nil || ok {
		t.Fatalf("raw lookup should not inherit, got ok=%v", ok)
	}
}

func TestEmptyCommitFails(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CommitTransaction(ctx, "nonexistent"); err == nil {
		t.Fatal("expected error committing an empty/nonexistent transaction")
	}
}

func TestDeleteNonexistentTransactionIsEmptySet(t *testing.T) {
	s := New()
	ctx := context.Background()
	changed, err := s.DeleteTransaction(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changed) != 0 {
		t.Fatalf("expected empty set, got %v", changed)
	}
}

func TestTombstoneThenCommitRemovesFromLive(t *testing.T) {
	s := New()
	ctx := context.Background()
	k := mustKey(t, key.Data, "settings.a")

	if err := s.SetKey(ctx, k, `"x"`, datastore.Live); err != nil {
		t.Fatal(err)
	}
	if err := s.UnsetKey(ctx, k, datastore.Pending("t")); err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.GetKey(ctx, k, datastore.Pending("t"))
	if err != nil || ok {
		t.Fatalf("pending read should see tombstone as absent, got ok=%v", ok)
	}

	if _, err := s.CommitTransaction(ctx, "t"); err != nil {
		t.Fatal(err)
	}
	_, ok, err = s.GetKey(ctx, k, datastore.Live)
	if err != nil || ok {
		t.Fatalf("expected live key removed after tombstone commit, ok=%v", ok)
	}
}

func TestTriggerFires(t *testing.T) {
	s := New()
	ctx := context.Background()
	var sawBefore, sawAfter bool
	s.Register(datastore.TriggerConfig{
		Before: func(_ context.Context, _ datastore.TriggerEvent) error {
			sawBefore = true
			return nil
		},
		After: func(_ context.Context, _ datastore.TriggerEvent) {
			sawAfter = true
		},
	})
	k := mustKey(t, key.Data, "settings.a")
	if err := s.SetKey(ctx, k, `"x"`, datastore.Live); err != nil {
		t.Fatal(err)
	}
	if !sawBefore || !sawAfter {
		t.Fatalf("expected both trigger callbacks to fire, before=%v after=%v", sawBefore, sawAfter)
	}
}
