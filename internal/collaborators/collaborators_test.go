// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package collaborators

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bottlerocket-os/settings-engine/updatestate"
)

func TestOSReleaseParsesQuotedValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "os-release")
	body := "VERSION_ID=\"1.19.0\"\nID=bottlerocket\n# a comment\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := OSRelease{Path: path}.OSRelease(context.Background())
	if err != nil {
		t.Fatalf("OSRelease: %v", err)
	}
	m := info.(map[string]interface{})
	if m["version_id"] != "1.19.0" {
		t.Fatalf("unexpected version_id: %v", m["version_id"])
	}
	if m["id"] != "bottlerocket" {
		t.Fatalf("unexpected id: %v", m["id"])
	}
}

func TestUpdateStateDispatchAdvancesState(t *testing.T) {
	dir := t.TempDir()
	u := UpdateState{Path: filepath.Join(dir, "status.json")}
	ctx := context.Background()

	st, err := u.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st != updatestate.Idle {
		t.Fatalf("expected idle initial state, got %s", st)
	}

	if err := u.Dispatch(ctx, updatestate.RefreshUpdates); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	st, err = u.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st != updatestate.Available {
		t.Fatalf("expected available after refresh-updates, got %s", st)
	}

	status, err := u.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	m := status.(map[string]interface{})
	if m["state"] != "available" {
		t.Fatalf("unexpected status: %v", m)
	}
}
