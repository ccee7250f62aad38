// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package updatestate

import "testing"

func TestAllowedTransitions(t *testing.T) {
	if !Allowed(RefreshUpdates, Idle) {
		t.Fatal("refresh-updates should be legal while idle")
	}
	if Allowed(RefreshUpdates, Staged) {
		t.Fatal("refresh-updates should not be legal while staged")
	}
	if !Allowed(ActivateUpdate, Staged) {
		t.Fatal("activate-update should be legal once staged")
	}
	if !Allowed(Reboot, Ready) {
		t.Fatal("reboot should always be legal")
	}
}

func TestStateString(t *testing.T) {
	if Available.String() != "available" {
		t.Fatalf("got %q", Available.String())
	}
}
