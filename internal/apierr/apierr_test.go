// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package apierr

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bottlerocket-os/settings-engine/datastore"
)

func TestClassStatusMapping(t *testing.T) {
	cases := map[Class]int{
		ClassInternal:          http.StatusInternalServerError,
		ClassInvalidInput:      http.StatusBadRequest,
		ClassNotFound:          http.StatusNotFound,
		ClassEmptyCommit:       http.StatusUnprocessableEntity,
		ClassUpdateLockHeld:    http.StatusLocked,
		ClassDisallowedInState: http.StatusConflict,
	}
	for class, want := range cases {
		if got := class.Status(); got != want {
			t.Errorf("Class(%d).Status() = %d, want %d", class, got, want)
		}
	}
}

func TestFromDatastoreMapsInvalidTransactionToEmptyCommit(t *testing.T) {
	dsErr := datastore.InvalidTransactionError("tx is empty")
	got := FromDatastore(dsErr)
	if got.Class != ClassEmptyCommit {
		t.Fatalf("got class %v", got.Class)
	}
}

func TestWriteRendersJSONBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, NotFound("no such key"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"error\":\"no such key\"}\n" {
		t.Fatalf("got body %q", got)
	}
}
