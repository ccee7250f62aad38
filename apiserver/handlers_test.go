// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package apiserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bottlerocket-os/settings-engine/datastore/memstore"
	"github.com/bottlerocket-os/settings-engine/updatestate"
)

type fakeOS struct{}

func (fakeOS) OSRelease(context.Context) (interface{}, error) {
	return map[string]string{"version_id": "1.2.3"}, nil
}

type fakeApplier struct {
	calls [][]string
}

func (f *fakeApplier) Apply(_ context.Context, keys []string, all bool) error {
	if all {
		f.calls = append(f.calls, []string{"*"})
		return nil
	}
	f.calls = append(f.calls, keys)
	return nil
}

type fakeUpdates struct {
	state updatestate.State
}

func (f *fakeUpdates) State(context.Context) (updatestate.State, error) { return f.state, nil }
func (f *fakeUpdates) Dispatch(context.Context, updatestate.Action) error {
	return nil
}
func (f *fakeUpdates) Status(context.Context) (interface{}, error) {
	return map[string]string{"status": "idle"}, nil
}

func newTestServer() *Server {
	store := memstore.New()
	return New(store, "", WithOSCollaborator(fakeOS{}), WithRegistry(NewPromRegistry()))
}

func doRequest(r *Server, method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.Router().ServeHTTP(w, req)
	return w
}

func TestSettingsPatchThenCommitRoundTrip(t *testing.T) {
	s := newTestServer()

	w := doRequest(s, http.MethodPatch, "/settings?tx=t1", `{"network":{"hostname":"example"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(s, http.MethodGet, "/tx?tx=t1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("tx get: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var pending map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	network, ok := pending["network"].(map[string]interface{})
	if !ok || network["hostname"] != "example" {
		t.Fatalf("unexpected pending body: %v", pending)
	}

	w = doRequest(s, http.MethodPost, "/tx/commit?tx=t1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("commit: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(s, http.MethodGet, "/settings?prefix=network", "")
	if w.Code != http.StatusOK {
		t.Fatalf("settings get: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var live map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &live); err != nil {
		t.Fatalf("decode live: %v", err)
	}
	network, ok = live["network"].(map[string]interface{})
	if !ok || network["hostname"] != "example" {
		t.Fatalf("expected committed hostname in live view, got %v", live)
	}
}

func TestCommitEmptyTransactionReturns422(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodPost, "/tx/commit?tx=nope", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTxApplyInvokesApplier(t *testing.T) {
	applier := &fakeApplier{}
	s := newTestServer()
	s.applier = applier

	w := doRequest(s, http.MethodPost, "/tx/apply?keys=network.hostname", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(applier.calls) != 1 || applier.calls[0][0] != "network.hostname" {
		t.Fatalf("unexpected applier calls: %v", applier.calls)
	}
}

func TestActionRejectedWhenDisallowed(t *testing.T) {
	s := newTestServer()
	s.updates = &fakeUpdates{state: updatestate.Staged}

	w := doRequest(s, http.MethodPost, "/actions/refresh-updates", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestActionAllowed(t *testing.T) {
	s := newTestServer()
	s.updates = &fakeUpdates{state: updatestate.Idle}

	w := doRequest(s, http.MethodPost, "/actions/refresh-updates", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestOSEndpoint(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/os", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["version_id"] != "1.2.3" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSettingsGetOnEmptyStoreReturns404(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/settings", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSettingsGetWithPrefixOnEmptyStoreReturnsEmptyObject(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/settings?prefix=network", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSettingsGetWithEmptyPrefixReturns400(t *testing.T) {
	s := newTestServer()
	doRequest(s, http.MethodPatch, "/settings?tx=t1", `{"network":{"hostname":"example"}}`)
	doRequest(s, http.MethodPost, "/tx/commit?tx=t1", "")

	w := doRequest(s, http.MethodGet, "/settings?prefix=", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTxDeleteDiscardsPending(t *testing.T) {
	s := newTestServer()
	doRequest(s, http.MethodPatch, "/settings?tx=scratch", `{"network":{"hostname":"x"}}`)

	w := doRequest(s, http.MethodDelete, "/tx?tx=scratch", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(s, http.MethodGet, "/tx/list", "")
	var txs []string
	if err := json.Unmarshal(w.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected no open transactions after delete, got %v", txs)
	}
}
