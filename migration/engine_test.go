// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"

	"github.com/bottlerocket-os/settings-engine/datastore/fsstore"
	"github.com/bottlerocket-os/settings-engine/key"
)

type fakeRepo struct {
	targets map[string][]byte
}

func (f fakeRepo) ReadTarget(name string) ([]byte, error) {
	b, ok := f.targets[name]
	if !ok {
		return nil, fmt.Errorf("fakeRepo: no such target %q", name)
	}
	return b, nil
}

type recordedRun struct {
	args []string
}

type fakeRunner struct {
	exitCode int
	runErr   error
	calls    []recordedRun
}

func (f *fakeRunner) Run(_ context.Context, _ []byte, args []string) (int, error) {
	f.calls = append(f.calls, recordedRun{args: args})
	return f.exitCode, f.runErr
}

func lz4Compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compressing fixture: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing compressor: %v", err)
	}
	return buf.Bytes()
}

func TestMigrateWithEmptyListFlipsSymlinksOnly(t *testing.T) {
	base := t.TempDir()
	v1 := mustVersion(t, "1.0.0")
	if _, err := fsstore.CreateSkeleton(base, v1); err != nil {
		t.Fatalf("skeleton: %v", err)
	}

	repo := fakeRepo{targets: map[string][]byte{
		"manifest.json": []byte(`{"migrations": {}}`),
	}}
	runner := &fakeRunner{}
	e := New(repo, runner, nil)

	v2 := mustVersion(t, "1.1.0")
	report, err := e.Migrate(context.Background(), base, v2)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if report.NoOp {
		t.Fatalf("expected a version bump, not a no-op")
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no binary invocations, got %v", runner.calls)
	}

	_, resolved, err := fsstore.ResolveCurrent(base)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Compare(v2) != 0 {
		t.Fatalf("expected current to resolve to %s, got %s", v2, resolved)
	}
}

func TestMigrateSameVersionIsNoOp(t *testing.T) {
	base := t.TempDir()
	v1 := mustVersion(t, "1.0.0")
	if _, err := fsstore.CreateSkeleton(base, v1); err != nil {
		t.Fatalf("skeleton: %v", err)
	}
	repo := fakeRepo{targets: map[string][]byte{}}
	e := New(repo, &fakeRunner{}, nil)

	report, err := e.Migrate(context.Background(), base, v1)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !report.NoOp {
		t.Fatalf("expected NoOp when target == current")
	}
}

func TestMigrateRunsBinariesAndPersistsReport(t *testing.T) {
	base := t.TempDir()
	v1 := mustVersion(t, "1.0.0")
	if _, err := fsstore.CreateSkeleton(base, v1); err != nil {
		t.Fatalf("skeleton: %v", err)
	}

	binary := lz4Compress(t, []byte("#!/bin/true"))
	repo := fakeRepo{targets: map[string][]byte{
		"manifest.json": []byte(`{"migrations": {"1.0.0->1.1.0": ["add-hostname"]}}`),
		"add-hostname":  binary,
	}}
	runner := &fakeRunner{exitCode: 0}
	e := New(repo, runner, nil)

	v2 := mustVersion(t, "1.1.0")
	report, err := e.Migrate(context.Background(), base, v2)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected exactly one binary invocation, got %d", len(runner.calls))
	}
	args := runner.calls[0].args
	if args[0] != "--forward" {
		t.Fatalf("expected --forward, got %v", args)
	}
	if len(report.Steps) != 1 || report.Steps[0].Name != "add-hostname" {
		t.Fatalf("unexpected report steps: %+v", report.Steps)
	}

	finalDir, resolved, err := fsstore.ResolveCurrent(base)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Compare(v2) != 0 {
		t.Fatalf("expected current to resolve to %s, got %s", v2, resolved)
	}
	if filepath.Dir(finalDir) != base {
		t.Fatalf("unexpected final dir: %s", finalDir)
	}

	store, err := fsstore.Open(finalDir)
	if err != nil {
		t.Fatalf("opening final store: %v", err)
	}
	metaKey, _ := key.New(key.Meta, ReportMetaName)
	raw, ok, err := store.GetMetadataRaw(context.Background(), metaKey, ReportAnchor)
	if err != nil || !ok {
		t.Fatalf("expected persisted report, ok=%v err=%v", ok, err)
	}
	var persisted Report
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("decoding persisted report: %v", err)
	}
	if len(persisted.Steps) != 1 {
		t.Fatalf("unexpected persisted report: %+v", persisted)
	}
}

func TestMigrateFailsOnNonzeroExit(t *testing.T) {
	base := t.TempDir()
	v1 := mustVersion(t, "1.0.0")
	if _, err := fsstore.CreateSkeleton(base, v1); err != nil {
		t.Fatalf("skeleton: %v", err)
	}

	binary := lz4Compress(t, []byte("#!/bin/false"))
	repo := fakeRepo{targets: map[string][]byte{
		"manifest.json": []byte(`{"migrations": {"1.0.0->1.1.0": ["broken"]}}`),
		"broken":        binary,
	}}
	runner := &fakeRunner{exitCode: 1}
	e := New(repo, runner, nil)

	if _, err := e.Migrate(context.Background(), base, mustVersion(t, "1.1.0")); err == nil {
		t.Fatalf("expected migration failure on nonzero exit")
	}

	_, resolved, err := fsstore.ResolveCurrent(base)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Compare(v1) != 0 {
		t.Fatalf("expected current to remain at %s after failure, got %s", v1, resolved)
	}
}
