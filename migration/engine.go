// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package migration implements the datastore migration engine (spec §4.J):
// given a target version and a signed repository of migration binaries, it
// walks the datastore through each intervening schema change and flips the
// versioned symlink chain atomically onto the result. Grounded on the
// original migrator's (original_source/sources/api/migration/migrator)
// sequential apply-then-flip shape and on storage/disk's directory-per-
// version layout, reworked around this repository's fsstore package.
package migration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/bottlerocket-os/settings-engine/datastore/fsstore"
	"github.com/bottlerocket-os/settings-engine/internal/rlog"
	"github.com/bottlerocket-os/settings-engine/key"
	"github.com/bottlerocket-os/settings-engine/version"
)

// Repo is the subset of target.Repo the engine needs: verified reads of
// named targets (manifest.json and individual migration binaries).
type Repo interface {
	ReadTarget(name string) ([]byte, error)
}

// Runner invokes one migration binary's decoded bytes as a sealed,
// in-memory executable (spec §4.J step 6c: "so the filesystem never holds
// the binary"), returning its exit status.
type Runner interface {
	Run(ctx context.Context, binary []byte, args []string) (exitCode int, err error)
}

// Engine runs migrations against a datastore base directory.
type Engine struct {
	Repo   Repo
	Runner Runner
	Log    rlog.Logger
}

// New builds an Engine. If runner is nil, DefaultRunner() is used.
func New(repo Repo, runner Runner, log rlog.Logger) *Engine {
	if runner == nil {
		runner = DefaultRunner()
	}
	if log == nil {
		log = rlog.NoOp{}
	}
	return &Engine{Repo: repo, Runner: runner, Log: log}
}

// Migrate runs spec §4.J's algorithm against the datastore rooted at base,
// bringing it to targetVersion.
func (e *Engine) Migrate(ctx context.Context, base string, targetVersion version.Version) (*Report, error) {
	currentDir, currentVersion, err := fsstore.ResolveCurrent(base)
	if err != nil {
		return nil, fmt.Errorf("migration: resolving current version: %w", err)
	}

	if currentVersion.Compare(targetVersion) == 0 {
		return &Report{From: currentVersion, To: targetVersion, NoOp: true}, nil
	}
	if !currentVersion.SameMajor(targetVersion) {
		return nil, fmt.Errorf("migration: major version change %s -> %s is out of scope", currentVersion, targetVersion)
	}

	manifestBytes, err := e.Repo.ReadTarget("manifest.json")
	if err != nil {
		return nil, fmt.Errorf("migration: fetching manifest: %w", err)
	}
	manifest, err := ParseManifest(manifestBytes)
	if err != nil {
		return nil, err
	}

	names, forward := manifest.List(currentVersion, targetVersion)
	report := &Report{From: currentVersion, To: targetVersion, Forward: forward}

	if len(names) == 0 {
		e.Log.WithFields(rlog.Fields{"from": currentVersion.String(), "to": targetVersion.String()}).
			Info("no migrations required; flipping version links onto current store")
		if err := persistReport(ctx, currentDir, *report); err != nil {
			return nil, err
		}
		if err := fsstore.FlipSymlinks(base, targetVersion, filepath.Base(currentDir)); err != nil {
			return nil, fmt.Errorf("migration: flipping symlinks: %w", err)
		}
		return report, nil
	}

	direction := "--forward"
	if !forward {
		direction = "--backward"
	}

	prevDir := currentDir
	var finalDirName string
	for i, name := range names {
		raw, err := e.Repo.ReadTarget(name)
		if err != nil {
			return nil, fmt.Errorf("migration: fetching %s: %w", name, err)
		}
		binary, err := lz4Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("migration: decoding %s: %w", name, err)
		}

		newDirName := fsstore.NewConcreteDirName(targetVersion)
		newDir := filepath.Join(base, newDirName)
		if _, err := os.Stat(newDir); err == nil {
			return nil, fmt.Errorf("migration: %s already exists", newDir)
		}

		args := []string{direction, "--source-datastore", prevDir, "--target-datastore", newDir}
		exitCode, runErr := e.Runner.Run(ctx, binary, args)
		report.Steps = append(report.Steps, StepResult{Name: name, Forward: forward, ExitCode: exitCode})
		if runErr != nil {
			return nil, fmt.Errorf("migration: invoking %s: %w", name, runErr)
		}
		if exitCode != 0 {
			return nil, fmt.Errorf("migration: %s exited with status %d (no partial flip)", name, exitCode)
		}

		// Keep the very first source directory around past its step for
		// post-failure debugging; every later intermediate is disposable
		// once the next step has consumed it.
		if i > 0 {
			_ = os.RemoveAll(prevDir)
		}
		prevDir = newDir
		finalDirName = newDirName
	}

	if err := persistReport(ctx, prevDir, *report); err != nil {
		return nil, err
	}
	if err := fsstore.FlipSymlinks(base, targetVersion, finalDirName); err != nil {
		return nil, fmt.Errorf("migration: flipping symlinks: %w", err)
	}
	return report, nil
}

func lz4Decode(b []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(b))
	return io.ReadAll(r)
}

func persistReport(ctx context.Context, dir string, report Report) error {
	store, err := fsstore.Open(dir)
	if err != nil {
		return fmt.Errorf("migration: opening %s to record report: %w", dir, err)
	}
	val, err := report.Marshal()
	if err != nil {
		return err
	}
	meta, err := key.New(key.Meta, ReportMetaName)
	if err != nil {
		return err
	}
	return store.SetMetadata(ctx, meta, ReportAnchor, val)
}
