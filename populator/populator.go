// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package populator seeds a fresh or existing datastore with a variant's
// compiled-in default settings and metadata (spec §4.I). Grounded on
// original_source/sources/api/storewolf/src/main.rs's algorithm — creating
// the datastore on first boot, merging a precedence-ordered set of TOML
// default files, and writing only the keys not already present — re-
// expressed idiomatically against this module's datastore/fsstore/key
// packages rather than translated line for line.
package populator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/bottlerocket-os/settings-engine/datastore"
	"github.com/bottlerocket-os/settings-engine/datastore/fsstore"
	"github.com/bottlerocket-os/settings-engine/internal/merge"
	"github.com/bottlerocket-os/settings-engine/internal/rlog"
	"github.com/bottlerocket-os/settings-engine/key"
	"github.com/bottlerocket-os/settings-engine/version"
)

// LaunchTransaction is the named pending transaction default settings are
// staged under, so first-boot services go through a normal commit cycle
// (spec §4.I step 3, resolved open question #1).
const LaunchTransaction = "storewolf"

var settingsRoot = mustKey("settings")

func mustKey(name string) key.Key {
	k, err := key.New(key.Data, name)
	if err != nil {
		panic(err)
	}
	return k
}

// Result summarizes one populator run, useful for logging and tests.
type Result struct {
	Created         bool
	SettingsWritten int
	MetadataWritten int
	OtherWritten    int
}

// Populate implements spec §4.I against the datastore rooted at base. roots
// is a precedence-ordered list of directories of *.toml default files
// (earliest lowest priority, e.g. a common defaults.d/ then a variant
// overlay); each directory's files are merged in sorted-filename order,
// then the per-root trees are merged in the given order. ver is used only
// when the datastore does not yet exist, to name the new directory; callers
// resolve it themselves (e.g. from /etc/os-release) before calling Populate.
func Populate(ctx context.Context, base string, roots []string, ver version.Version, log rlog.Logger) (*Result, error) {
	if log == nil {
		log = rlog.NoOp{}
	}
	res := &Result{}

	currentLive := filepath.Join(base, fsstore.CurrentLink, "live")
	if _, err := os.Stat(currentLive); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("populator: checking for an existing datastore: %w", err)
		}
		log.Info("creating datastore at %s", base)
		if _, err := fsstore.CreateSkeleton(base, ver); err != nil {
			return nil, fmt.Errorf("populator: creating datastore: %w", err)
		}
		res.Created = true
	}

	concreteDir, _, err := fsstore.ResolveCurrent(base)
	if err != nil {
		return nil, fmt.Errorf("populator: resolving current version: %w", err)
	}

	// Wipe pending/ unconditionally before seeding (spec §4.I step 5): any
	// transaction left open from a prior boot is discarded, not resumed.
	if err := os.RemoveAll(filepath.Join(concreteDir, "pending")); err != nil {
		return nil, fmt.Errorf("populator: clearing pending transactions: %w", err)
	}

	store, err := fsstore.Open(concreteDir)
	if err != nil {
		return nil, fmt.Errorf("populator: opening datastore: %w", err)
	}

	defaults, err := loadDefaultsTree(roots)
	if err != nil {
		return nil, err
	}

	metadataVal, hasMetadata := defaults["metadata"]
	settingsVal, hasSettings := defaults["settings"]
	delete(defaults, "metadata")
	delete(defaults, "settings")

	if hasSettings {
		settingsTree, ok := settingsVal.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("populator: 'settings' key in defaults is not a table")
		}
		flat, err := flattenUnder(settingsTree, settingsRoot)
		if err != nil {
			return nil, fmt.Errorf("populator: serializing default settings: %w", err)
		}
		n, err := writeIfAbsent(ctx, store, flat, datastore.Pending(LaunchTransaction))
		if err != nil {
			return nil, err
		}
		res.SettingsWritten = n
	}

	if hasMetadata {
		metadataTree, ok := metadataVal.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("populator: 'metadata' key in defaults is not a table")
		}
		triples, err := parseMetadataTree(metadataTree)
		if err != nil {
			return nil, err
		}
		for _, t := range triples {
			_, ok, err := store.GetMetadataRaw(ctx, t.Meta, t.Data)
			if err != nil {
				return nil, fmt.Errorf("populator: querying existing metadata: %w", err)
			}
			if ok {
				continue
			}
			if err := store.SetMetadata(ctx, t.Meta, t.Data, t.Value); err != nil {
				return nil, fmt.Errorf("populator: writing metadata: %w", err)
			}
			res.MetadataWritten++
		}
	}

	// Whatever remains (services, configuration-files, os, ...) is written
	// to Live, each top-level section naming its own key root.
	if len(defaults) > 0 {
		flat, err := flattenTree(defaults)
		if err != nil {
			return nil, fmt.Errorf("populator: serializing other defaults: %w", err)
		}
		n, err := writeIfAbsent(ctx, store, flat, datastore.Live)
		if err != nil {
			return nil, err
		}
		res.OtherWritten = n
	}

	return res, nil
}

// writeIfAbsent writes only the keys in flat not already populated under
// committed, per spec §4.I's idempotence requirement.
func writeIfAbsent(ctx context.Context, store datastore.Store, flat map[string]string, committed datastore.Committed) (int, error) {
	toWrite := map[string]datastore.KeyValue{}
	for name, val := range flat {
		k, err := key.New(key.Data, name)
		if err != nil {
			return 0, err
		}
		populated, err := store.KeyPopulated(ctx, k, committed)
		if err != nil {
			return 0, fmt.Errorf("populator: querying existing key %s: %w", name, err)
		}
		if populated {
			continue
		}
		toWrite[k.HashKey()] = datastore.KV(k, val)
	}
	if len(toWrite) == 0 {
		return 0, nil
	}
	if err := store.SetKeys(ctx, toWrite, committed); err != nil {
		return 0, fmt.Errorf("populator: writing keys: %w", err)
	}
	return len(toWrite), nil
}

// loadDefaultsTree merges roots in precedence order (earliest lowest
// priority); within a root, *.toml files merge in sorted-filename order.
func loadDefaultsTree(roots []string) (map[string]interface{}, error) {
	trees := make([]map[string]interface{}, 0, len(roots))
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("populator: reading defaults directory %s: %w", root, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == ".toml" {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		rootTree := map[string]interface{}{}
		for _, name := range names {
			body, err := os.ReadFile(filepath.Join(root, name))
			if err != nil {
				return nil, fmt.Errorf("populator: reading %s: %w", name, err)
			}
			var fileTree map[string]interface{}
			if err := toml.Unmarshal(body, &fileTree); err != nil {
				return nil, fmt.Errorf("populator: %s is not valid TOML: %w", name, err)
			}
			rootTree = merge.Maps(rootTree, fileTree)
		}
		trees = append(trees, rootTree)
	}
	return merge.MapsInOrder(trees...), nil
}
