// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package fsstore implements the filesystem-backed production datastore
// (spec §4.D): a concrete versioned directory containing live/, metadata/,
// and pending/<tx>/ trees of path-escaped key files, fronted by the
// versioned symlink chain managed in skeleton.go. Grounded on
// storage/disk's layout documentation and path-mapping idiom, reworked
// against the spec's Live/Pending/metadata-inheritance semantics rather
// than OPA's partitioned key-value mapping.
package fsstore

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/bottlerocket-os/settings-engine/datastore"
	"github.com/bottlerocket-os/settings-engine/key"
)

// Store is a datastore.Store backed by a single concrete versioned
// directory (root). Callers resolve the version symlink chain (via
// ResolveCurrent) before calling Open; fsstore itself never follows or
// flips the chain, since spec §4.J has the migrator do that with no server
// running concurrently.
type Store struct {
	root string

	mu       sync.RWMutex
	triggers map[uint64]datastore.TriggerConfig
	nextID   uint64
}

var _ datastore.Store = (*Store)(nil)

// Open returns a Store rooted at an already-resolved concrete versioned
// directory (as returned by ResolveCurrent or CreateSkeleton).
func Open(root string) (*Store, error) {
	for _, sub := range []string{liveDir, metadataDir, pendingDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o750); err != nil {
			return nil, datastore.IOError(err)
		}
	}
	return &Store{root: root, triggers: map[uint64]datastore.TriggerConfig{}}, nil
}

// Root returns the concrete directory this store is opened against.
func (s *Store) Root() string { return s.root }

func (s *Store) liveFile(k key.Key) string {
	return filepath.Join(s.root, liveDir, keyRelPath(k))
}

func (s *Store) pendingFile(tx string, k key.Key) string {
	return filepath.Join(s.root, pendingDir, tx, keyRelPath(k))
}

func (s *Store) pendingTxDir(tx string) string {
	return filepath.Join(s.root, pendingDir, tx)
}

func (s *Store) metaFile(m, d key.Key) string {
	return filepath.Join(s.root, metadataDir, metaRelPath(m, d))
}

// Register implements datastore.Trigger.
func (s *Store) Register(config datastore.TriggerConfig) datastore.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.triggers[s.nextID] = config
	return datastore.NewHandle(s.nextID)
}

// Unregister implements datastore.Trigger.
func (s *Store) Unregister(h datastore.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.triggers, h.ID())
}

func (s *Store) fireBefore(ctx context.Context, tx string, changed map[string]interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.triggers {
		if t.Before != nil {
			if err := t.Before(ctx, datastore.TriggerEvent{Tx: tx, Changed: changed}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) fireAfter(ctx context.Context, tx string, changed map[string]interface{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.triggers {
		if t.After != nil {
			t.After(ctx, datastore.TriggerEvent{Tx: tx, Changed: changed})
		}
	}
}

func readFile(path string) (string, bool, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, datastore.IOError(err)
	}
	return string(body), true, nil
}

// GetKey implements datastore.Store.
func (s *Store) GetKey(_ context.Context, k key.Key, committed datastore.Committed) (string, bool, error) {
	if !committed.IsLive() {
		body, err := os.ReadFile(s.pendingFile(committed.Tx(), k))
		if err == nil {
			if isTombstone(body) {
				return "", false, nil
			}
			return string(body), true, nil
		}
		if !os.IsNotExist(err) {
			return "", false, datastore.IOError(err)
		}
	}
	return readFile(s.liveFile(k))
}

// KeyPopulated implements datastore.Store.
func (s *Store) KeyPopulated(ctx context.Context, k key.Key, committed datastore.Committed) (bool, error) {
	_, ok, err := s.GetKey(ctx, k, committed)
	return ok, err
}

// SetKey implements datastore.Store.
func (s *Store) SetKey(ctx context.Context, k key.Key, value string, committed datastore.Committed) error {
	return s.SetKeys(ctx, map[string]datastore.KeyValue{k.HashKey(): datastore.KV(k, value)}, committed)
}

// SetKeys implements datastore.Store.
func (s *Store) SetKeys(ctx context.Context, values map[string]datastore.KeyValue, committed datastore.Committed) error {
	changed := make(map[string]interface{}, len(values))
	for _, kv := range values {
		changed[kv.Key.Name()] = kv.Value
	}
	if err := s.fireBefore(ctx, committed.Tx(), changed); err != nil {
		return err
	}
	for _, kv := range values {
		var path string
		if committed.IsLive() {
			path = s.liveFile(kv.Key)
		} else {
			path = s.pendingFile(committed.Tx(), kv.Key)
		}
		if err := writeFileAtomic(path, []byte(kv.Value), 0o640); err != nil {
			return datastore.IOError(err)
		}
	}
	s.fireAfter(ctx, committed.Tx(), changed)
	return nil
}

// UnsetKey implements datastore.Store.
func (s *Store) UnsetKey(ctx context.Context, k key.Key, committed datastore.Committed) error {
	return s.UnsetKeys(ctx, []key.Key{k}, committed)
}

// UnsetKeys implements datastore.Store.
func (s *Store) UnsetKeys(ctx context.Context, keys []key.Key, committed datastore.Committed) error {
	changed := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		changed[k.Name()] = nil
	}
	if err := s.fireBefore(ctx, committed.Tx(), changed); err != nil {
		return err
	}
	for _, k := range keys {
		if committed.IsLive() {
			if err := os.Remove(s.liveFile(k)); err != nil && !os.IsNotExist(err) {
				return datastore.IOError(err)
			}
			continue
		}
		if err := writeFileAtomic(s.pendingFile(committed.Tx(), k), tombstoneBody, 0o640); err != nil {
			return datastore.IOError(err)
		}
	}
	s.fireAfter(ctx, committed.Tx(), changed)
	return nil
}

func walkKeys(root string) (map[string]key.Key, error) {
	out := map[string]key.Key{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		k, err := relPathToKey(rel)
		if err != nil {
			return nil // skip unparseable entries rather than fail the whole listing
		}
		out[k.Name()] = k
		return nil
	})
	if err != nil {
		return nil, datastore.IOError(err)
	}
	return out, nil
}

// ListPopulatedKeys implements datastore.Store.
func (s *Store) ListPopulatedKeys(_ context.Context, prefix key.Key, committed datastore.Committed) (map[string]key.Key, error) {
	liveKeys, err := walkKeys(filepath.Join(s.root, liveDir, keyRelPath(prefix)))
	if err != nil {
		return nil, err
	}
	out := map[string]key.Key{}
	for name, k := range liveKeys {
		out[name] = k
	}
	if !committed.IsLive() {
		pendKeys, err := walkKeys(s.pendingTxDir(committed.Tx()))
		if err != nil {
			return nil, err
		}
		pre := prefix.Segments()
		for name, k := range pendKeys {
			if !k.StartsWithSegments(pre) {
				continue
			}
			body, err := os.ReadFile(s.pendingFile(committed.Tx(), k))
			if err != nil {
				continue
			}
			if isTombstone(body) {
				delete(out, name)
			} else {
				out[name] = k
			}
		}
	}
	return out, nil
}

// GetPrefix implements datastore.Store.
func (s *Store) GetPrefix(ctx context.Context, prefix key.Key, committed datastore.Committed) (map[string]string, error) {
	keys, err := s.ListPopulatedKeys(ctx, prefix, committed)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for name, k := range keys {
		v, ok, err := s.GetKey(ctx, k, committed)
		if err != nil {
			return nil, err
		}
		if ok {
			out[name] = v
		}
	}
	return out, nil
}

// GetMetadataRaw implements datastore.Store.
func (s *Store) GetMetadataRaw(_ context.Context, m key.Key, k key.Key) (string, bool, error) {
	return readFile(s.metaFile(m, k))
}

// GetMetadata implements datastore.Store's inheriting lookup.
func (s *Store) GetMetadata(ctx context.Context, m key.Key, k key.Key) (string, bool, error) {
	for _, anc := range datastore.Ancestors(k) {
		v, ok, err := s.GetMetadataRaw(ctx, m, anc)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// SetMetadata implements datastore.Store.
func (s *Store) SetMetadata(_ context.Context, m key.Key, k key.Key, value string) error {
	if err := writeFileAtomic(s.metaFile(m, k), []byte(value), 0o640); err != nil {
		return datastore.IOError(err)
	}
	return nil
}

// UnsetMetadata implements datastore.Store.
func (s *Store) UnsetMetadata(_ context.Context, m key.Key, k key.Key) error {
	if err := os.Remove(s.metaFile(m, k)); err != nil && !os.IsNotExist(err) {
		return datastore.IOError(err)
	}
	return nil
}

// ListPopulatedMetadata implements datastore.Store.
func (s *Store) ListPopulatedMetadata(_ context.Context, prefix key.Key, filterName *key.Key) (map[string]datastore.MetaSet, error) {
	root := filepath.Join(s.root, metadataDir)
	out := map[string]datastore.MetaSet{}
	pre := prefix.Segments()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, meta, err := splitMetaRelPath(rel)
		if err != nil {
			return nil
		}
		if !data.StartsWithSegments(pre) {
			return nil
		}
		if filterName != nil && !meta.Equal(*filterName) {
			return nil
		}
		set, ok := out[data.Name()]
		if !ok {
			set = datastore.MetaSet{}
			out[data.Name()] = set
		}
		set[meta.Name()] = meta
		return nil
	})
	if err != nil {
		return nil, datastore.IOError(err)
	}
	return out, nil
}

// GetMetadataPrefix implements datastore.Store.
func (s *Store) GetMetadataPrefix(ctx context.Context, prefix key.Key, name *key.Key) (map[string]datastore.MetaSet, error) {
	return s.ListPopulatedMetadata(ctx, prefix, name)
}

// ListTransactions implements datastore.Store.
func (s *Store) ListTransactions(_ context.Context) (map[string]bool, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, pendingDir))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, datastore.IOError(err)
	}
	out := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			out[e.Name()] = true
		}
	}
	return out, nil
}

// CommitTransaction implements datastore.Store. It holds an advisory flock
// on the transaction directory for the duration of the apply walk, in
// addition to the per-key crash-atomic temp-file-plus-rename writes spec
// §4.D requires unconditionally.
func (s *Store) CommitTransaction(ctx context.Context, tx string) (map[string]key.Key, error) {
	txDir := s.pendingTxDir(tx)
	pending, err := walkKeys(txDir)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, datastore.InvalidTransactionError("transaction is empty or does not exist")
	}

	lock := flock.New(txDir + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, datastore.IOError(err)
	}
	defer lock.Unlock()

	changedVals := make(map[string]interface{}, len(pending))
	for name, k := range pending {
		body, _ := os.ReadFile(s.pendingFile(tx, k))
		changedVals[name] = string(body)
	}
	if err := s.fireBefore(ctx, tx, changedVals); err != nil {
		return nil, err
	}

	changed := map[string]key.Key{}
	for name, k := range pending {
		pendPath := s.pendingFile(tx, k)
		body, err := os.ReadFile(pendPath)
		if err != nil {
			return nil, datastore.IOError(err)
		}
		livePath := s.liveFile(k)
		oldBody, hadOld, err := readFile(livePath)
		if err != nil {
			return nil, err
		}
		if isTombstone(body) {
			if hadOld {
				if err := os.Remove(livePath); err != nil && !os.IsNotExist(err) {
					return nil, datastore.IOError(err)
				}
				changed[name] = k
			}
			continue
		}
		if !hadOld || oldBody != string(body) {
			changed[name] = k
		}
		if err := writeFileAtomic(livePath, body, 0o640); err != nil {
			return nil, datastore.IOError(err)
		}
	}

	if err := os.RemoveAll(txDir); err != nil {
		return nil, datastore.IOError(err)
	}
	os.Remove(txDir + ".lock")

	s.fireAfter(ctx, tx, changedVals)
	return changed, nil
}

// DeleteTransaction implements datastore.Store.
func (s *Store) DeleteTransaction(_ context.Context, tx string) (map[string]key.Key, error) {
	txDir := s.pendingTxDir(tx)
	pending, err := walkKeys(txDir)
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(txDir); err != nil {
		return nil, datastore.IOError(err)
	}
	return pending, nil
}
