// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package memstore implements an in-memory datastore.Store, used by tests.
// Grounded on storage/inmem's concurrency shape: a
// multi-reader/single-writer store guarded by a pair of mutexes, generalized
// here to the spec's named, independently-committable transactions rather
// than OPA's single numeric transaction handle.
package memstore

import (
	"context"
	"sync"

	"github.com/bottlerocket-os/settings-engine/datastore"
	"github.com/bottlerocket-os/settings-engine/key"
)

type dataEntry struct {
	key   key.Key
	value string
}

type pendingEntry struct {
	key       key.Key
	value     string
	tombstone bool
}

type metaEntry struct {
	meta  key.Key
	data  key.Key
	value string
}

// Store is an in-memory implementation of datastore.Store.
type Store struct {
	mu       sync.RWMutex
	data     map[string]dataEntry
	meta     map[string]metaEntry
	pending  map[string]map[string]pendingEntry
	triggers map[uint64]datastore.TriggerConfig
	nextID   uint64
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		data:     map[string]dataEntry{},
		meta:     map[string]metaEntry{},
		pending:  map[string]map[string]pendingEntry{},
		triggers: map[uint64]datastore.TriggerConfig{},
	}
}

var _ datastore.Store = (*Store)(nil)

func metaHashKey(m, d key.Key) string {
	return m.HashKey() + "\x00" + d.HashKey()
}

// Register implements datastore.Trigger.
func (s *Store) Register(config datastore.TriggerConfig) datastore.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.triggers[id] = config
	return datastore.NewHandle(id)
}

// Unregister implements datastore.Trigger.
func (s *Store) Unregister(h datastore.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.triggers, h.ID())
}

func (s *Store) fireBefore(ctx context.Context, tx string, changed map[string]interface{}) error {
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
	for _, t := range s.triggers {
		if t.After != nil {
			t.After(ctx, datastore.TriggerEvent{Tx: tx, Changed: changed})
		}
	}
}

// KeyPopulated implements datastore.Store.
func (s *Store) KeyPopulated(_ context.Context, k key.Key, committed datastore.Committed) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.read(k, committed)
	return ok, nil
}

func (s *Store) read(k key.Key, committed datastore.Committed) (string, bool) {
	if !committed.IsLive() {
		if p, ok := s.pending[committed.Tx()]; ok {
			if e, ok := p[k.HashKey()]; ok {
				if e.tombstone {
					return "", false
				}
				return e.value, true
			}
		}
	}
	if e, ok := s.data[k.HashKey()]; ok {
		return e.value, true
	}
	return "", false
}

// GetKey implements datastore.Store.
func (s *Store) GetKey(_ context.Context, k key.Key, committed datastore.Committed) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.read(k, committed)
	return v, ok, nil
}

// SetKey implements datastore.Store.
func (s *Store) SetKey(ctx context.Context, k key.Key, value string, committed datastore.Committed) error {
	return s.SetKeys(ctx, map[string]datastore.KeyValue{k.HashKey(): datastore.KV(k, value)}, committed)
}

// SetKeys implements datastore.Store.
func (s *Store) SetKeys(ctx context.Context, values map[string]datastore.KeyValue, committed datastore.Committed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := make(map[string]interface{}, len(values))
	for _, kv := range values {
		changed[kv.Key.Name()] = kv.Value
	}
	if err := s.fireBefore(ctx, committed.Tx(), changed); err != nil {
		return err
	}

	if committed.IsLive() {
		for _, kv := range values {
			s.data[kv.Key.HashKey()] = dataEntry{key: kv.Key, value: kv.Value}
		}
	} else {
		p := s.pending[committed.Tx()]
		if p == nil {
			p = map[string]pendingEntry{}
			s.pending[committed.Tx()] = p
		}
		for _, kv := range values {
			p[kv.Key.HashKey()] = pendingEntry{key: kv.Key, value: kv.Value}
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
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		changed[k.Name()] = nil
	}
	if err := s.fireBefore(ctx, committed.Tx(), changed); err != nil {
		return err
	}

	if committed.IsLive() {
		for _, k := range keys {
			delete(s.data, k.HashKey())
		}
	} else {
		p := s.pending[committed.Tx()]
		if p == nil {
			p = map[string]pendingEntry{}
			s.pending[committed.Tx()] = p
		}
		for _, k := range keys {
			p[k.HashKey()] = pendingEntry{key: k, tombstone: true}
		}
	}

	s.fireAfter(ctx, committed.Tx(), changed)
	return nil
}

// ListPopulatedKeys implements datastore.Store.
func (s *Store) ListPopulatedKeys(_ context.Context, prefix key.Key, committed datastore.Committed) (map[string]key.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]key.Key{}
	pre := prefix.Segments()
	for _, e := range s.data {
		if e.key.StartsWithSegments(pre) {
			out[e.key.Name()] = e.key
		}
	}
	if !committed.IsLive() {
		if p, ok := s.pending[committed.Tx()]; ok {
			for _, e := range p {
				if !e.key.StartsWithSegments(pre) {
					continue
				}
				if e.tombstone {
					delete(out, e.key.Name())
				} else {
					out[e.key.Name()] = e.key
				}
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
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, k := range keys {
		if v, ok := s.read(k, committed); ok {
			out[name] = v
		}
	}
	return out, nil
}

// GetMetadataRaw implements datastore.Store.
func (s *Store) GetMetadataRaw(_ context.Context, m key.Key, k key.Key) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.meta[metaHashKey(m, k)]
	return e.value, ok, nil
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

// SetMetadata implements datastore.Store. Metadata is always Live.
func (s *Store) SetMetadata(_ context.Context, m key.Key, k key.Key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[metaHashKey(m, k)] = metaEntry{meta: m, data: k, value: value}
	return nil
}

// UnsetMetadata implements datastore.Store.
func (s *Store) UnsetMetadata(_ context.Context, m key.Key, k key.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.meta, metaHashKey(m, k))
	return nil
}

// ListPopulatedMetadata implements datastore.Store.
func (s *Store) ListPopulatedMetadata(_ context.Context, prefix key.Key, filterName *key.Key) (map[string]datastore.MetaSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pre := prefix.Segments()
	out := map[string]datastore.MetaSet{}
	for _, e := range s.meta {
		if !e.data.StartsWithSegments(pre) {
			continue
		}
		if filterName != nil && !e.meta.Equal(*filterName) {
			continue
		}
		set, ok := out[e.data.Name()]
		if !ok {
			set = datastore.MetaSet{}
			out[e.data.Name()] = set
		}
		set[e.meta.Name()] = e.meta
	}
	return out, nil
}

// GetMetadataPrefix implements datastore.Store.
func (s *Store) GetMetadataPrefix(ctx context.Context, prefix key.Key, name *key.Key) (map[string]datastore.MetaSet, error) {
	return s.ListPopulatedMetadata(ctx, prefix, name)
}

// ListTransactions implements datastore.Store.
func (s *Store) ListTransactions(_ context.Context) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.pending))
	for tx := range s.pending {
		out[tx] = true
	}
	return out, nil
}

// CommitTransaction implements datastore.Store.
func (s *Store) CommitTransaction(ctx context.Context, tx string) (map[string]key.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[tx]
	if !ok || len(p) == 0 {
		return nil, datastore.InvalidTransactionError("transaction is empty or does not exist")
	}

	changed := map[string]key.Key{}
	changedVals := make(map[string]interface{}, len(p))
	for _, e := range p {
		changedVals[e.key.Name()] = e.value
	}
	if err := s.fireBefore(ctx, tx, changedVals); err != nil {
		return nil, err
	}

	for hk, e := range p {
		old, hadOld := s.data[hk]
		if e.tombstone {
			if hadOld {
				delete(s.data, hk)
				changed[e.key.Name()] = e.key
			}
			continue
		}
		if !hadOld || old.value != e.value {
			changed[e.key.Name()] = e.key
		}
		s.data[hk] = dataEntry{key: e.key, value: e.value}
	}
	delete(s.pending, tx)

	s.fireAfter(ctx, tx, changedVals)
	return changed, nil
}

// DeleteTransaction implements datastore.Store.
func (s *Store) DeleteTransaction(_ context.Context, tx string) (map[string]key.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[tx]
	if !ok {
		return map[string]key.Key{}, nil
	}
	out := make(map[string]key.Key, len(p))
	for _, e := range p {
		out[e.key.Name()] = e.key
	}
	delete(s.pending, tx)
	return out, nil
}
