// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package apiserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bottlerocket-os/settings-engine/datastore"
	"github.com/bottlerocket-os/settings-engine/internal/apierr"
	"github.com/bottlerocket-os/settings-engine/key"
	"github.com/bottlerocket-os/settings-engine/updatestate"
)

var (
	settingsRoot           = mustKey("settings")
	servicesRoot           = mustKey("services")
	configurationFilesRoot = mustKey("configuration-files")
	affectedServicesMeta   = mustMetaKey("affected-services")
	settingGeneratorMeta   = mustMetaKey("setting-generator")
	templatesMeta          = mustMetaKey("template")
)

func mustKey(s string) key.Key {
	k, err := key.New(key.Data, s)
	if err != nil {
		panic(err)
	}
	return k
}

func mustMetaKey(s string) key.Key {
	k, err := key.New(key.Meta, s)
	if err != nil {
		panic(err)
	}
	return k
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// keysOrPrefix parses the usual "keys=a,b,c" or "prefix=x" query parameters
// shared by several GET endpoints. filtered reports whether the caller
// supplied an explicit keys= or prefix= filter at all; an unfiltered
// request coming back empty means "nothing live at all" rather than
// "nothing matched", and callers use this to tell the two apart (spec §8
// scenario S1).
func keysOrPrefix(r *http.Request, root key.Key) (keys []key.Key, prefix *key.Key, filtered bool, err error) {
	q := r.URL.Query()
	if q.Has("prefix") {
		p := q.Get("prefix")
		if p == "" {
			// spec §8 boundary behavior: "Request for prefix= (empty) => Input error".
			return nil, nil, true, fmt.Errorf("prefix must not be empty")
		}
		pk, err := root.AppendSegments(strings.Split(p, ".")...)
		if err != nil {
			return nil, nil, true, err
		}
		return nil, &pk, true, nil
	}
	if ks := q.Get("keys"); ks != "" {
		var out []key.Key
		for _, name := range strings.Split(ks, ",") {
			k, err := root.AppendSegments(strings.Split(name, ".")...)
			if err != nil {
				return nil, nil, true, err
			}
			out = append(out, k)
		}
		return out, nil, true, nil
	}
	return nil, &root, false, nil
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx := r.Context()

	out := map[string]interface{}{}
	for _, root := range []key.Key{settingsRoot, servicesRoot, configurationFilesRoot} {
		flat, err := s.store.GetPrefix(ctx, root, datastore.Live)
		if err != nil {
			apierr.Write(w, apierr.FromDatastore(err))
			return
		}
		tree, err := nestJSON(flat)
		if err != nil {
			apierr.Write(w, apierr.Internal(err.Error()))
			return
		}
		for k, v := range tree {
			out[k] = v
		}
	}
	if s.os != nil {
		osInfo, err := s.os.OSRelease(ctx)
		if err != nil {
			apierr.Write(w, apierr.Internal(err.Error()))
			return
		}
		out["os"] = osInfo
	}
	writeJSON(w, out)
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, prefix, filtered, err := keysOrPrefix(r, settingsRoot)
	if err != nil {
		apierr.Write(w, apierr.Invalid(err.Error()))
		return
	}
	flat := map[string]string{}
	if prefix != nil {
		flat, err = s.store.GetPrefix(r.Context(), *prefix, datastore.Live)
	} else {
		for _, k := range keys {
			v, ok, gerr := s.store.GetKey(r.Context(), k, datastore.Live)
			if gerr != nil {
				err = gerr
				break
			}
			if ok {
				flat[k.Name()] = v
			}
		}
	}
	if err != nil {
		apierr.Write(w, apierr.FromDatastore(err))
		return
	}
	// spec §8 scenario S1: an unfiltered GET against an empty live store is
	// an error, not an empty object; a filtered read that simply matched
	// nothing legitimately returns {}.
	if !filtered && len(flat) == 0 {
		apierr.Write(w, apierr.NotFound("no live settings"))
		return
	}
	tree, err := nestJSON(flat)
	if err != nil {
		apierr.Write(w, apierr.Internal(err.Error()))
		return
	}
	settings, ok := tree["settings"]
	if !ok {
		settings = map[string]interface{}{}
	}
	writeJSON(w, settings)
}

func (s *Server) handleSettingsPatch(w http.ResponseWriter, r *http.Request) {
	tx := r.URL.Query().Get("tx")
	if tx == "" {
		tx = "default"
	}
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierr.Write(w, apierr.Invalid("malformed JSON body: "+err.Error()))
		return
	}
	flat, err := flattenJSON(body, settingsRoot)
	if err != nil {
		apierr.Write(w, apierr.Invalid(err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[string]datastore.KeyValue, len(flat))
	for name, v := range flat {
		k, err := key.New(key.Data, name)
		if err != nil {
			apierr.Write(w, apierr.Invalid(err.Error()))
			return
		}
		values[k.HashKey()] = datastore.KV(k, v)
	}
	if err := s.store.SetKeys(r.Context(), values, datastore.Pending(tx)); err != nil {
		apierr.Write(w, apierr.FromDatastore(err))
		return
	}
	writeJSON(w, struct{}{})
}

func (s *Server) handleTxList(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		apierr.Write(w, apierr.FromDatastore(err))
		return
	}
	names := make([]string, 0, len(txs))
	for name := range txs {
		names = append(names, name)
	}
	writeJSON(w, names)
}

func txName(r *http.Request) string {
	if tx := r.URL.Query().Get("tx"); tx != "" {
		return tx
	}
	return "default"
}

func (s *Server) handleTxGet(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flat, err := s.store.GetPrefix(r.Context(), settingsRoot, datastore.Pending(txName(r)))
	if err != nil {
		apierr.Write(w, apierr.FromDatastore(err))
		return
	}
	tree, err := nestJSON(flat)
	if err != nil {
		apierr.Write(w, apierr.Internal(err.Error()))
		return
	}
	writeJSON(w, tree["settings"])
}

func (s *Server) handleTxDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := s.store.DeleteTransaction(r.Context(), txName(r))
	if err != nil {
		apierr.Write(w, apierr.FromDatastore(err))
		return
	}
	writeJSON(w, changedKeyNames(changed))
}

func (s *Server) handleTxCommit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := s.commitLocked(r, txName(r))
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, changedKeyNames(changed))
}

// commitLocked must be called with s.mu already held for writing.
func (s *Server) commitLocked(r *http.Request, tx string) (map[string]key.Key, *apierr.Error) {
	changed, err := s.store.CommitTransaction(r.Context(), tx)
	if err != nil {
		return nil, apierr.FromDatastore(err)
	}
	return changed, nil
}

func (s *Server) handleTxApply(w http.ResponseWriter, r *http.Request) {
	if s.applier == nil {
		apierr.Write(w, apierr.Internal("no applier configured"))
		return
	}
	ks := r.URL.Query().Get("keys")
	all := ks == ""
	var names []string
	if !all {
		names = strings.Split(ks, ",")
	}
	// Fire-and-forget per spec §4.G: do not hold s.mu across the invocation.
	if err := s.applier.Apply(r.Context(), names, all); err != nil {
		apierr.Write(w, apierr.Internal(err.Error()))
		return
	}
	writeJSON(w, struct{}{})
}

func (s *Server) handleTxCommitAndApply(w http.ResponseWriter, r *http.Request) {
	tx := txName(r)
	s.mu.Lock()
	changed, apiErr := s.commitLocked(r, tx)
	s.mu.Unlock()
	if apiErr != nil {
		apierr.Write(w, apiErr)
		return
	}
	if s.applier != nil {
		names := changedKeyNames(changed)
		if err := s.applier.Apply(r.Context(), names, false); err != nil {
			apierr.Write(w, apierr.Internal(err.Error()))
			return
		}
	}
	writeJSON(w, changedKeyNames(changed))
}

func changedKeyNames(changed map[string]key.Key) []string {
	out := make([]string, 0, len(changed))
	for name := range changed {
		out = append(out, name)
	}
	return out
}

func (s *Server) handleOS(w http.ResponseWriter, r *http.Request) {
	if s.os == nil {
		apierr.Write(w, apierr.Internal("no OS collaborator configured"))
		return
	}
	info, err := s.os.OSRelease(r.Context())
	if err != nil {
		apierr.Write(w, apierr.Internal(err.Error()))
		return
	}
	writeJSON(w, info)
}

func (s *Server) handleMetadataAffectedServices(w http.ResponseWriter, r *http.Request) {
	s.handleMetadataList(w, r, affectedServicesMeta)
}

func (s *Server) handleMetadataTemplates(w http.ResponseWriter, r *http.Request) {
	s.handleMetadataList(w, r, templatesMeta)
}

func (s *Server) handleMetadataList(w http.ResponseWriter, r *http.Request, meta key.Key) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]string{}
	ks := r.URL.Query().Get("keys")
	if ks == "" {
		apierr.Write(w, apierr.Invalid("keys parameter is required"))
		return
	}
	for _, name := range strings.Split(ks, ",") {
		k, err := settingsRoot.AppendSegments(strings.Split(name, ".")...)
		if err != nil {
			apierr.Write(w, apierr.Invalid(err.Error()))
			return
		}
		v, ok, err := s.store.GetMetadata(r.Context(), meta, k)
		if err != nil {
			apierr.Write(w, apierr.FromDatastore(err))
			return
		}
		if ok {
			out[k.Name()] = v
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleMetadataSettingGenerators(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sets, err := s.store.ListPopulatedMetadata(r.Context(), settingsRoot, &settingGeneratorMeta)
	if err != nil {
		apierr.Write(w, apierr.FromDatastore(err))
		return
	}
	out := map[string]string{}
	for name := range sets {
		dk, err := key.New(key.Data, name)
		if err != nil {
			apierr.Write(w, apierr.Internal(err.Error()))
			return
		}
		v, found, err := s.store.GetMetadataRaw(r.Context(), settingGeneratorMeta, dk)
		if err != nil {
			apierr.Write(w, apierr.FromDatastore(err))
			return
		}
		if found {
			out[name] = v
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	s.handleStructuredPrefix(w, r, servicesRoot)
}

func (s *Server) handleConfigurationFiles(w http.ResponseWriter, r *http.Request) {
	s.handleStructuredPrefix(w, r, configurationFilesRoot)
}

func (s *Server) handleStructuredPrefix(w http.ResponseWriter, r *http.Request, root key.Key) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target := root
	if names := r.URL.Query().Get("names"); names != "" {
		// Callers may ask for a comma-separated subset; there is no single
		// sub-prefix for an arbitrary subset, so filter after fetching.
		flat, err := s.store.GetPrefix(r.Context(), root, datastore.Live)
		if err != nil {
			apierr.Write(w, apierr.FromDatastore(err))
			return
		}
		wanted := map[string]bool{}
		for _, n := range strings.Split(names, ",") {
			wanted[n] = true
		}
		filtered := map[string]string{}
		for name, v := range flat {
			k, err := key.New(key.Data, name)
			if err != nil {
				continue
			}
			segs := k.Segments()
			if len(segs) > len(root.Segments()) && wanted[segs[len(root.Segments())]] {
				filtered[name] = v
			}
		}
		tree, err := nestJSON(filtered)
		if err != nil {
			apierr.Write(w, apierr.Internal(err.Error()))
			return
		}
		writeJSON(w, tree[root.Segments()[0]])
		return
	}

	flat, err := s.store.GetPrefix(r.Context(), target, datastore.Live)
	if err != nil {
		apierr.Write(w, apierr.FromDatastore(err))
		return
	}
	tree, err := nestJSON(flat)
	if err != nil {
		apierr.Write(w, apierr.Internal(err.Error()))
		return
	}
	writeJSON(w, tree[root.Segments()[0]])
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	action := updatestate.Action(mux.Vars(r)["action"])
	if s.updates == nil {
		apierr.Write(w, apierr.Internal("no update-state collaborator configured"))
		return
	}
	state, err := s.updates.State(r.Context())
	if err != nil {
		apierr.Write(w, apierr.Internal(err.Error()))
		return
	}
	if !updatestate.Allowed(action, state) {
		apierr.Write(w, apierr.DisallowedInState("action "+string(action)+" is not allowed in state "+state.String()))
		return
	}
	if err := s.updates.Dispatch(r.Context(), action); err != nil {
		apierr.Write(w, apierr.Internal(err.Error()))
		return
	}
	writeJSON(w, struct{}{})
}

func (s *Server) handleUpdatesStatus(w http.ResponseWriter, r *http.Request) {
	if s.updates == nil {
		apierr.Write(w, apierr.Internal("no update-state collaborator configured"))
		return
	}
	status, err := s.updates.Status(r.Context())
	if err != nil {
		apierr.Write(w, apierr.Internal(err.Error()))
		return
	}
	writeJSON(w, status)
}
