// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package populator

import (
	"github.com/bottlerocket-os/settings-engine/key"
	"github.com/bottlerocket-os/settings-engine/scalar"
)

// flattenUnder walks a decoded TOML/JSON-shaped tree and returns a flat
// Key->String map rooted at prefix, re-encoding each leaf through §4.B's
// scalar codec. Grounded on apiserver/tree.go's flattenJSON, reimplemented
// here since that helper is unexported.
func flattenUnder(tree map[string]interface{}, prefix key.Key) (map[string]string, error) {
	out := map[string]string{}
	if err := flattenInto(tree, prefix, out); err != nil {
		return nil, err
	}
	return out, nil
}

// flattenTree flattens a tree with no common prefix: each top-level
// section (services, configuration-files, os, ...) names its own key root.
func flattenTree(tree map[string]interface{}) (map[string]string, error) {
	out := map[string]string{}
	for seg, child := range tree {
		root, err := key.New(key.Data, seg)
		if err != nil {
			return nil, err
		}
		if err := flattenInto(child, root, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func flattenInto(v interface{}, at key.Key, out map[string]string) error {
	if m, ok := v.(map[string]interface{}); ok {
		for seg, child := range m {
			mk, err := key.New(key.Data, seg)
			if err != nil {
				return err
			}
			childKey, err := at.AppendKey(mk)
			if err != nil {
				return err
			}
			if err := flattenInto(child, childKey, out); err != nil {
				return err
			}
		}
		return nil
	}
	enc, err := scalar.Serialize(v)
	if err != nil {
		return err
	}
	out[at.Name()] = enc
	return nil
}
