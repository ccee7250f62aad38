// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package apiserver

import (
	"github.com/bottlerocket-os/settings-engine/key"
	"github.com/bottlerocket-os/settings-engine/scalar"
)

// nestJSON turns a flat Key->String map into the nested JSON object the API
// actually returns (GET / and GET /settings present a tree, not a flat
// list), using each key's segments as the nesting path and §4.B's raw
// parser for the leaf value.
func nestJSON(flat map[string]string) (map[string]interface{}, error) {
	root := map[string]interface{}{}
	for name, raw := range flat {
		k, err := key.New(key.Data, name)
		if err != nil {
			return nil, err
		}
		v, err := scalar.Raw(raw)
		if err != nil {
			return nil, err
		}
		segs := k.Segments()
		cur := root
		for i, seg := range segs {
			if i == len(segs)-1 {
				cur[seg] = v
				continue
			}
			next, ok := cur[seg].(map[string]interface{})
			if !ok {
				next = map[string]interface{}{}
				cur[seg] = next
			}
			cur = next
		}
	}
	return root, nil
}

// flattenJSON is the inverse of nestJSON: it walks a nested JSON object
// (as produced by decoding a PATCH body) and returns a flat Key->String
// map rooted at prefix, re-encoding each leaf through §4.B.
func flattenJSON(tree map[string]interface{}, prefix key.Key) (map[string]string, error) {
	out := map[string]string{}
	if err := flattenInto(tree, prefix, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(v interface{}, at key.Key, out map[string]string) error {
	switch x := v.(type) {
	case map[string]interface{}:
		for seg, child := range x {
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
	default:
		enc, err := scalar.Serialize(x)
		if err != nil {
			return err
		}
		out[at.Name()] = enc
		return nil
	}
}
