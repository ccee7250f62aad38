// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package populator

import (
	"fmt"
	"strings"

	"github.com/bottlerocket-os/settings-engine/key"
	"github.com/bottlerocket-os/settings-engine/scalar"
)

// defaultMeta is one (meta key, data key, serialized value) triple found in
// the defaults tree's "metadata" section.
type defaultMeta struct {
	Meta  key.Key
	Data  key.Key
	Value string
}

// parseMetadataTree walks the "metadata" section of the merged defaults
// tree breadth-first: a leaf (string or array of string) ends a path whose
// last segment names the meta key and whose remaining prefix names the
// data key, e.g. {"settings": {"motd": {"affected-services": [...]}}}
// yields meta "affected-services" on data key "settings.motd". Grounded on
// storewolf's parse_metadata_toml.
func parseMetadataTree(tree map[string]interface{}) ([]defaultMeta, error) {
	type pending struct {
		path []string
		val  interface{}
	}
	var out []defaultMeta
	queue := []pending{{path: nil, val: tree}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		switch v := cur.val.(type) {
		case map[string]interface{}:
			for seg, child := range v {
				queue = append(queue, pending{path: append(append([]string{}, cur.path...), seg), val: child})
			}

		case string, []interface{}:
			if len(cur.path) < 2 {
				return nil, fmt.Errorf("populator: metadata path %q is too shallow to name both a data key and a meta key", strings.Join(cur.path, "."))
			}
			mdName := cur.path[len(cur.path)-1]
			dataName := strings.Join(cur.path[:len(cur.path)-1], ".")

			mdKey, err := key.New(key.Meta, mdName)
			if err != nil {
				return nil, err
			}
			dataKey, err := key.New(key.Data, dataName)
			if err != nil {
				return nil, err
			}
			enc, err := scalar.Serialize(v)
			if err != nil {
				return nil, err
			}
			out = append(out, defaultMeta{Meta: mdKey, Data: dataKey, Value: enc})

		default:
			return nil, fmt.Errorf("populator: metadata leaf at %q has an unexpected type %T", strings.Join(cur.path, "."), v)
		}
	}
	return out, nil
}
