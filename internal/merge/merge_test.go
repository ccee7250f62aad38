// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package merge

import (
	"reflect"
	"testing"
)

func TestMapsRecursesAndOverwrites(t *testing.T) {
	base := map[string]interface{}{
		"network": map[string]interface{}{
			"hostname": "base-host",
			"mtu":      float64(1500),
		},
		"kept": "yes",
	}
	overlay := map[string]interface{}{
		"network": map[string]interface{}{
			"hostname": "overlay-host",
		},
	}
	got := Maps(base, overlay)
	want := map[string]interface{}{
		"network": map[string]interface{}{
			"hostname": "overlay-host",
			"mtu":      float64(1500),
		},
		"kept": "yes",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestMapsInOrderAppliesPrecedence(t *testing.T) {
	common := map[string]interface{}{"a": "common", "b": "common"}
	variant := map[string]interface{}{"a": "variant"}
	got := MapsInOrder(common, variant)
	if got["a"] != "variant" || got["b"] != "common" {
		t.Fatalf("got %v", got)
	}
}
