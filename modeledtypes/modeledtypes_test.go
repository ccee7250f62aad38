// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package modeledtypes

import "testing"

func TestKubernetesName(t *testing.T) {
	valid := []string{"node-1", "a", "my.worker.01"}
	invalid := []string{"", "-bad", "Bad", "bad-"}
	for _, s := range valid {
		if _, err := NewKubernetesName(s); err != nil {
			t.Errorf("expected %q to be valid: %v", s, err)
		}
	}
	for _, s := range invalid {
		if _, err := NewKubernetesName(s); err == nil {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestKubernetesTaintValue(t *testing.T) {
	for _, s := range []string{"special:NoSchedule", "plain:NoExecute"} {
		if _, err := NewKubernetesTaintValue(s); err != nil {
			t.Errorf("expected %q to be valid: %v", s, err)
		}
	}
	if _, err := NewKubernetesTaintValue("bad-effect:Whenever"); err == nil {
		t.Fatal("expected an unrecognized effect to be rejected")
	}
}

func TestKubernetesEvictionHardKey(t *testing.T) {
	if _, err := NewKubernetesEvictionHardKey("memory.available"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewKubernetesEvictionHardKey("cpu.available"); err == nil {
		t.Fatal("expected an unrecognized eviction signal to be rejected")
	}
}

func TestKubernetesThresholdValue(t *testing.T) {
	for _, s := range []string{"10%", "99.5%", "100Mi", "2Gi"} {
		if _, err := NewKubernetesThresholdValue(s); err != nil {
			t.Errorf("expected %q to be valid: %v", s, err)
		}
	}
	for _, s := range []string{"100%", "-5%", "abc"} {
		if _, err := NewKubernetesThresholdValue(s); err == nil {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestKubernetesBootstrapToken(t *testing.T) {
	if _, err := NewKubernetesBootstrapToken("abcdef.0123456789abcdef"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewKubernetesBootstrapToken("tooshort.abc"); err == nil {
		t.Fatal("expected a malformed token to be rejected")
	}
}

func TestUnmarshalJSONValidates(t *testing.T) {
	var n KubernetesName
	if err := n.UnmarshalJSON([]byte(`"Bad_Name"`)); err == nil {
		t.Fatal("expected UnmarshalJSON to reject an invalid name")
	}
	if err := n.UnmarshalJSON([]byte(`"node-1"`)); err != nil {
		t.Fatal(err)
	}
	if n.String() != "node-1" {
		t.Fatalf("got %q", n.String())
	}
}

func TestBootConfigValueRejectsNewline(t *testing.T) {
	if _, err := NewBootConfigValue("fine"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewBootConfigValue("bad\nvalue"); err == nil {
		t.Fatal("expected a multi-line value to be rejected")
	}
}
