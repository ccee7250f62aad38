// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package key

import "testing"

func TestNewAndName(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		ok   bool
		want string
	}{
		{"a.b.c", Data, true, "a.b.c"},
		{"a", Meta, true, "a"},
		{"a.b", Meta, false, ""},
		{"", Data, false, ""},
		{"a..b", Data, false, ""},
		{".a", Data, false, ""},
		{"a.", Data, false, ""},
		{`a."b.c".d`, Data, true, `a."b.c".d`},
		{"a b", Data, false, ""},
		{`a."b`, Data, false, ""},
	}
	for _, tc := range tests {
		k, err := New(tc.kind, tc.name)
		if tc.ok && err != nil {
			t.Errorf("New(%v, %q): unexpected error: %v", tc.kind, tc.name, err)
			continue
		}
		if !tc.ok && err == nil {
			t.Errorf("New(%v, %q): expected error, got none", tc.kind, tc.name)
			continue
		}
		if tc.ok && k.Name() != tc.want {
			t.Errorf("New(%v, %q).Name() = %q, want %q", tc.kind, tc.name, k.Name(), tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	names := []string{"a.b.c", `a."b.c".d`, "settings.motd", "x"}
	for _, n := range names {
		k, err := New(Data, n)
		if err != nil {
			t.Fatalf("New(%q): %v", n, err)
		}
		k2, err := FromSegments(Data, k.Segments())
		if err != nil {
			t.Fatalf("FromSegments: %v", err)
		}
		if !k.Equal(k2) {
			t.Errorf("round trip mismatch: %v != %v", k, k2)
		}
		k3, err := New(Data, k2.Name())
		if err != nil {
			t.Fatalf("New(%q): %v", k2.Name(), err)
		}
		if !k.Equal(k3) {
			t.Errorf("decode(encode(segments)) != parse(n): %v != %v", k3, k)
		}
	}
}

func TestQuotingScenario(t *testing.T) {
	k, err := FromSegments(Data, []string{"a", "b.c", "d"})
	if err != nil {
		t.Fatal(err)
	}
	if k.Name() != `a."b.c".d` {
		t.Fatalf("got %q", k.Name())
	}
	k2, err := New(Data, `a."b.c".d`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b.c", "d"}
	got := k2.Segments()
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestStripPrefixSegments(t *testing.T) {
	k, _ := New(Data, "a.b.c.d")

	stripped, err := k.StripPrefixSegments([]string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if stripped.Name() != "c.d" {
		t.Fatalf("got %q", stripped.Name())
	}

	unchanged, err := k.StripPrefixSegments([]string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if !unchanged.Equal(k) {
		t.Fatalf("expected unchanged key on mismatch, got %v", unchanged)
	}

	_, err = k.StripPrefixSegments([]string{"a", "b", "c", "d"})
	if err == nil {
		t.Fatal("expected error stripping the entire key")
	}
}

func TestAppendSegments(t *testing.T) {
	k, _ := New(Data, "a.b")
	k2, err := k.AppendSegments("c", "d")
	if err != nil {
		t.Fatal(err)
	}
	if k2.Name() != "a.b.c.d" {
		t.Fatalf("got %q", k2.Name())
	}
}

func TestMaxNameLength(t *testing.T) {
	seg := make([]byte, MaxNameLength+1)
	for i := range seg {
		seg[i] = 'a'
	}
	_, err := New(Data, string(seg))
	if err == nil {
		t.Fatal("expected error for over-length key")
	}
}

func TestEqualityIsOnSegments(t *testing.T) {
	k1, _ := FromSegments(Data, []string{"a", "b"})
	k2, _ := New(Data, "a.b")
	if !k1.Equal(k2) {
		t.Fatal("expected equal")
	}
	if k1.HashKey() != k2.HashKey() {
		t.Fatal("expected identical hash keys")
	}
}
