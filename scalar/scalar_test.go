// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package scalar

import "testing"

func TestRoundTripString(t *testing.T) {
	s, err := Serialize("hi")
	if err != nil {
		t.Fatal(err)
	}
	if s != `"hi"` {
		t.Fatalf("got %q", s)
	}
	var out string
	if err := Deserialize(s, &out); err != nil {
		t.Fatal(err)
	}
	if out != "hi" {
		t.Fatalf("got %q", out)
	}
}

func TestRoundTripArray(t *testing.T) {
	s, err := Serialize([]interface{}{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if s != `["a","b"]` {
		t.Fatalf("got %q", s)
	}
}

func TestRejectsFloat(t *testing.T) {
	if _, err := Serialize(3.14); err == nil {
		t.Fatal("expected error for floating point value")
	}
}

func TestSerializePassesControlBytesThroughLiterally(t *testing.T) {
	s, err := Serialize("line1\nline2\ttabbed")
	if err != nil {
		t.Fatal(err)
	}
	want := "\"line1\nline2\ttabbed\""
	if s != want {
		t.Fatalf("got %q, want %q", s, want)
	}
}

func TestSerializeDoesNotEscapeHTMLCharacters(t *testing.T) {
	s, err := Serialize("<a href=\"x\">&amp;</a>")
	if err != nil {
		t.Fatal(err)
	}
	want := `"<a href=\"x\">&amp;</a>"`
	if s != want {
		t.Fatalf("got %q, want %q", s, want)
	}
}

func TestSerializeEscapesOnlyQuoteAndBackslash(t *testing.T) {
	s, err := Serialize(`a"b\c`)
	if err != nil {
		t.Fatal(err)
	}
	want := `"a\"b\\c"`
	if s != want {
		t.Fatalf("got %q, want %q", s, want)
	}
}

func TestRoundTripControlBytes(t *testing.T) {
	in := "multi\nline\twith\rcontrol\x01bytes"
	s, err := Serialize(in)
	if err != nil {
		t.Fatal(err)
	}
	var out string
	if err := Deserialize(s, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("got %q, want %q", out, in)
	}
}

func TestRawRoundTripsControlBytes(t *testing.T) {
	in := "a\nb"
	s, err := Serialize(in)
	if err != nil {
		t.Fatal(err)
	}
	v, err := Raw(s)
	if err != nil {
		t.Fatal(err)
	}
	out, ok := v.(string)
	if !ok || out != in {
		t.Fatalf("got %#v", v)
	}
}

func TestCanonicalObjectJSONOrdersKeys(t *testing.T) {
	v := map[string]interface{}{"b": 1.0, "a": 2.0}
	bs, err := CanonicalObjectJSON(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(bs) != `{"a":2,"b":1}` {
		t.Fatalf("got %s", bs)
	}
}
