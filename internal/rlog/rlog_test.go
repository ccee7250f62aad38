// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package rlog

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"": Info, "debug": Debug, "WARN": Warn, "error": Error}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("bogus"); err == nil {
		t.Fatal("expected an error for an unknown level name")
	}
}

func TestLoggerWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Debug)
	l.WithFields(Fields{"tx": "default"}).Info("committed %d keys", 3)

	out := buf.String()
	if !strings.Contains(out, `"tx":"default"`) {
		t.Fatalf("expected tx field in output: %s", out)
	}
	if !strings.Contains(out, "committed 3 keys") {
		t.Fatalf("expected formatted message in output: %s", out)
	}
}
