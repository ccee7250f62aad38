// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package config

import "testing"

func TestParseInjectsDefaults(t *testing.T) {
	c, err := Parse([]byte(``))
	if err != nil {
		t.Fatal(err)
	}
	if c.SocketPath != defaultSocketPath {
		t.Errorf("got socket path %q", c.SocketPath)
	}
	if c.DatastoreBase != defaultDatastoreBase {
		t.Errorf("got datastore base %q", c.DatastoreBase)
	}
	if c.LogLevel != "info" {
		t.Errorf("got log level %q", c.LogLevel)
	}
}

func TestParseHonorsExplicitValues(t *testing.T) {
	c, err := Parse([]byte("socket_path: /tmp/custom.sock\nlog_level: debug\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.SocketPath != "/tmp/custom.sock" {
		t.Errorf("got %q", c.SocketPath)
	}
	if c.LogLevel != "debug" {
		t.Errorf("got %q", c.LogLevel)
	}
}

func TestParseRejectsUnknownSocketGroup(t *testing.T) {
	_, err := Parse([]byte("socket_group: this-group-should-not-exist-12345\n"))
	if err == nil {
		t.Fatal("expected an error for a nonexistent socket group")
	}
}
