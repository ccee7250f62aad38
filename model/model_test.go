// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package model

import (
	"reflect"
	"testing"

	"github.com/bottlerocket-os/settings-engine/key"
)

type hostname struct {
	value string
}

func (h *hostname) Validate() error {
	if h.value == "" {
		return &Error{Message: "hostname must not be empty"}
	}
	return nil
}

func (h hostname) MarshalJSON() ([]byte, error) { return []byte(`"` + h.value + `"`), nil }
func (h *hostname) UnmarshalJSON(b []byte) error {
	h.value = string(b[1 : len(b)-1])
	return nil
}

type network struct {
	Hostname    *string           `settings:"hostname"`
	TimeServers []string          `settings:"time-servers"`
	Hosts       map[string]string `settings:"hosts"`
}

type settings struct {
	Network network `settings:"network"`
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	host := "my-host"
	in := settings{
		Network: network{
			Hostname:    &host,
			TimeServers: []string{"0.pool.ntp.org", "1.pool.ntp.org"},
			Hosts:       map[string]string{"localhost": "127.0.0.1"},
		},
	}

	flat, err := Serialize(in, nil)
	if err != nil {
		t.Fatal(err)
	}
	if flat["settings.network.hostname"] != `"my-host"` {
		t.Fatalf("got %q", flat["settings.network.hostname"])
	}
	if flat["settings.network.time-servers"] != `["0.pool.ntp.org","1.pool.ntp.org"]` {
		t.Fatalf("got %q", flat["settings.network.time-servers"])
	}
	if flat["settings.network.hosts.localhost"] != `"127.0.0.1"` {
		t.Fatalf("got %v", flat)
	}

	var out settings
	if err := Deserialize(flat, &out, nil); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\nin  = %+v\nout = %+v", in, out)
	}
}

func TestOptionOmittedWhenNil(t *testing.T) {
	in := settings{Network: network{TimeServers: []string{"a"}}}
	flat, err := Serialize(in, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := flat["settings.network.hostname"]; ok {
		t.Fatal("nil pointer field must be omitted entirely, not encoded as null")
	}

	var out settings
	if err := Deserialize(flat, &out, nil); err != nil {
		t.Fatal(err)
	}
	if out.Network.Hostname != nil {
		t.Fatal("absent key must deserialize to a nil option")
	}
}

type withValidated struct {
	Host hostname `settings:"host"`
}

func TestValidatorRunsOnDeserialize(t *testing.T) {
	var out withValidated
	err := Deserialize(map[string]string{"with-validated.host": `""`}, &out, nil)
	if err == nil {
		t.Fatal("expected Validate to reject an empty hostname")
	}
}

func TestMapKeyContainingDotMustBeQuoted(t *testing.T) {
	in := map[string]string{`"127.0.0.1"`: "localhost"}
	k, err := key.New(key.Data, "hosts")
	if err != nil {
		t.Fatal(err)
	}
	flat, err := Serialize(in, &k)
	if err != nil {
		t.Fatal(err)
	}
	if flat[`hosts."127.0.0.1"`] != `"localhost"` {
		t.Fatalf("got %v", flat)
	}

	out := map[string]string{}
	if err := Deserialize(flat, &out, &k); err != nil {
		t.Fatal(err)
	}
	if out[`"127.0.0.1"`] != "localhost" {
		t.Fatalf("round trip mismatch: %v", out)
	}
}

func TestMapRootRequiresPrefix(t *testing.T) {
	m := map[string]string{"a": "b"}
	if _, err := Serialize(m, nil); err == nil {
		t.Fatal("expected an error serializing a map without a prefix key")
	}
}
