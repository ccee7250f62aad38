// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package migration

import (
	"encoding/json"

	"github.com/bottlerocket-os/settings-engine/key"
	"github.com/bottlerocket-os/settings-engine/version"
)

// ReportMetaName is the reserved metadata name the migrator writes a
// Report under, as a record of the last migration (supplemented from
// original_source's migrator, which logged the same information to its own
// run log before the distilled spec dropped it). The API server's GET /
// does not include it.
const ReportMetaName = "migration-report"

// ReportAnchor is the data key the report metadata is attached to: not a
// real settings value, just a stable place for a single piece of
// store-wide metadata to live.
var ReportAnchor = mustKey("migration")

func mustKey(s string) key.Key {
	k, err := key.New(key.Data, s)
	if err != nil {
		panic(err)
	}
	return k
}

// StepResult records one migration binary's invocation.
type StepResult struct {
	Name     string `json:"name"`
	Forward  bool   `json:"forward"`
	ExitCode int    `json:"exit_code"`
}

// Report summarizes one migration run, persisted as JSON under
// ReportMetaName on ReportAnchor in the resulting datastore before the
// final symlink flip.
type Report struct {
	From    version.Version `json:"from"`
	To      version.Version `json:"to"`
	Forward bool             `json:"forward"`
	NoOp    bool             `json:"no_op"`
	Steps   []StepResult     `json:"steps"`
}

// Marshal renders r as the JSON string stored as metadata.
func (r Report) Marshal() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
