// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package collaborators provides the apiserver.Server collaborator
// implementations (OS release info, the settings applier, the update
// dispatcher) that a real deployment wires in, kept out of package
// apiserver itself so the server has no hard dependency on host layout or
// on exec.Command, matching the decoupling apiserver/server.go's
// collaborator interfaces are built for.
package collaborators

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// OSRelease reads an /etc/os-release-shaped file and implements
// apiserver.OSCollaborator.
type OSRelease struct {
	Path string
}

// OSRelease implements apiserver.OSCollaborator.
func (o OSRelease) OSRelease(_ context.Context) (interface{}, error) {
	f, err := os.Open(o.Path)
	if err != nil {
		return nil, fmt.Errorf("collaborators: opening %s: %w", o.Path, err)
	}
	defer f.Close()

	out := map[string]interface{}{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.ToLower(name)] = strings.Trim(val, `"`)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("collaborators: reading %s: %w", o.Path, err)
	}
	return out, nil
}
