// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package apiserver

import (
	"net"
	"os"
	"os/user"
	"strconv"
)

// chownSocketGroup sets socketPath's group ownership to group, leaving the
// owning user untouched (spec §4.G: "a supplementary group").
func chownSocketGroup(socketPath, group string) error {
	g, err := user.LookupGroup(group)
	if err != nil {
		return err
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return err
	}
	return os.Chown(socketPath, -1, gid)
}

// notifyReady writes a single readiness datagram on fd, mirroring the
// sd_notify(3) READY=1 handshake without a hard systemd dependency: the fd
// is whatever the process supervisor handed us (spec §4.G's "process
// manager handshake fd", made concrete). Failure is logged by the caller
// and is never fatal — a supervisor that isn't watching loses nothing.
func notifyReady(fd int) {
	f := os.NewFile(uintptr(fd), "ready-fd")
	if f == nil {
		return
	}
	defer f.Close()
	conn, err := net.FileConn(f)
	if err != nil {
		return
	}
	defer conn.Close()
	_, _ = conn.Write([]byte("READY=1\n"))
}
