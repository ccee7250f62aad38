// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Command settings-apiserver runs the settings API server (spec §4.G)
// against the datastore's current versioned directory. Its flag and
// exit-code conventions are grounded on cmd/run.go's cobra+pflag wiring.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bottlerocket-os/settings-engine/apiserver"
	"github.com/bottlerocket-os/settings-engine/datastore/fsstore"
	"github.com/bottlerocket-os/settings-engine/internal/cliexit"
	"github.com/bottlerocket-os/settings-engine/internal/collaborators"
	"github.com/bottlerocket-os/settings-engine/internal/rlog"
)

func main() {
	var (
		socketPath     string
		socketGroup    string
		datastoreBase  string
		logLevel       string
		applierPath    string
		updateLockPath string
		osReleasePath  string
		readyFD        int
	)

	cmd := &cobra.Command{
		Use:           "settings-apiserver",
		Short:         "Serve the Bottlerocket settings API over a Unix domain socket",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, _ []string) error {
			level, err := rlog.ParseLevel(logLevel)
			if err != nil {
				return cliexit.Usage(err)
			}
			log := rlog.New(os.Stderr, level)

			concreteDir, _, err := fsstore.ResolveCurrent(datastoreBase)
			if err != nil {
				return cliexit.Runtime(fmt.Errorf("resolving current datastore version: %w", err))
			}
			store, err := fsstore.Open(concreteDir)
			if err != nil {
				return cliexit.Runtime(fmt.Errorf("opening datastore: %w", err))
			}

			opts := []apiserver.Option{
				apiserver.WithLogger(log),
				apiserver.WithOSCollaborator(collaborators.OSRelease{Path: osReleasePath}),
				apiserver.WithApplier(collaborators.Applier{Path: applierPath}),
				apiserver.WithUpdateState(collaborators.UpdateState{Path: updateLockPath}),
			}
			if socketGroup != "" {
				opts = append(opts, apiserver.WithSocketGroup(socketGroup))
			}
			if readyFD >= 0 {
				opts = append(opts, apiserver.WithReadyFD(readyFD))
			}

			srv := apiserver.New(store, socketPath, opts...)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ListenAndServe(ctx); err != nil {
				return cliexit.Runtime(err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&socketPath, "socket-path", "/run/api.sock", "Unix socket to listen on")
	flags.StringVar(&socketGroup, "socket-group", "", "group to chown the socket to after bind")
	flags.StringVar(&datastoreBase, "datastore-path", "/var/lib/bottlerocket/datastore", "datastore base directory")
	flags.StringVar(&logLevel, "log-level", "info", "one of debug, info, warn, error")
	flags.StringVar(&applierPath, "applier-path", "/usr/bin/settings-applier", "external settings applier binary")
	flags.StringVar(&updateLockPath, "update-lock-path", "/var/run/update-status.json", "update dispatcher status file")
	flags.StringVar(&osReleasePath, "os-release-path", "/etc/os-release", "OS release file backing GET /os")
	flags.IntVar(&readyFD, "ready-fd", -1, "file descriptor to notify once the socket is bound")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cliexit.Code(err))
	}
}
