// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Command settings-populator seeds a fresh or existing datastore with a
// variant's compiled-in default settings and metadata (spec §4.I). Its
// flag shape (explicit base-path flag, optional version override) is
// grounded on cmd/run.go's cobra+pflag wiring, adapted to storewolf's own
// flag names (--data-store-base-path, --version) from original_source.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bottlerocket-os/settings-engine/internal/cliexit"
	"github.com/bottlerocket-os/settings-engine/internal/rlog"
	"github.com/bottlerocket-os/settings-engine/populator"
	"github.com/bottlerocket-os/settings-engine/version"
)

func main() {
	var (
		datastoreBase string
		logLevel      string
		versionStr    string
		osReleasePath string
		defaultsDirs  []string
	)

	cmd := &cobra.Command{
		Use:           "settings-populator",
		Short:         "Seed a Bottlerocket settings datastore with compiled-in defaults",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, _ []string) error {
			level, err := rlog.ParseLevel(logLevel)
			if err != nil {
				return cliexit.Usage(err)
			}
			log := rlog.New(os.Stderr, level)

			if len(defaultsDirs) == 0 {
				return cliexit.Usage(fmt.Errorf("--defaults-dir must be given at least once"))
			}

			ver, err := resolveVersion(versionStr, osReleasePath)
			if err != nil {
				return cliexit.Usage(err)
			}

			res, err := populator.Populate(context.Background(), datastoreBase, defaultsDirs, ver, log)
			if err != nil {
				return cliexit.Runtime(err)
			}

			log.Info("populated datastore at %s (created=%t, settings=%d, metadata=%d, other=%d)",
				datastoreBase, res.Created, res.SettingsWritten, res.MetadataWritten, res.OtherWritten)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&datastoreBase, "data-store-base-path", "/var/lib/bottlerocket/datastore", "datastore base directory")
	flags.StringVar(&logLevel, "log-level", "info", "one of debug, info, warn, error")
	flags.StringVar(&versionStr, "version", "", "datastore version to create, e.g. 1.20.0 (defaults to /etc/os-release's VERSION_ID)")
	flags.StringVar(&osReleasePath, "os-release-path", "/etc/os-release", "fallback source for --version")
	flags.StringArrayVar(&defaultsDirs, "defaults-dir", nil, "directory of *.toml default files, lowest precedence first (repeatable)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cliexit.Code(err))
	}
}

func resolveVersion(explicit, osReleasePath string) (version.Version, error) {
	if explicit != "" {
		v, err := version.Parse(explicit)
		if err != nil {
			return version.Version{}, fmt.Errorf("--version: %w", err)
		}
		return v, nil
	}
	v, err := populator.VersionFromOSRelease(osReleasePath)
	if err != nil {
		return version.Version{}, fmt.Errorf("resolving version from %s: %w", osReleasePath, err)
	}
	return v, nil
}
