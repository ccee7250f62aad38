// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Command settings-migrator drives one datastore migration run (spec
// §4.J) against a signed target repository (spec §4.K). Its flag shape
// (explicit source/target-like flags, a single forward-or-backward run)
// is grounded on cuemby-warren/cmd/warren-migrate/main.go's migrate-tool
// structure, adapted from the standard flag package to cobra+pflag.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bottlerocket-os/settings-engine/internal/cliexit"
	"github.com/bottlerocket-os/settings-engine/internal/rlog"
	"github.com/bottlerocket-os/settings-engine/migration"
	"github.com/bottlerocket-os/settings-engine/target"
	"github.com/bottlerocket-os/settings-engine/version"
)

func main() {
	var (
		datastoreBase string
		logLevel      string
		migrateTo     string
		migrationURL  string
		metadataURL   string
		rootPath      string
	)

	cmd := &cobra.Command{
		Use:           "settings-migrator",
		Short:         "Migrate a Bottlerocket settings datastore to a target version",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, _ []string) error {
			level, err := rlog.ParseLevel(logLevel)
			if err != nil {
				return cliexit.Usage(err)
			}
			log := rlog.New(os.Stderr, level)

			targetVersion, err := version.Parse(migrateTo)
			if err != nil {
				return cliexit.Usage(fmt.Errorf("--migrate-to-version: %w", err))
			}

			rootJSON, err := os.ReadFile(rootPath)
			if err != nil {
				return cliexit.Runtime(fmt.Errorf("reading trusted root file: %w", err))
			}

			repo, err := target.Load(rootJSON, metadataURL, migrationURL, target.DefaultLimits)
			if err != nil {
				return cliexit.Runtime(fmt.Errorf("loading signed target repository: %w", err))
			}

			engine := migration.New(repo, nil, log)
			report, err := engine.Migrate(context.Background(), datastoreBase, targetVersion)
			if err != nil {
				return cliexit.Runtime(err)
			}

			if report.NoOp {
				log.Info("already at %s; nothing to do", report.To.String())
				return nil
			}
			log.Info("migrated %s -> %s (%d steps)", report.From.String(), report.To.String(), len(report.Steps))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&datastoreBase, "datastore-path", "/var/lib/bottlerocket/datastore", "datastore base directory")
	flags.StringVar(&logLevel, "log-level", "info", "one of debug, info, warn, error")
	flags.StringVar(&migrateTo, "migrate-to-version", "", "target version, e.g. 1.20.0 (required)")
	flags.StringVar(&migrationURL, "migration-directory", "", "URL serving migration binaries (the signed repository's targets root) (required)")
	flags.StringVar(&metadataURL, "metadata-directory", "", "URL serving the signed repository's TUF metadata (required)")
	flags.StringVar(&rootPath, "root-path", "", "path to the trusted root.json file (required)")

	cmd.PreRunE = func(*cobra.Command, []string) error {
		required := []struct{ flag, val string }{
			{"migrate-to-version", migrateTo},
			{"migration-directory", migrationURL},
			{"metadata-directory", metadataURL},
			{"root-path", rootPath},
		}
		for _, r := range required {
			if r.val == "" {
				return cliexit.Usage(fmt.Errorf("--%s is required", r.flag))
			}
		}
		return nil
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cliexit.Code(err))
	}
}
