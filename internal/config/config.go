// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package config implements the settings engine's small process config
// file parsing and default injection, grounded on config/config.go's
// ParseConfig/validateAndInjectDefaults idiom.
package config

import (
	"fmt"
	"os/user"

	"gopkg.in/yaml.v3"
)

// Config is the configuration file settings-apiserver is started with.
type Config struct {
	// SocketPath is the Unix domain socket the API server listens on.
	SocketPath string `yaml:"socket_path"`
	// SocketGroup, if set, is chgrp'd onto SocketPath after bind.
	SocketGroup string `yaml:"socket_group"`
	// DatastoreBase is the root directory containing the versioned symlink
	// chain (spec §3).
	DatastoreBase string `yaml:"datastore_base"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
	// MetricsAddr is parsed but not used by the API server, which serves
	// /metrics on its own router.
	MetricsAddr string `yaml:"metrics_addr"`
	// ApplierPath is the external applier binary the commit_and_apply and
	// apply endpoints invoke.
	ApplierPath string `yaml:"applier_path"`
	// UpdateLockPath is the lockfile guarding /updates/status reads.
	UpdateLockPath string `yaml:"update_lock_path"`
}

const (
	defaultSocketPath     = "/run/api.sock"
	defaultDatastoreBase  = "/var/lib/bottlerocket/datastore"
	defaultApplierPath    = "/usr/bin/settings-applier"
	defaultUpdateLockPath = "/var/run/update.lock"
)

// Parse returns a valid Config with defaults injected for any field the
// input document omits.
func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.injectDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) injectDefaults() {
	if c.SocketPath == "" {
		c.SocketPath = defaultSocketPath
	}
	if c.DatastoreBase == "" {
		c.DatastoreBase = defaultDatastoreBase
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ApplierPath == "" {
		c.ApplierPath = defaultApplierPath
	}
	if c.UpdateLockPath == "" {
		c.UpdateLockPath = defaultUpdateLockPath
	}
}

func (c *Config) validate() error {
	if c.SocketGroup != "" {
		if _, err := user.LookupGroup(c.SocketGroup); err != nil {
			return fmt.Errorf("config: socket_group %q: %w", c.SocketGroup, err)
		}
	}
	return nil
}
