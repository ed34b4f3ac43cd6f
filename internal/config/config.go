// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the daemon's single YAML configuration file.
// Unlike some sibling tools, there is no environment-variable fallback
// chain: a content store's base directory must never be ambiguous, so
// the daemon always requires an explicit -config flag pointing at the
// file to load.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Friend is one statically configured upstream peer.
type Friend struct {
	// Name identifies the friend and must match the name it presents
	// during its own handshake.
	Name string `yaml:"name"`

	// Address is the host to dial. Empty means passive: only incoming
	// connections from this friend are accepted, it is never dialed.
	Address string `yaml:"address"`

	// Port is the TCP port to dial. Zero means passive.
	Port int `yaml:"port"`
}

// Config is the full daemon configuration.
type Config struct {
	// BaseDir is the root directory this node's AssetStore is rooted
	// at: it holds .bh_meta/ and every asset folder underneath it.
	BaseDir string `yaml:"base_dir"`

	// ManagementSocket is the Unix socket path the describe/inspect
	// query server listens on.
	ManagementSocket string `yaml:"management_socket"`

	// Name is this node's own peer identity, presented to friends
	// during handshake and used to exclude self-loops when forwarding.
	Name string `yaml:"name"`

	// Friends lists every statically configured upstream peer.
	Friends []Friend `yaml:"friends"`

	// CPUWorkers sizes the block-hashing worker pool. When the file
	// omits it, the default from Default is kept; an explicit zero or
	// negative value is rejected by Validate.
	CPUWorkers int `yaml:"cpu_workers"`
}

// Default returns a Config with ManagementSocket and CPUWorkers set to
// their defaults and every other field empty. LoadFile decodes the
// file on top of it; BaseDir has no default and must be supplied by
// the file.
func Default() *Config {
	return &Config{
		ManagementSocket: "/run/bithorded/mgmt.sock",
		CPUWorkers:       4,
	}
}

// LoadFile reads and parses the YAML configuration file at path,
// starting from Default() and validating the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for the minimum required fields.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("config: base_dir is required")
	}
	if c.ManagementSocket == "" {
		return fmt.Errorf("config: management_socket is required")
	}
	if c.CPUWorkers <= 0 {
		return fmt.Errorf("config: cpu_workers must be positive")
	}
	for i, f := range c.Friends {
		if f.Name == "" {
			return fmt.Errorf("config: friends[%d].name is required", i)
		}
		if (f.Address == "") != (f.Port == 0) {
			return fmt.Errorf("config: friends[%d] (%s): address and port must both be set, or both be empty for a passive friend", i, f.Name)
		}
	}
	return nil
}

// EnsureBaseDir creates the configured base directory if it does not
// already exist.
func (c *Config) EnsureBaseDir() error {
	abs, err := filepath.Abs(c.BaseDir)
	if err != nil {
		return fmt.Errorf("config: resolving base_dir: %w", err)
	}
	c.BaseDir = abs
	return os.MkdirAll(c.BaseDir, 0o755)
}
