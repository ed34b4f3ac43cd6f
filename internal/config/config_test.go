// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bithorded.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFileFillsDefaults(t *testing.T) {
	path := writeConfig(t, "base_dir: /srv/bithorde\nname: node-a\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ManagementSocket != "/run/bithorded/mgmt.sock" {
		t.Errorf("ManagementSocket = %q, want default", cfg.ManagementSocket)
	}
	if cfg.CPUWorkers != 4 {
		t.Errorf("CPUWorkers = %d, want default 4", cfg.CPUWorkers)
	}
}

func TestLoadFileMissingBaseDirFails(t *testing.T) {
	path := writeConfig(t, "name: node-a\n")

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected an error for a missing base_dir")
	}
}

func TestLoadFileWithFriends(t *testing.T) {
	path := writeConfig(t, `
base_dir: /srv/bithorde
name: node-a
friends:
  - name: alice
    address: 10.0.0.1
    port: 8337
  - name: passive-bob
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(cfg.Friends) != 2 {
		t.Fatalf("len(Friends) = %d, want 2", len(cfg.Friends))
	}
	if cfg.Friends[0].Port != 8337 {
		t.Errorf("Friends[0].Port = %d, want 8337", cfg.Friends[0].Port)
	}
	if cfg.Friends[1].Port != 0 || cfg.Friends[1].Address != "" {
		t.Error("expected a passive friend with no address or port")
	}
}

func TestValidateRejectsHalfSpecifiedFriend(t *testing.T) {
	path := writeConfig(t, `
base_dir: /srv/bithorde
name: node-a
friends:
  - name: broken
    address: 10.0.0.1
`)

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation to reject a friend with address but no port")
	}
}
