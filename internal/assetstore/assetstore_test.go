// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package assetstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bithorde/bithorded/internal/asset"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	base := t.TempDir()
	dispatcher := asset.NewDispatcher(4)
	t.Cleanup(dispatcher.Close)

	store, err := Open(base, dispatcher, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store, base
}

func waitForRoot(t *testing.T, a *asset.StoredAsset) [24]byte {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if digest, ok := a.GetIDs(); ok {
			return digest
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("asset did not finish hashing in time")
	return [24]byte{}
}

func TestAddAssetThenResolveByTigerID(t *testing.T) {
	store, base := newTestStore(t)

	srcPath := filepath.Join(base, "payload.bin")
	payload := bytes.Repeat([]byte{0x42}, 2500)
	if err := os.WriteFile(srcPath, payload, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	stored, err := store.AddAsset(srcPath)
	if err != nil {
		t.Fatalf("AddAsset: %v", err)
	}
	digest := waitForRoot(t, stored)

	folder, ok := store.ResolveIDs([]Identifier{{HashType: HashTiger, Bytes: digest[:]}})
	if !ok {
		t.Fatal("expected ResolveIDs to find the published link")
	}
	if folder != stored.Folder() {
		t.Errorf("resolved folder = %q, want %q", folder, stored.Folder())
	}
}

func TestAddAssetRejectsFileOutsideBase(t *testing.T) {
	store, _ := newTestStore(t)

	outside := t.TempDir()
	srcPath := filepath.Join(outside, "payload.bin")
	if err := os.WriteFile(srcPath, []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := store.AddAsset(srcPath); err != ErrOutsideBase {
		t.Errorf("AddAsset outside base: got %v, want ErrOutsideBase", err)
	}
}

func TestFindAssetSessionCacheHit(t *testing.T) {
	store, base := newTestStore(t)

	srcPath := filepath.Join(base, "payload.bin")
	if err := os.WriteFile(srcPath, bytes.Repeat([]byte{0x7}, 1024), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	stored, err := store.AddAsset(srcPath)
	if err != nil {
		t.Fatalf("AddAsset: %v", err)
	}
	digest := waitForRoot(t, stored)

	found, err := store.FindAsset([]Identifier{{HashType: HashTiger, Bytes: digest[:]}})
	if err != nil {
		t.Fatalf("FindAsset: %v", err)
	}
	if found == nil {
		t.Fatal("expected FindAsset to hit the session cache")
	}
	if found.Folder() != stored.Folder() {
		t.Errorf("found.Folder() = %q, want %q", found.Folder(), stored.Folder())
	}
}

func TestFindAssetUnknownDigestMisses(t *testing.T) {
	store, _ := newTestStore(t)

	var digest [24]byte
	for i := range digest {
		digest[i] = byte(i)
	}

	found, err := store.FindAsset([]Identifier{{HashType: HashTiger, Bytes: digest[:]}})
	if err != nil {
		t.Fatalf("FindAsset: %v", err)
	}
	if found != nil {
		t.Fatal("expected a miss for an unknown digest")
	}
}

func TestRestartPersistenceReopensWithoutRehashing(t *testing.T) {
	base := t.TempDir()
	dispatcher := asset.NewDispatcher(4)

	store, err := Open(base, dispatcher, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	srcPath := filepath.Join(base, "payload.bin")
	if err := os.WriteFile(srcPath, bytes.Repeat([]byte{0x9}, 4096), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	stored, err := store.AddAsset(srcPath)
	if err != nil {
		t.Fatalf("AddAsset: %v", err)
	}
	digest := waitForRoot(t, stored)
	dispatcher.Close()

	// Simulate a process restart: fresh Store, fresh Dispatcher, same
	// base directory.
	dispatcher2 := asset.NewDispatcher(4)
	defer dispatcher2.Close()
	store2, err := Open(base, dispatcher2, nil)
	if err != nil {
		t.Fatalf("reopen Open: %v", err)
	}

	found, err := store2.FindAsset([]Identifier{{HashType: HashTiger, Bytes: digest[:]}})
	if err != nil {
		t.Fatalf("FindAsset after restart: %v", err)
	}
	if found == nil {
		t.Fatal("expected the asset to be found without rehashing after restart")
	}
	if gotDigest, ok := found.GetIDs(); !ok || gotDigest != digest {
		t.Error("reopened asset's root digest does not match")
	}
}
