// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

// Package assetstore manages a pool of asset folders rooted at a base
// directory, plus the id→folder symlink index that lets a content
// identifier be resolved to a live StoredAsset without a database.
package assetstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/bithorde/bithorded/internal/asset"
	"github.com/bithorde/bithorded/internal/treehash"
)

// TigerFamily is the index subdirectory name for TTH root digests, the
// only hash family this core ever verifies.
const TigerFamily = "tiger"

// ErrOutsideBase is returned by AddAsset when the source file is not
// contained within the store's base directory.
var ErrOutsideBase = errors.New("assetstore: file is outside base directory")

// Store is rooted at a configured base directory, containing
// .bh_meta/assets/ (the asset folder pool) and .bh_meta/<family>/ (the
// id→folder symlink index, one subdirectory per hash family).
type Store struct {
	base       string
	assetsDir  string
	indexDir   string
	dispatcher *asset.Dispatcher
	logger     *slog.Logger

	counter atomicCounter

	mu      sync.Mutex
	session map[[treehash.DigestSize]byte]*asset.StoredAsset
}

// Open ensures the store's directory layout exists under base and
// returns a ready Store. dispatcher is shared across every asset this
// store opens or creates.
func Open(base string, dispatcher *asset.Dispatcher, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	metaDir := filepath.Join(base, ".bh_meta")
	assetsDir := filepath.Join(metaDir, "assets")
	indexDir := filepath.Join(metaDir, TigerFamily)

	for _, dir := range []string{assetsDir, indexDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("assetstore: preparing %s: %w", dir, err)
		}
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("assetstore: resolving base path: %w", err)
	}

	return &Store{
		base:       absBase,
		assetsDir:  assetsDir,
		indexDir:   indexDir,
		dispatcher: dispatcher,
		logger:     logger,
		session:    make(map[[treehash.DigestSize]byte]*asset.StoredAsset),
	}, nil
}

// atomicCounter hands out candidate folder names. It starts from zero
// on every Open; newAssetDir skips any name already present on disk,
// so allocated names never collide with folders from an earlier run.
type atomicCounter struct {
	mu   sync.Mutex
	next uint64
}

func (c *atomicCounter) next_() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return c.next
}

// newAssetDir allocates a fresh, not-yet-existing folder under
// assets/ and creates it, retrying on name collision.
func (s *Store) newAssetDir() (string, error) {
	for {
		name := strconv.FormatUint(s.counter.next_(), 36)
		dir := filepath.Join(s.assetsDir, name)
		if err := os.Mkdir(dir, 0o755); err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", fmt.Errorf("assetstore: allocating asset folder: %w", err)
		}
		return dir, nil
	}
}

// removeAsset recursively deletes an asset folder, used to undo a
// failed ingest.
func (s *Store) removeAsset(folder string) {
	if err := os.RemoveAll(folder); err != nil {
		s.logger.Error("failed to remove asset folder", "folder", folder, "error", err)
	}
}
