// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package assetstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bithorde/bithorded/internal/asset"
)

// AddAsset ingests an existing file already located inside the
// store's base directory: it allocates a fresh asset folder, links
// the file in as the folder's data member, constructs a StoredAsset
// over it, and kicks off hashing. The returned asset becomes
// queryable by FindAsset once its root digest is SET.
func (s *Store) AddAsset(filePath string) (*asset.StoredAsset, error) {
	absFile, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("assetstore: resolving file path: %w", err)
	}
	rel, err := filepath.Rel(s.base, absFile)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, ErrOutsideBase
	}

	folder, err := s.newAssetDir()
	if err != nil {
		return nil, err
	}

	dataLink := filepath.Join(folder, "data")
	target, err := filepath.Rel(folder, absFile)
	if err != nil {
		s.removeAsset(folder)
		return nil, fmt.Errorf("assetstore: computing relative data link: %w", err)
	}
	if err := os.Symlink(target, dataLink); err != nil {
		s.removeAsset(folder)
		return nil, fmt.Errorf("assetstore: linking source file: %w", err)
	}

	stored, err := asset.OpenStoredAsset(folder, dataLink, filepath.Join(folder, "meta"), s.dispatcher, s.logger)
	if err != nil {
		s.removeAsset(folder)
		return nil, fmt.Errorf("assetstore: constructing asset: %w", err)
	}

	s.track(stored)
	stored.OnStatusChange(func(a *asset.StoredAsset) { s.onAssetComplete(a) })
	stored.NotifyValidRange(0, stored.Size())

	return stored, nil
}

// track registers a StoredAsset in the session map once its root
// digest is already known, or relies on onAssetComplete to do so once
// hashing finishes.
func (s *Store) track(a *asset.StoredAsset) {
	digest, ok := a.GetIDs()
	if !ok {
		return
	}
	s.mu.Lock()
	s.session[digest] = a
	s.mu.Unlock()
}

// onAssetComplete runs once an asset's root digest becomes SET: it
// publishes the id→folder symlink and records the asset in the
// session map.
func (s *Store) onAssetComplete(a *asset.StoredAsset) {
	digest, ok := a.GetIDs()
	if !ok {
		return
	}

	s.mu.Lock()
	s.session[digest] = a
	s.mu.Unlock()

	if err := s.publishLinks(a.Folder(), digest); err != nil {
		s.logger.Error("failed to publish asset links", "folder", a.Folder(), "error", err)
	}
}

// OpenAsset opens an existing asset folder directly (e.g. during
// startup enumeration of assets/). If the root is not yet SET, the
// original's behavior is reproduced: a warning is logged and hashing
// is re-submitted over the whole file rather than treating the folder
// as failed.
func (s *Store) OpenAsset(folder string) (*asset.StoredAsset, error) {
	stored, err := asset.OpenStoredAsset(folder, filepath.Join(folder, "data"), filepath.Join(folder, "meta"), s.dispatcher, s.logger)
	if err != nil {
		return nil, fmt.Errorf("assetstore: opening asset %s: %w", folder, err)
	}

	stored.OnStatusChange(func(a *asset.StoredAsset) { s.onAssetComplete(a) })

	if _, ok := stored.GetIDs(); !ok {
		s.logger.Warn("asset folder opened with unset root, rehashing", "folder", folder)
		stored.NotifyValidRange(0, stored.Size())
	} else {
		s.track(stored)
	}

	return stored, nil
}
