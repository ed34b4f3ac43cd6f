// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package assetstore

import (
	"encoding/base32"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bithorde/bithorded/internal/treehash"
)

// tigerEncoding is RFC 4648 base32, upper case, no padding. A 24-byte
// Tiger digest (192 bits) is not a whole number of 5-bit quintets, so
// its unpadded encoding is 39 characters long.
var tigerEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

func tigerSymlinkName(digest [treehash.DigestSize]byte) string {
	return tigerEncoding.EncodeToString(digest[:])
}

// publishLinks creates or replaces the tiger/<base32> symlink for the
// asset's root digest, pointing at its folder via a relative path. The
// replacement is atomic (build alongside, then rename over).
func (s *Store) publishLinks(folder string, digest [treehash.DigestSize]byte) error {
	name := tigerSymlinkName(digest)
	linkPath := filepath.Join(s.indexDir, name)

	target, err := filepath.Rel(s.indexDir, folder)
	if err != nil {
		return fmt.Errorf("assetstore: computing relative link target: %w", err)
	}

	tmp := linkPath + ".tmp"
	os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("assetstore: creating symlink: %w", err)
	}
	if err := os.Rename(tmp, linkPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("assetstore: publishing symlink: %w", err)
	}

	// Touch the folder (not the symlink itself, which Go cannot
	// portably timestamp without following it) so directory-freshness
	// tooling notices the completed ingest.
	now := time.Now()
	if err := os.Chtimes(folder, now, now); err != nil {
		s.logger.Warn("failed to touch completed asset folder", "folder", folder, "error", err)
	}

	return nil
}

// resolveTigerID dereferences the tiger/<base32> symlink for digest,
// verifying the target asset's root node actually matches — stale
// symlinks from a prior crash are ignored rather than trusted blindly.
func (s *Store) resolveTigerID(digest [treehash.DigestSize]byte) (folder string, ok bool) {
	name := tigerSymlinkName(digest)
	linkPath := filepath.Join(s.indexDir, name)

	target, err := os.Readlink(linkPath)
	if err != nil {
		return "", false
	}
	folder = filepath.Join(s.indexDir, target)

	root, err := readRootNode(folder)
	if err != nil || root.State != treehash.StateSet || root.Digest != digest {
		return "", false
	}
	return folder, true
}

// readRootNode reads just the root TigerNode from an asset folder's
// meta file, without constructing a full StoredAsset.
func readRootNode(folder string) (treehash.Node, error) {
	metaPath := filepath.Join(folder, "meta")
	f, err := os.Open(metaPath)
	if err != nil {
		return treehash.Node{}, err
	}
	defer f.Close()

	buf := make([]byte, treehash.NodeSize)
	// Root always lives at array index 0 (see internal/treehash's
	// layerOffset doc comment on why "root LAST" refers to SET order,
	// not array position).
	if _, err := f.ReadAt(buf, 0); err != nil {
		return treehash.Node{}, err
	}
	return treehash.DecodeNode(buf), nil
}
