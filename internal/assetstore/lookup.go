// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package assetstore

import (
	"fmt"

	"github.com/bithorde/bithorded/internal/asset"
	"github.com/bithorde/bithorded/internal/treehash"
)

// Identifier is one entry of a request's BitHordeIds set. Only
// HashTiger is ever dereferenced against the symlink index; other
// families pass through resolveIDs untouched since this store keeps
// no sibling index directories for them yet.
type Identifier struct {
	HashType string
	Bytes    []byte
}

// HashTiger is the Identifier.HashType value this store indexes and
// trusts.
const HashTiger = "TREE_TIGER"

// TigerDigest extracts the 24-byte TTH root from ids, if present.
func TigerDigest(ids []Identifier) (digest [treehash.DigestSize]byte, ok bool) {
	for _, id := range ids {
		if id.HashType == HashTiger && len(id.Bytes) == treehash.DigestSize {
			copy(digest[:], id.Bytes)
			return digest, true
		}
	}
	return digest, false
}

// ResolveIDs looks up the Tiger id in ids against the on-disk tiger/
// index and returns the dereferenced asset folder. Identifiers of other
// hash families are not looked up. It does not consult the session
// map — callers that want a live StoredAsset should use FindAsset
// instead.
func (s *Store) ResolveIDs(ids []Identifier) (folder string, ok bool) {
	digest, ok := TigerDigest(ids)
	if !ok {
		return "", false
	}
	return s.resolveTigerID(digest)
}

// FindAsset implements the session-cached lookup path: consult the
// session map first; on a miss, resolve the on-disk index
// and open the asset, purging any stale session entry along the way.
// If the resolved asset's root is not yet SET, a rehash is scheduled
// and FindAsset reports a miss for this call — the caller is expected
// to retry or forward the request upstream.
func (s *Store) FindAsset(ids []Identifier) (*asset.StoredAsset, error) {
	digest, ok := TigerDigest(ids)
	if !ok {
		return nil, nil
	}

	if live, ok := s.lookupSession(digest); ok {
		return live, nil
	}

	folder, ok := s.resolveTigerID(digest)
	if !ok {
		return nil, nil
	}

	stored, err := s.OpenAsset(folder)
	if err != nil {
		return nil, fmt.Errorf("assetstore: opening resolved asset: %w", err)
	}

	if _, complete := stored.GetIDs(); !complete {
		return nil, nil
	}
	return stored, nil
}

// lookupSession returns the live StoredAsset for digest, purging the
// entry if it turns out the root is no longer SET (e.g. the folder
// was externally tampered with). A genuinely dead handle never
// actually happens in this process — Go's GC does not expose
// finalization timing the original's weak_ptr relied on — but the
// purge-on-miss shape is kept so a future eviction policy has a seam
// to plug into.
func (s *Store) lookupSession(digest [treehash.DigestSize]byte) (*asset.StoredAsset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live, ok := s.session[digest]
	if !ok {
		return nil, false
	}
	if got, complete := live.GetIDs(); !complete || got != digest {
		delete(s.session, digest)
		return nil, false
	}
	return live, true
}
