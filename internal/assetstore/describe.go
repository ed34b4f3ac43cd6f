// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package assetstore

import "fmt"

// Describe returns a short human-readable summary of the store,
// suitable for a management-socket describe response.
func (s *Store) Describe() string {
	s.mu.Lock()
	n := len(s.session)
	s.mu.Unlock()
	return fmt.Sprintf("assetstore at %s: %d asset(s) tracked in session", s.base, n)
}

// AssetInfo is one row of a structured inspect response.
type AssetInfo struct {
	Folder string `cbor:"folder"`
	Tiger  string `cbor:"tiger,omitempty"`
	Size   uint64 `cbor:"size"`
	Ready  bool   `cbor:"ready"`
}

// Inspect returns one AssetInfo per asset currently tracked in the
// session map.
func (s *Store) Inspect() []AssetInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AssetInfo, 0, len(s.session))
	for digest, a := range s.session {
		_, ready := a.GetIDs()
		out = append(out, AssetInfo{
			Folder: a.Folder(),
			Tiger:  tigerSymlinkName(digest),
			Size:   a.Size(),
			Ready:  ready,
		})
	}
	return out
}
