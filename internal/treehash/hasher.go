// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package treehash

import (
	"fmt"
	"sync"

	"github.com/bithorde/bithorded/internal/tiger"
)

// Hasher wraps a MetaStore with the leaf-count needed to interpret it
// as a tree, and implements incremental Tiger Tree Hash propagation.
//
// Concurrent SetLeaf calls for distinct leaves are serialized by an
// internal mutex covering the full root-ward walk, because two
// concurrent walks from sibling subtrees would race on their shared
// parent. IsBlockSet does not take the lock and may observe a stale
// EMPTY while a concurrent walk is in flight.
type Hasher struct {
	mu    sync.Mutex
	store *MetaStore
	leafs uint64
}

// NewHasher returns a Hasher over store, interpreting it as a tree
// with leafCount leaves. The store must have at least TreeSize(leafCount)
// node slots; this is a precondition checked at construction.
func NewHasher(store *MetaStore, leafCount uint64) (*Hasher, error) {
	want := TreeSize(leafCount)
	if uint64(store.NodeCount()) < want {
		return nil, fmt.Errorf("treehash: backing store has %d nodes, need %d for %d leaves",
			store.NodeCount(), want, leafCount)
	}
	return &Hasher{store: store, leafs: leafCount}, nil
}

// IsBlockSet reports whether leaf i is SET. Does not block on
// concurrent SetLeaf walks.
func (h *Hasher) IsBlockSet(i uint64) (bool, error) {
	idx := Leaf(i, h.leafs)
	node, err := h.store.Get(storageIndex(idx))
	if err != nil {
		return false, err
	}
	return node.State == StateSet, nil
}

// SetLeaf marks leaf i SET with the given digest, then propagates
// toward the root: whenever the current node's sibling is already SET,
// or the current node has no valid sibling (an unpaired trailing node
// on an odd-sized layer), the parent is marked SET. A paired parent's
// digest is Tiger(0x01 || left.Digest || right.Digest); an unpaired
// node is promoted to its parent as-is, without rehashing.
func (h *Hasher) SetLeaf(i uint64, digest [DigestSize]byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := Leaf(i, h.leafs)
	if err := h.store.Put(storageIndex(idx), Node{State: StateSet, Digest: digest}); err != nil {
		return err
	}

	return h.propagate(idx)
}

// propagate walks from idx toward the root, setting parent nodes as
// long as the walk can determine their value. Must be called with mu
// held.
func (h *Hasher) propagate(idx NodeIdx) error {
	for !idx.IsRoot() {
		sibling := idx.Sibling()

		var parentDigest [DigestSize]byte
		if !sibling.IsValid() {
			// Unpaired trailing node: promote as-is.
			self, err := h.store.Get(storageIndex(idx))
			if err != nil {
				return err
			}
			parentDigest = self.Digest
		} else {
			siblingNode, err := h.store.Get(storageIndex(sibling))
			if err != nil {
				return err
			}
			if siblingNode.State != StateSet {
				// Sibling not yet hashed; stop here until it completes
				// and triggers its own walk.
				return nil
			}

			self, err := h.store.Get(storageIndex(idx))
			if err != nil {
				return err
			}

			left, right := self.Digest, siblingNode.Digest
			if sibling.Index < idx.Index {
				left, right = siblingNode.Digest, self.Digest
			}
			parentDigest = tiger.SumTagged(0x01, left[:], right[:])
		}

		parent := idx.Parent()
		if err := h.store.Put(storageIndex(parent), Node{State: StateSet, Digest: parentDigest}); err != nil {
			return err
		}
		idx = parent
	}
	return nil
}

// Root returns the root node, possibly EMPTY if the tree is not yet
// fully hashed.
func (h *Hasher) Root() (Node, error) {
	root := NodeIdx{Index: 0, LayerSize: 1}
	return h.store.Get(storageIndex(root))
}

// LeafDigest computes the TTH leaf digest for a BLOCKSIZE-aligned (or
// short trailing) block.
func LeafDigest(block []byte) [DigestSize]byte {
	return tiger.SumTagged(0x00, block)
}
