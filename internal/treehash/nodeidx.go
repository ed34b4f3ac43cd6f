// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

// Package treehash implements the index arithmetic, persistent node
// storage, and incremental hashing for a Tiger Tree Hash stored as a
// complete binary tree packed into a flat array.
package treehash

// BlockSize is the TTH leaf granularity in bytes.
const BlockSize = 1024

// NodeIdx locates a node within one layer of the tree. Leaves live in
// the layer whose size is the leaf count; each layer above halves
// (rounding up) until the root, the unique node with LayerSize == 1.
type NodeIdx struct {
	Index     uint64
	LayerSize uint64
}

// Leaf returns the NodeIdx of leaf i in a tree with the given leaf
// count.
func Leaf(i, leafCount uint64) NodeIdx {
	return NodeIdx{Index: i, LayerSize: leafCount}
}

// IsValid reports whether the index actually exists in its layer
// (layers whose size is odd have no node at the last+1 position).
func (idx NodeIdx) IsValid() bool {
	return idx.Index < idx.LayerSize
}

// IsRoot reports whether idx names the tree's root.
func (idx NodeIdx) IsRoot() bool {
	return idx.LayerSize == 1
}

// Sibling returns the other node sharing idx's parent.
func (idx NodeIdx) Sibling() NodeIdx {
	return NodeIdx{Index: idx.Index ^ 1, LayerSize: idx.LayerSize}
}

// Parent returns the parent of idx. Panics if idx is the root.
func (idx NodeIdx) Parent() NodeIdx {
	if idx.IsRoot() {
		panic("treehash: root node has no parent")
	}
	return NodeIdx{Index: idx.Index / 2, LayerSize: ParentLayerSize(idx.LayerSize)}
}

// ParentLayerSize returns the size of the layer directly above a layer
// of the given size, or 0 if layerSize is already the root layer (size
// <= 1).
func ParentLayerSize(layerSize uint64) uint64 {
	if layerSize > 1 {
		return (layerSize + 1) / 2
	}
	return 0
}

// TreeSize returns the total number of nodes in a tree with the given
// leaf count, including every layer up to and including the root.
func TreeSize(leafs uint64) uint64 {
	if leafs > 1 {
		return leafs + TreeSize(ParentLayerSize(leafs))
	}
	return leafs
}

// BottomLayerSize inverts TreeSize: given the total node count of a
// tree, returns its leaf count. Panics if total does not correspond to
// any valid tree size.
func BottomLayerSize(total uint64) uint64 {
	if total <= 1 {
		return total
	}
	lo, hi := uint64(1), total
	for lo < hi {
		mid := lo + (hi-lo)/2
		if TreeSize(mid) < total {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if TreeSize(lo) != total {
		panic("treehash: total does not correspond to a valid tree size")
	}
	return lo
}

// layerOffset returns the index of the first node of a layer with the
// given size within the flat, array-packed storage. The formula
// mirrors the original TreeStore::operator[] exactly: offset =
// TreeSize(ParentLayerSize(layerSize)). Because TreeSize(leafs) =
// leafs + TreeSize(parent), this places the root at offset 0 and the
// leaf layer at the highest offsets — "root last" in the design notes
// refers to the order nodes become SET (leaves hash first, the root
// completes last), not their array position.
func layerOffset(layerSize uint64) uint64 {
	return TreeSize(ParentLayerSize(layerSize))
}

// storageIndex maps idx to its absolute position in the flat node
// array for a tree with the given leaf count.
func storageIndex(idx NodeIdx) uint64 {
	return layerOffset(idx.LayerSize) + idx.Index
}

// LeafCount returns the number of BLOCKSIZE leaves needed to cover a
// file of the given byte size. A zero-byte file still has one leaf
// (the empty leaf), matching the "minimum 1" rule in the data model.
func LeafCount(sizeBytes uint64) uint64 {
	if sizeBytes == 0 {
		return 1
	}
	return (sizeBytes + BlockSize - 1) / BlockSize
}
