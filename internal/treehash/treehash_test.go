// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package treehash

import (
	"path/filepath"
	"testing"

	"github.com/bithorde/bithorded/internal/tiger"
)

func TestTreeSizeLaw(t *testing.T) {
	for n := uint64(1); n < 200; n++ {
		got := TreeSize(n)
		want := n + TreeSize(ParentLayerSize(n))
		if n == 1 {
			want = 1
		}
		if got != want {
			t.Errorf("TreeSize(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestBottomLayerSizeInvertsTreeSize(t *testing.T) {
	for n := uint64(1); n < 500; n++ {
		total := TreeSize(n)
		if got := BottomLayerSize(total); got != n {
			t.Errorf("BottomLayerSize(TreeSize(%d)=%d) = %d, want %d", n, total, got, n)
		}
	}
}

func TestParentSiblingInvolutions(t *testing.T) {
	for layerSize := uint64(2); layerSize < 50; layerSize++ {
		for i := uint64(0); i < layerSize; i++ {
			idx := NodeIdx{Index: i, LayerSize: layerSize}
			sib := idx.Sibling()
			if sib.Sibling() != idx {
				t.Fatalf("sibling(sibling(%v)) != %v", idx, idx)
			}
			if sib.IsValid() && idx.Parent() != sib.Parent() {
				t.Fatalf("parent(sibling(%v))=%v != parent(%v)=%v",
					idx, sib.Parent(), idx, idx.Parent())
			}
		}
	}
}

func TestLeafCountMinimumOne(t *testing.T) {
	if LeafCount(0) != 1 {
		t.Errorf("LeafCount(0) = %d, want 1", LeafCount(0))
	}
	if LeafCount(1) != 1 {
		t.Errorf("LeafCount(1) = %d, want 1", LeafCount(1))
	}
	if LeafCount(BlockSize) != 1 {
		t.Errorf("LeafCount(BlockSize) = %d, want 1", LeafCount(BlockSize))
	}
	if LeafCount(BlockSize+1) != 2 {
		t.Errorf("LeafCount(BlockSize+1) = %d, want 2", LeafCount(BlockSize+1))
	}
}

func openTestHasher(t *testing.T, leafCount uint64) *Hasher {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meta")
	store, err := OpenMetaStore(path, int64(TreeSize(leafCount)))
	if err != nil {
		t.Fatalf("OpenMetaStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	hasher, err := NewHasher(store, leafCount)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return hasher
}

func TestSetLeafSinglePair(t *testing.T) {
	hasher := openTestHasher(t, 2)

	d0 := LeafDigest([]byte("block-zero"))
	d1 := LeafDigest([]byte("block-one"))

	if err := hasher.SetLeaf(0, d0); err != nil {
		t.Fatalf("SetLeaf(0): %v", err)
	}
	root, err := hasher.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.State == StateSet {
		t.Fatal("root became SET before both leaves were hashed")
	}

	if err := hasher.SetLeaf(1, d1); err != nil {
		t.Fatalf("SetLeaf(1): %v", err)
	}
	root, err = hasher.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.State != StateSet {
		t.Fatal("root should be SET once both leaves are hashed")
	}

	want := tiger.SumTagged(0x01, d0[:], d1[:])
	if root.Digest != want {
		t.Errorf("root digest = %x, want %x", root.Digest, want)
	}
}

func TestSetLeafUnpairedPromotion(t *testing.T) {
	// A 3-leaf tree has an unpaired trailing leaf at index 2, which
	// must promote without rehashing once its sibling slot (index 3,
	// invalid in a 3-leaf layer) is recognized as absent.
	hasher := openTestHasher(t, 3)

	d0 := LeafDigest([]byte("a"))
	d1 := LeafDigest([]byte("b"))
	d2 := LeafDigest([]byte("c"))

	for i, d := range [][DigestSize]byte{d0, d1, d2} {
		if err := hasher.SetLeaf(uint64(i), d); err != nil {
			t.Fatalf("SetLeaf(%d): %v", i, err)
		}
	}

	root, err := hasher.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.State != StateSet {
		t.Fatal("root should be SET once all leaves hashed")
	}

	topLeft := tiger.SumTagged(0x01, d0[:], d1[:])
	want := tiger.SumTagged(0x01, topLeft[:], d2[:])
	if root.Digest != want {
		t.Errorf("root digest = %x, want %x", root.Digest, want)
	}
}

// TestAgainstPublishedTTHVectors mirrors the tiger package's skipped
// conformance gate one layer up: it hashes whole files (empty, a
// single byte, a 1025-byte file crossing one leaf boundary, a 2 MiB
// file spanning many) and checks the resulting root against the
// canonical Tiger Tree Hash. It stays skipped for the same reason —
// internal/tiger.sbox is still a placeholder table, so every root
// computed here is internally consistent but not canonical. Un-skip
// once that table is real.
func TestAgainstPublishedTTHVectors(t *testing.T) {
	t.Skip("blocked on internal/tiger carrying the real S-box table")

	sizes := []uint64{0, 1, 1025, 2 * 1024 * 1024}
	for _, size := range sizes {
		leafCount := LeafCount(size)
		hasher := openTestHasher(t, leafCount)
		for i := uint64(0); i < leafCount; i++ {
			blockLen := uint64(BlockSize)
			if (i+1)*BlockSize > size {
				blockLen = size - i*BlockSize
			}
			block := make([]byte, blockLen)
			if err := hasher.SetLeaf(i, LeafDigest(block)); err != nil {
				t.Fatalf("SetLeaf(%d): %v", i, err)
			}
		}
		root, err := hasher.Root()
		if err != nil {
			t.Fatalf("Root: %v", err)
		}
		t.Logf("size=%d root=%x", size, root.Digest)
	}
}

func TestIsBlockSetReflectsState(t *testing.T) {
	hasher := openTestHasher(t, 2)

	set, err := hasher.IsBlockSet(0)
	if err != nil {
		t.Fatalf("IsBlockSet: %v", err)
	}
	if set {
		t.Fatal("leaf should start EMPTY")
	}

	if err := hasher.SetLeaf(0, LeafDigest([]byte("x"))); err != nil {
		t.Fatalf("SetLeaf: %v", err)
	}

	set, err = hasher.IsBlockSet(0)
	if err != nil {
		t.Fatalf("IsBlockSet: %v", err)
	}
	if !set {
		t.Fatal("leaf should be SET after SetLeaf")
	}
}
