// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"sync"

	"github.com/bithorde/bithorded/internal/treehash"
)

// hashTail is the descriptor for one run of the hashing pipeline: the
// remaining leaf range [next, end) still to be hashed, and a count of
// jobs currently in flight. It strongly owns the asset for the
// duration of the tail; once the range is exhausted and the last job
// completes, the tail is dropped and the reference released, breaking
// what would otherwise be a self-referential ownership cycle between
// the asset, its hasher, and the completion closures.
type hashTail struct {
	asset *StoredAsset

	mu          sync.Mutex
	next        uint64
	end         uint64
	outstanding int
}

type hashJobResult struct {
	leaf   uint64
	digest [treehash.DigestSize]byte
	err    error
}

// updateHash launches up to ParallelHashJobs initial units over the
// leaf range [startLeaf, endLeaf).
func (a *StoredAsset) updateHash(startLeaf, endLeaf uint64) {
	if startLeaf >= endLeaf {
		return
	}

	tail := &hashTail{asset: a, next: startLeaf, end: endLeaf}

	launch := uint64(ParallelHashJobs)
	if remaining := endLeaf - startLeaf; launch > remaining {
		launch = remaining
	}
	for i := uint64(0); i < launch; i++ {
		tail.launchNext()
	}
}

// launchNext claims the next unhashed leaf in the tail's range and
// submits a job to hash it, if any remain.
func (t *hashTail) launchNext() {
	t.mu.Lock()
	if t.next >= t.end {
		t.mu.Unlock()
		return
	}
	leaf := t.next
	t.next++
	t.outstanding++
	t.mu.Unlock()

	asset := t.asset
	asset.dispatcher.Submit(func() any {
		block, err := asset.readBlock(leaf)
		if err != nil {
			return hashJobResult{leaf: leaf, err: err}
		}
		return hashJobResult{leaf: leaf, digest: treehash.LeafDigest(block)}
	}, func(raw any) {
		t.onComplete(raw.(hashJobResult))
	})
}

// onComplete runs on the dispatcher's IO thread: it stores the leaf
// digest (propagating toward the root), launches a replacement job if
// range remains, and once the tail is fully drained, surfaces
// completion to the asset.
func (t *hashTail) onComplete(result hashJobResult) {
	asset := t.asset

	if result.err != nil {
		asset.logger.Error("hash block failed", "folder", asset.folder, "leaf", result.leaf, "error", result.err)
	} else if err := asset.hasher.SetLeaf(result.leaf, result.digest); err != nil {
		asset.logger.Error("set leaf failed", "folder", asset.folder, "leaf", result.leaf, "error", err)
	}

	t.mu.Lock()
	t.outstanding--
	exhausted := t.outstanding == 0 && t.next >= t.end
	t.mu.Unlock()

	if exhausted {
		asset.updateStatus()
		return
	}
	t.launchNext()
}
