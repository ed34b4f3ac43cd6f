// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bithorde/bithorded/internal/randomaccess"
	"github.com/bithorde/bithorded/internal/treehash"
	"github.com/bithorde/bithorded/lib/clock"
)

// MaxChunk is the largest number of bytes CanRead will ever report
// valid in a single call.
const MaxChunk = 64 * 1024

// ParallelHashJobs bounds how many block-hash units may be in flight
// at once for a single asset's hashing pipeline.
const ParallelHashJobs = 64

// StoredAsset is a file plus its tree metadata: ranged reads are
// gated by which BLOCKSIZE blocks have been hash-validated so far.
type StoredAsset struct {
	logger *slog.Logger
	folder string

	file   *randomaccess.File
	meta   *treehash.MetaStore
	hasher *treehash.Hasher

	size      uint64
	leafCount uint64

	dispatcher *Dispatcher

	mu             sync.Mutex
	statusReported bool
	onComplete     func(*StoredAsset)
}

func newStoredAsset(folder string, file *randomaccess.File, meta *treehash.MetaStore, hasher *treehash.Hasher, leafCount uint64, dispatcher *Dispatcher, logger *slog.Logger) *StoredAsset {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoredAsset{
		logger:     logger,
		folder:     folder,
		file:       file,
		meta:       meta,
		hasher:     hasher,
		size:       uint64(file.Size()),
		leafCount:  leafCount,
		dispatcher: dispatcher,
	}
}

// OpenStoredAsset opens an existing asset folder's data and meta
// files. The data file's on-disk size is adopted as the asset's size.
func OpenStoredAsset(folder, dataPath, metaPath string, dispatcher *Dispatcher, logger *slog.Logger) (*StoredAsset, error) {
	file, err := randomaccess.Open(dataPath, randomaccess.ReadWrite, 0)
	if err != nil {
		return nil, fmt.Errorf("asset: opening data file: %w", err)
	}

	leafCount := treehash.LeafCount(uint64(file.Size()))
	meta, err := treehash.OpenMetaStore(metaPath, int64(treehash.TreeSize(leafCount)))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("asset: opening meta store: %w", err)
	}

	hasher, err := treehash.NewHasher(meta, leafCount)
	if err != nil {
		file.Close()
		meta.Close()
		return nil, fmt.Errorf("asset: constructing hasher: %w", err)
	}

	return newStoredAsset(folder, file, meta, hasher, leafCount, dispatcher, logger), nil
}

// CreateStoredAsset creates a new asset folder's data and meta files
// for a file of the given explicit size.
func CreateStoredAsset(folder, dataPath, metaPath string, size uint64, dispatcher *Dispatcher, logger *slog.Logger) (*StoredAsset, error) {
	file, err := randomaccess.Open(dataPath, randomaccess.ReadWrite, int64(size))
	if err != nil {
		return nil, fmt.Errorf("asset: creating data file: %w", err)
	}

	leafCount := treehash.LeafCount(size)
	meta, err := treehash.OpenMetaStore(metaPath, int64(treehash.TreeSize(leafCount)))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("asset: creating meta store: %w", err)
	}

	hasher, err := treehash.NewHasher(meta, leafCount)
	if err != nil {
		file.Close()
		meta.Close()
		return nil, fmt.Errorf("asset: constructing hasher: %w", err)
	}

	return newStoredAsset(folder, file, meta, hasher, leafCount, dispatcher, logger), nil
}

// Size returns the data file's fixed byte length.
func (a *StoredAsset) Size() uint64 { return a.size }

// Folder returns the asset folder path this StoredAsset was opened
// from.
func (a *StoredAsset) Folder() string { return a.folder }

// OnStatusChange registers a callback invoked exactly once, the first
// time the root digest becomes SET.
func (a *StoredAsset) OnStatusChange(cb func(*StoredAsset)) {
	a.mu.Lock()
	a.onComplete = cb
	a.mu.Unlock()
}

// CanRead returns the largest prefix k <= min(length, MaxChunk) of
// [offset, offset+length) such that every BLOCKSIZE block intersecting
// [offset, offset+k) is hash-validated. Returns 0 if the block
// containing offset is not yet validated.
func (a *StoredAsset) CanRead(offset, length uint64) uint64 {
	if offset >= a.size || length == 0 {
		return 0
	}
	if length > MaxChunk {
		length = MaxChunk
	}
	end := offset + length
	if end > a.size {
		end = a.size
	}

	var valid uint64
	for cursor := offset; cursor < end; {
		block := cursor / treehash.BlockSize
		set, err := a.hasher.IsBlockSet(block)
		if err != nil || !set {
			break
		}
		blockEnd := (block + 1) * treehash.BlockSize
		if blockEnd > end {
			blockEnd = end
		}
		valid += blockEnd - cursor
		cursor = blockEnd
	}
	return valid
}

// AsyncRead invokes cb with at most CanRead(offset, length) validated
// bytes, or nil if no prefix of the range is validated. Reads never
// return bytes that have not been integrity-checked. deadline mirrors
// the budget a caller forwarding a request across peers would pass
// through; local reads complete well within any realistic budget, but
// an already-expired deadline still short-circuits the read.
func (a *StoredAsset) AsyncRead(offset, length uint64, deadline clock.Deadline, cb func([]byte)) {
	if deadline.Expired() {
		cb(nil)
		return
	}

	n := a.CanRead(offset, length)
	if n == 0 {
		cb(nil)
		return
	}
	buf := make([]byte, n)
	if _, err := a.file.ReadAt(buf, int64(offset)); err != nil {
		a.logger.Error("asset read failed", "folder", a.folder, "offset", offset, "error", err)
		cb(nil)
		return
	}
	cb(buf)
}

// NotifyValidRange schedules hashing for [offset, offset+length),
// rounded to BLOCKSIZE boundaries: offset rounds up, the end rounds
// down unless it coincides with the asset's size (in which case the
// trailing short block is included).
func (a *StoredAsset) NotifyValidRange(offset, length uint64) {
	end := offset + length
	if end > a.size {
		end = a.size
	}

	roundedOffset := ((offset + treehash.BlockSize - 1) / treehash.BlockSize) * treehash.BlockSize
	var roundedEnd uint64
	if end == a.size {
		roundedEnd = end
	} else {
		roundedEnd = (end / treehash.BlockSize) * treehash.BlockSize
	}
	if roundedOffset >= roundedEnd {
		return
	}

	startLeaf := roundedOffset / treehash.BlockSize
	endLeaf := (roundedEnd + treehash.BlockSize - 1) / treehash.BlockSize
	a.updateHash(startLeaf, endLeaf)
}

// GetIDs returns the asset's TTH root digest, with ok true iff the
// root is SET.
func (a *StoredAsset) GetIDs() (digest [treehash.DigestSize]byte, ok bool) {
	root, err := a.hasher.Root()
	if err != nil || root.State != treehash.StateSet {
		return digest, false
	}
	return root.Digest, true
}

// Close flushes metadata and releases the underlying files.
func (a *StoredAsset) Close() error {
	if err := a.meta.Flush(); err != nil {
		a.logger.Error("meta flush failed", "folder", a.folder, "error", err)
	}
	if err := a.meta.Close(); err != nil {
		return err
	}
	return a.file.Close()
}

func (a *StoredAsset) readBlock(leaf uint64) ([]byte, error) {
	offset := leaf * treehash.BlockSize
	length := uint64(treehash.BlockSize)
	if offset+length > a.size {
		length = a.size - offset
	}
	buf := make([]byte, length)
	if _, err := a.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("reading block %d: %w", leaf, err)
	}
	return buf, nil
}

func (a *StoredAsset) updateStatus() {
	root, err := a.hasher.Root()
	if err != nil || root.State != treehash.StateSet {
		return
	}

	a.mu.Lock()
	if a.statusReported {
		a.mu.Unlock()
		return
	}
	a.statusReported = true
	cb := a.onComplete
	a.mu.Unlock()

	if err := a.meta.Flush(); err != nil {
		a.logger.Error("meta flush on completion failed", "folder", a.folder, "error", err)
	}
	if cb != nil {
		cb(a)
	}
}
