// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package treehash

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/sys/unix"
)

// MetaStore is a memory-mapped file holding a flat array of TigerNode
// records. Reads go through a read-only memory map for zero-syscall
// overhead; writes use pwrite to avoid triggering read-before-write
// page faults on the mapping.
//
// MetaStore is safe for concurrent use: Get calls are lock-free (they
// read the memory map directly); Put calls must be serialized by the
// caller, matching the single-writer contract of a StoredAsset's
// per-asset mutex.
type MetaStore struct {
	fd        int
	data      []byte // mmap'd MAP_SHARED, PROT_READ
	nodeCount int64
}

// OpenMetaStore opens or creates a meta file at path sized to hold
// exactly nodeCount nodes. A newly created file, or an existing empty
// one, is extended to that size and zero-filled, which decodes to
// all-EMPTY nodes. If the file already exists with a non-zero size
// other than nodeCount*NodeSize, an error is returned — the caller's
// node count must match what is already on disk.
func OpenMetaStore(path string, nodeCount int64) (*MetaStore, error) {
	if nodeCount <= 0 {
		return nil, fmt.Errorf("treehash: node count must be positive, got %d", nodeCount)
	}
	wantSize := nodeCount * NodeSize

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening meta store %s: %w", path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stating meta store: %w", err)
	}

	if stat.Size == 0 {
		if err := unix.Ftruncate(fd, wantSize); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("truncating new meta store to %d bytes: %w", wantSize, err)
		}
	} else if stat.Size != wantSize {
		unix.Close(fd)
		return nil, fmt.Errorf("meta store %s is %d bytes but %d (%d nodes) was requested",
			path, stat.Size, wantSize, nodeCount)
	}

	data, err := unix.Mmap(fd, 0, int(wantSize), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("memory-mapping meta store: %w", err)
	}

	return &MetaStore{fd: fd, data: data, nodeCount: nodeCount}, nil
}

// NodeCount returns the number of node slots backing this store.
func (m *MetaStore) NodeCount() int64 { return m.nodeCount }

// Get reads the node at absolute index i.
func (m *MetaStore) Get(i uint64) (node Node, err error) {
	if int64(i) >= m.nodeCount {
		return Node{}, fmt.Errorf("treehash: node index %d out of range (count %d)", i, m.nodeCount)
	}

	off := int64(i) * NodeSize

	// Guard against page faults from I/O errors on the underlying
	// storage (e.g. disk failure) so a SIGBUS does not crash the
	// process.
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			err = fmt.Errorf("page fault reading meta store at node %d: %v", i, r)
		}
	}()

	node = DecodeNode(m.data[off : off+NodeSize])
	return node, nil
}

// Put durably writes the node at absolute index i. Writes are assumed
// single-writer; callers serialize concurrent Put calls themselves.
func (m *MetaStore) Put(i uint64, node Node) error {
	if int64(i) >= m.nodeCount {
		return fmt.Errorf("treehash: node index %d out of range (count %d)", i, m.nodeCount)
	}

	off := int64(i) * NodeSize
	encoded := node.Encode()

	buf := encoded[:]
	for len(buf) > 0 {
		written, err := unix.Pwrite(m.fd, buf, off)
		if err != nil {
			return fmt.Errorf("pwrite node %d: %w", i, err)
		}
		buf = buf[written:]
		off += int64(written)
	}
	return nil
}

// Flush makes all pending Put writes durable on the underlying
// storage.
func (m *MetaStore) Flush() error {
	return unix.Fsync(m.fd)
}

// Close unmaps the memory region and closes the underlying file
// descriptor.
func (m *MetaStore) Close() error {
	var firstErr error
	if err := unix.Munmap(m.data); err != nil {
		firstErr = fmt.Errorf("unmapping meta store: %w", err)
	}
	if err := unix.Close(m.fd); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing meta store fd: %w", err)
	}
	m.data = nil
	m.fd = -1
	return firstErr
}
