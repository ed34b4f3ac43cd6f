// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

// Package randomaccess provides positional read/write access to files
// of a known, fixed-at-open size.
package randomaccess

import (
	"fmt"
	"os"
)

// Mode selects the access pattern a File is opened with.
type Mode int

const (
	// ReadOnly opens an existing file for reads only.
	ReadOnly Mode = iota
	// WriteOnly opens or creates a file for writes only.
	WriteOnly
	// ReadWrite opens or creates a file for both reads and writes.
	ReadWrite
)

// File is a positional read/write handle over a file whose logical
// size is fixed at Open time and never changes for the lifetime of the
// handle.
type File struct {
	f    *os.File
	size int64
}

// Open opens path in the given mode. desiredSize controls how the
// logical size is determined:
//
//   - If the file does not exist and mode allows writing, it is
//     created and truncated to desiredSize.
//   - If it exists and desiredSize is 0, the on-disk size is adopted.
//   - If it exists and desiredSize is non-zero but differs from the
//     on-disk size, Open fails with an error identifying the mismatch.
func Open(path string, mode Mode, desiredSize int64) (*File, error) {
	var flag int
	switch mode {
	case ReadOnly:
		flag = os.O_RDONLY
	case WriteOnly:
		flag = os.O_WRONLY | os.O_CREATE
	case ReadWrite:
		flag = os.O_RDWR | os.O_CREATE
	default:
		return nil, fmt.Errorf("randomaccess: invalid mode %d", mode)
	}

	_, statErr := os.Stat(path)
	existed := statErr == nil

	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stating %s: %w", path, err)
	}

	onDisk := info.Size()
	var size int64
	switch {
	case !existed:
		size = desiredSize
		if size != 0 {
			if err := f.Truncate(size); err != nil {
				f.Close()
				return nil, fmt.Errorf("truncating %s to %d bytes: %w", path, size, err)
			}
		}
	case desiredSize == 0:
		size = onDisk
	case desiredSize != onDisk:
		f.Close()
		return nil, fmt.Errorf("randomaccess: %s exists with mismatching size: on-disk %d, requested %d",
			path, onDisk, desiredSize)
	default:
		size = onDisk
	}

	return &File{f: f, size: size}, nil
}

// Size returns the file's authoritative logical size, fixed at Open
// time.
func (f *File) Size() int64 { return f.size }

// ReadAt reads len(p) bytes starting at offset off. Precondition:
// off+len(p) <= Size().
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > f.size {
		return 0, fmt.Errorf("randomaccess: read [%d,%d) exceeds size %d", off, off+int64(len(p)), f.size)
	}
	return f.f.ReadAt(p, off)
}

// WriteAt writes all of p starting at offset off. Fails if the
// underlying write is short.
func (f *File) WriteAt(p []byte, off int64) error {
	n, err := f.f.WriteAt(p, off)
	if err != nil {
		return fmt.Errorf("randomaccess: write at offset %d: %w", off, err)
	}
	if n != len(p) {
		return fmt.Errorf("randomaccess: short write at offset %d: wrote %d of %d bytes", off, n, len(p))
	}
	return nil
}

// Sync flushes pending writes to the underlying storage.
func (f *File) Sync() error {
	return f.f.Sync()
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}
