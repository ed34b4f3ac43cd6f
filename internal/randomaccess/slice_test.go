// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package randomaccess

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestSliceReadWriteRelativeOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	f, err := Open(path, ReadWrite, 1000)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	slice := NewSlice(f, 200, 100)

	payload := bytes.Repeat([]byte{0x7F}, 50)
	if err := slice.WriteAt(payload, 10); err != nil {
		t.Fatalf("slice.WriteAt: %v", err)
	}

	got := make([]byte, 50)
	if _, err := f.ReadAt(got, 210); err != nil {
		t.Fatalf("f.ReadAt: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("slice write did not land at the backing file's absolute offset")
	}
}

func TestSlicePanicsOutOfBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	f, err := Open(path, ReadWrite, 100)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("expected NewSlice to panic for an out-of-bounds range")
		}
	}()
	NewSlice(f, 50, 100)
}
