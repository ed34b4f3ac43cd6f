// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bithorde/bithorded/internal/treehash"
	"github.com/bithorde/bithorded/lib/clock"
)

func newTestAsset(t *testing.T, size uint64) (*StoredAsset, *Dispatcher) {
	t.Helper()
	dir := t.TempDir()
	dispatcher := NewDispatcher(4)
	t.Cleanup(dispatcher.Close)

	a, err := CreateStoredAsset(dir, filepath.Join(dir, "data"), filepath.Join(dir, "meta"), size, dispatcher, nil)
	if err != nil {
		t.Fatalf("CreateStoredAsset: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, dispatcher
}

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestIngestAndServe(t *testing.T) {
	const size = 3072
	a, _ := newTestAsset(t, size)

	payload := bytes.Repeat([]byte{0xAA}, size)
	for off := uint64(0); off < size; off += 512 {
		end := off + 512
		if end > size {
			end = size
		}
		if err := a.file.WriteAt(payload[off:end], int64(off)); err != nil {
			t.Fatalf("WriteAt: %v", err)
		}
	}

	var completed sync.WaitGroup
	completed.Add(1)
	a.OnStatusChange(func(*StoredAsset) { completed.Done() })

	a.NotifyValidRange(0, size)

	done := make(chan struct{})
	go func() { completed.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("hashing did not complete in time")
	}

	if n := a.CanRead(0, 1024); n != 1024 {
		t.Errorf("CanRead(0, 1024) = %d, want 1024", n)
	}

	var got []byte
	a.AsyncRead(0, 1024, clock.NewDeadline(clock.Real(), time.Second), func(b []byte) { got = b })
	if !bytes.Equal(got, payload[:1024]) {
		t.Error("AsyncRead did not return the expected bytes")
	}

	if _, ok := a.GetIDs(); !ok {
		t.Error("GetIDs should report true once the root is SET")
	}
}

func TestPartialHashCanRead(t *testing.T) {
	const size = 5 * 1024
	a, _ := newTestAsset(t, size)

	payload := bytes.Repeat([]byte{0xBB}, size)
	if err := a.file.WriteAt(payload, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	// Hash only the first two blocks.
	a.NotifyValidRange(0, 2*treehash.BlockSize)

	waitForCondition(t, 2*time.Second, func() bool {
		set0, _ := a.hasher.IsBlockSet(0)
		set1, _ := a.hasher.IsBlockSet(1)
		return set0 && set1
	})

	if n := a.CanRead(512, 4096); n != 2*1024-512 {
		t.Errorf("CanRead(512, 4096) = %d, want %d", n, 2*1024-512)
	}
}

func TestCanReadZeroWhenFirstBlockUnset(t *testing.T) {
	a, _ := newTestAsset(t, 4096)
	if n := a.CanRead(0, 1024); n != 0 {
		t.Errorf("CanRead on unhashed asset = %d, want 0", n)
	}
}

func TestSizeMismatchThenReopenWithZero(t *testing.T) {
	dir := t.TempDir()
	dispatcher := NewDispatcher(2)
	defer dispatcher.Close()

	dataPath := filepath.Join(dir, "data")
	metaPath := filepath.Join(dir, "meta")

	created, err := CreateStoredAsset(dir, dataPath, metaPath, 800, dispatcher, nil)
	if err != nil {
		t.Fatalf("CreateStoredAsset: %v", err)
	}
	created.Close()

	if _, err := CreateStoredAsset(dir, dataPath, metaPath+"2", 1000, dispatcher, nil); err == nil {
		t.Fatal("expected mismatched explicit size to fail")
	}

	reopened, err := OpenStoredAsset(dir, dataPath, metaPath, dispatcher, nil)
	if err != nil {
		t.Fatalf("OpenStoredAsset: %v", err)
	}
	defer reopened.Close()

	if reopened.Size() != 800 {
		t.Errorf("Size() = %d, want 800", reopened.Size())
	}
}
