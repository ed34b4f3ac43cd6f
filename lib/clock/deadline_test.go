// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestDeadlineExpired(t *testing.T) {
	fc := Fake(time.Unix(0, 0))

	future := NewDeadline(fc, 500*time.Millisecond)
	if future.Expired() {
		t.Fatal("deadline 500ms out should not be expired yet")
	}

	past := NewDeadline(fc, -time.Millisecond)
	if !past.Expired() {
		t.Fatal("deadline with non-positive budget should already be expired")
	}

	fc.Advance(500 * time.Millisecond)
	if !future.Expired() {
		t.Fatal("deadline should be expired after advancing past its budget")
	}
}

func TestDeadlineShrink(t *testing.T) {
	fc := Fake(time.Unix(0, 0))

	d := NewDeadline(fc, 500*time.Millisecond)
	shrunk := d.Shrink(20 * time.Millisecond)

	if shrunk.Remaining() >= d.Remaining() {
		t.Fatalf("shrunk deadline should expire sooner: shrunk=%v, original=%v",
			shrunk.Remaining(), d.Remaining())
	}
	if got, want := d.Remaining()-shrunk.Remaining(), 20*time.Millisecond; got != want {
		t.Errorf("shrink margin = %v, want %v", got, want)
	}
}
