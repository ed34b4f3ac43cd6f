// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Deadline is a fixed point in time computed from a Clock, used to
// carry a forwarding or read budget across goroutine boundaries. Each
// check compares the clock's current time against that point.
type Deadline struct {
	clock Clock
	at    time.Time
}

// NewDeadline returns a Deadline that expires after budget elapses from
// the clock's current time. A non-positive budget produces a Deadline
// that has already expired.
func NewDeadline(c Clock, budget time.Duration) Deadline {
	return Deadline{clock: c, at: c.Now().Add(budget)}
}

// Remaining returns the time left until the deadline. Negative or zero
// means the deadline has passed.
func (d Deadline) Remaining() time.Duration {
	return d.at.Sub(d.clock.Now())
}

// Expired reports whether the deadline has already passed.
func (d Deadline) Expired() bool {
	return d.Remaining() <= 0
}

// Shrink returns a new Deadline moved earlier by margin, matching the
// forwarding budget rule of subtracting a fixed grace margin before
// handing a deadline to a downstream peer.
func (d Deadline) Shrink(margin time.Duration) Deadline {
	return Deadline{clock: d.clock, at: d.at.Add(-margin)}
}
