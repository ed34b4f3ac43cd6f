// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"

	"github.com/bithorde/bithorded/lib/clock"
)

// ForwardedAsset represents a local miss being served from upstream
// friends instead. On AsyncRead it multicasts the read to every
// eligible connected peer and serves whichever answers first, within
// the deadline the Router computed when the asset was opened.
type ForwardedAsset struct {
	ids      []Identifier
	deadline clock.Deadline
	peers    []Client
}

func newForwardedAsset(ids []Identifier, deadline clock.Deadline, peers []Client) *ForwardedAsset {
	return &ForwardedAsset{ids: ids, deadline: deadline, peers: peers}
}

// Upstreams returns the number of connected peers this request may be
// forwarded to. Zero means the request has nowhere left to go.
func (f *ForwardedAsset) Upstreams() int { return len(f.peers) }

// AsyncRead multicasts a read of [offset, offset+length) to every
// eligible peer using forward, and calls cb with whichever peer
// answers first. cb is called with nil if no peer answers before the
// deadline, or if there are no eligible peers at all.
func (f *ForwardedAsset) AsyncRead(ctx context.Context, offset, length uint64, forward ForwardFunc, cb func([]byte)) {
	if f.deadline.Expired() || len(f.peers) == 0 {
		cb(nil)
		return
	}

	readCtx, cancel := context.WithTimeout(ctx, f.deadline.Remaining())
	defer cancel()

	results := make(chan []byte, len(f.peers))
	for _, peer := range f.peers {
		go func(p Client) {
			data, err := forward(readCtx, p, f.ids, offset, length)
			if err != nil {
				results <- nil
				return
			}
			results <- data
		}(peer)
	}

	for range f.peers {
		select {
		case data := <-results:
			if data != nil {
				cb(data)
				return
			}
		case <-readCtx.Done():
			cb(nil)
			return
		}
	}
	cb(nil)
}
