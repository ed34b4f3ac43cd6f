// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bithorde/bithorded/lib/clock"
)

// DefaultForwardTimeout is used when a caller's request carries no
// explicit timeout.
const DefaultForwardTimeout = 500 * time.Millisecond

// ForwardGrace is subtracted from every forwarding deadline to leave
// margin for the local reply to reach the original requester before
// its own timeout expires.
const ForwardGrace = 20 * time.Millisecond

// Router tracks configured friends, keeps actively-dialed ones
// connected, and decides which connected peers a miss on the local
// store may be forwarded to.
type Router struct {
	name string

	clock  clock.Clock
	dialer Dialer
	hookup HookupFunc
	logger *slog.Logger

	mu         sync.Mutex
	friends    map[string]Friend
	connectors map[string]*FriendConnector
	connected  map[string]Client
}

// New constructs a Router. name is this node's own peer identity, used
// by callers assembling a forwarded request's traversed-peer list.
func New(name string, dialer Dialer, hookup HookupFunc, clk clock.Clock, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Router{
		name:       name,
		clock:      clk,
		dialer:     dialer,
		hookup:     hookup,
		logger:     logger,
		friends:    make(map[string]Friend),
		connectors: make(map[string]*FriendConnector),
		connected:  make(map[string]Client),
	}
}

// Name returns this node's own peer identity.
func (r *Router) Name() string { return r.name }

// AddFriend registers a friend and, if it carries a port, starts
// dialing it immediately.
func (r *Router) AddFriend(f Friend) {
	r.mu.Lock()
	r.friends[f.Name] = f
	r.mu.Unlock()

	if f.HasPort() {
		r.startConnector(f)
	}
}

func (r *Router) startConnector(f Friend) {
	connector := newFriendConnector(f, r, r.clock, r.dialer, r.hookup, r.logger)
	r.mu.Lock()
	r.connectors[f.Name] = connector
	r.mu.Unlock()
	connector.start()
}

// onConnected adopts a freshly hooked-up client, cancelling its
// connector (a passive accept has no connector to cancel).
func (r *Router) onConnected(client Client) {
	name := client.PeerName()

	r.mu.Lock()
	if connector, ok := r.connectors[name]; ok {
		connector.cancel()
		delete(r.connectors, name)
	}
	r.connected[name] = client
	r.mu.Unlock()
}

// OnConnected is the entry point for the protocol layer to report a
// passively accepted connection (one the router did not dial itself).
func (r *Router) OnConnected(client Client) { r.onConnected(client) }

// OnDisconnected reports that a previously connected client's session
// has ended. If the client belongs to an actively-dialed friend, a
// fresh FriendConnector is started immediately.
func (r *Router) OnDisconnected(client Client) {
	name := client.PeerName()

	r.mu.Lock()
	current, ok := r.connected[name]
	if !ok || current != client {
		r.mu.Unlock()
		return
	}
	delete(r.connected, name)
	friend, known := r.friends[name]
	r.mu.Unlock()

	if known && friend.HasPort() {
		r.startConnector(friend)
	}
}

// UpstreamCount returns the number of currently connected friends.
func (r *Router) UpstreamCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connected)
}

// forwardCandidates returns the connected clients not already present
// in traversed, preventing a forwarded request from looping back
// through a peer it has already visited.
func (r *Router) forwardCandidates(traversed []string) []Client {
	seen := make(map[string]bool, len(traversed)+1)
	for _, name := range traversed {
		seen[name] = true
	}
	seen[r.name] = true

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Client, 0, len(r.connected))
	for name, client := range r.connected {
		if seen[name] {
			continue
		}
		out = append(out, client)
	}
	return out
}

// OpenAsset computes the forwarding deadline for a request that
// arrived with budget timeout (DefaultForwardTimeout if zero), and
// returns a ForwardedAsset ready to multicast reads to every eligible
// connected peer. ok is false if the deadline is already expired
// (e.g. the request traveled through slow hops before reaching here).
func (r *Router) OpenAsset(ids []Identifier, timeout time.Duration, traversed []string) (asset *ForwardedAsset, ok bool) {
	if timeout <= 0 {
		timeout = DefaultForwardTimeout
	}
	deadline := clock.NewDeadline(r.clock, timeout).Shrink(ForwardGrace)
	if deadline.Expired() {
		return nil, false
	}
	return newForwardedAsset(ids, deadline, r.forwardCandidates(traversed)), true
}
