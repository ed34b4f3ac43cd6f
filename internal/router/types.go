// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

// Package router maintains connections to configured friend peers and
// forwards asset requests the local store cannot satisfy upstream,
// within a deadline budget. The BitHorde wire protocol itself (how a
// BindRead is encoded, dispatched, and replied to on the network) is
// an external collaborator — this package only models the connection
// lifecycle and the forwarding decision, through the minimal Client,
// Dialer, and HookupFunc seams the protocol layer plugs into.
package router

import (
	"context"
	"net"
)

// Identifier is one entry of a BitHordeIds set: a hash family and its
// bytes. Only TREE_TIGER is ever verified by this core; other families
// are carried and indexed but not trusted.
type Identifier struct {
	HashType string
	Bytes    []byte
}

// Friend is a statically configured upstream peer. A Friend with no
// Port is passive: it is never dialed, only accepted from.
type Friend struct {
	Name string
	Addr string
	Port int
}

// HasPort reports whether this friend should be actively dialed.
func (f Friend) HasPort() bool { return f.Port != 0 }

// Client is a live session with a connected friend, as produced by the
// protocol layer once a handshake completes.
type Client interface {
	// PeerName returns the remote friend's configured name.
	PeerName() string
}

// Dialer opens a transport connection to a friend's address. Modeled
// on the teacher corpus's plain-TCP dialer: friend connections are
// direct TCP, with no NAT traversal in scope.
type Dialer interface {
	DialContext(ctx context.Context, address string) (net.Conn, error)
}

// HookupFunc performs the protocol handshake over a freshly dialed
// connection and returns a live Client, or an error if the handshake
// failed (triggering another backoff cycle). The wire format itself is
// owned by the protocol layer, not this package.
type HookupFunc func(ctx context.Context, conn net.Conn, friend Friend) (Client, error)

// ForwardFunc issues one forwarded read against a connected peer and
// returns the validated bytes it answered with, or an error/timeout if
// it did not answer in time. Like HookupFunc, the actual BindRead wire
// call belongs to the protocol layer.
type ForwardFunc func(ctx context.Context, peer Client, ids []Identifier, offset, length uint64) ([]byte, error)
