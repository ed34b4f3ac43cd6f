// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

// Package mgmt hosts the daemon's local management/inspect interface:
// a Unix-socket query server exposing exactly two actions, describe
// and inspect. This is not the BindRead/BindWrite client protocol —
// that wire format belongs to an external protocol layer — it exists
// only to give the describe/inspect methods every component already
// needs a concrete surface to be called through.
package mgmt

import (
	"context"
	"log/slog"

	"github.com/bithorde/bithorded/internal/assetstore"
	"github.com/bithorde/bithorded/internal/router"
	"github.com/bithorde/bithorded/lib/service"
)

// Describer summarizes a component's state as a short string.
type Describer interface {
	Describe() string
}

// DescribeResponse is the describe action's data payload: one summary
// line per registered component, in registration order.
type DescribeResponse struct {
	Summaries []string `cbor:"summaries"`
}

// InspectResponse is the inspect action's data payload.
type InspectResponse struct {
	Assets  []assetstore.AssetInfo `cbor:"assets"`
	Friends []router.FriendInfo    `cbor:"friends"`
}

// Server wires the store's and router's describe/inspect methods onto
// a service.SocketServer.
type Server struct {
	socket *service.SocketServer
	store  *assetstore.Store
	router *router.Router
}

// NewServer constructs the management socket server. Call Serve to
// start accepting connections.
func NewServer(socketPath string, store *assetstore.Store, r *router.Router, logger *slog.Logger) *Server {
	s := &Server{
		socket: service.NewSocketServer(socketPath, logger),
		store:  store,
		router: r,
	}
	s.socket.Handle("describe", s.handleDescribe)
	s.socket.Handle("inspect", s.handleInspect)
	return s
}

// Serve blocks accepting connections until ctx is cancelled, matching
// service.SocketServer.Serve's contract.
func (s *Server) Serve(ctx context.Context) error {
	return s.socket.Serve(ctx)
}

func (s *Server) handleDescribe(ctx context.Context, raw []byte) (any, error) {
	return DescribeResponse{
		Summaries: []string{s.store.Describe(), s.router.Describe()},
	}, nil
}

func (s *Server) handleInspect(ctx context.Context, raw []byte) (any, error) {
	return InspectResponse{
		Assets:  s.store.Inspect(),
		Friends: s.router.Inspect(),
	}, nil
}
