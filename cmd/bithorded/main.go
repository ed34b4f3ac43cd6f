// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

// Bithorded is a content-addressed asset-serving daemon. It hashes
// ingested files into a Tiger Tree, serves ranged reads gated on
// block-level integrity, and forwards requests its local store cannot
// satisfy to a configured set of upstream friend peers.
//
// On startup:
//  1. Loads and validates the YAML configuration file named by -config.
//  2. Opens (or creates) the AssetStore rooted at the configured
//     base directory.
//  3. Starts the Router and begins dialing every actively-configured
//     friend.
//  4. Serves the local management/inspect socket.
//  5. Blocks until SIGINT/SIGTERM, then shuts down in reverse order.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/bithorde/bithorded/internal/asset"
	"github.com/bithorde/bithorded/internal/assetstore"
	"github.com/bithorde/bithorded/internal/config"
	"github.com/bithorde/bithorded/internal/mgmt"
	"github.com/bithorde/bithorded/internal/router"
	"github.com/bithorde/bithorded/lib/clock"
	"github.com/bithorde/bithorded/lib/version"
)

// unimplementedWireProtocol stands in for the BindRead/BindWrite wire
// handshake, which is an explicitly out-of-scope external collaborator
// (see the Router package doc). It satisfies router.Dialer and
// provides the router.HookupFunc signature so the daemon can still
// construct a Router and serve the management socket; friend dialing
// will simply keep failing and backing off until a real protocol
// layer is wired in to replace this type.
type unimplementedWireProtocol struct{}

func (unimplementedWireProtocol) DialContext(ctx context.Context, address string) (net.Conn, error) {
	return net.Dial("tcp", address)
}

func (unimplementedWireProtocol) hookup(ctx context.Context, conn net.Conn, friend router.Friend) (router.Client, error) {
	conn.Close()
	return nil, errors.New("wire protocol handshake not implemented")
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to the daemon's YAML configuration file (required)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("bithorded %s\n", version.Info())
		return nil
	}

	if configPath == "" {
		return fmt.Errorf("-config is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureBaseDir(); err != nil {
		return fmt.Errorf("preparing base directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := asset.NewDispatcher(cfg.CPUWorkers)
	defer dispatcher.Close()

	store, err := assetstore.Open(cfg.BaseDir, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("opening asset store: %w", err)
	}

	wire := unimplementedWireProtocol{}
	r := router.New(cfg.Name, wire, wire.hookup, clock.Real(), logger)
	for _, f := range cfg.Friends {
		r.AddFriend(router.Friend{Name: f.Name, Addr: f.Address, Port: f.Port})
	}

	srv := mgmt.NewServer(cfg.ManagementSocket, store, r, logger)

	logger.Info("bithorded starting",
		"base_dir", cfg.BaseDir,
		"management_socket", cfg.ManagementSocket,
		"friends", len(cfg.Friends),
	)

	err = srv.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("management socket serve: %w", err)
	}

	logger.Info("bithorded shutting down")
	return nil
}
