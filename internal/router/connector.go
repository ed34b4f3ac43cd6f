// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bithorde/bithorded/lib/clock"
)

// ReconnectInterval is the base backoff between dial attempts for an
// actively-dialed friend.
const ReconnectInterval = 5 * time.Second

type connectorState int

const (
	stateResolving connectorState = iota
	stateConnecting
	stateConnected
	stateBackoff
	stateCancelled
)

// FriendConnector owns the dial/handshake/backoff cycle for one
// actively-dialed friend. Once connected, it hands the live Client to
// the Router, whose onConnected cancels and drops the connector
// registered under the client's peer name; the doubled redial scheduled
// afterwards therefore only runs if no connector was cancelled that
// way. On disconnect, Router starts a fresh connector immediately.
type FriendConnector struct {
	friend Friend
	router *Router
	clock  clock.Clock
	dialer Dialer
	hookup HookupFunc
	logger *slog.Logger

	mu        sync.Mutex
	state     connectorState
	cancelled bool
	timer     *clock.Timer
}

func newFriendConnector(friend Friend, router *Router, clk clock.Clock, dialer Dialer, hookup HookupFunc, logger *slog.Logger) *FriendConnector {
	return &FriendConnector{
		friend: friend,
		router: router,
		clock:  clk,
		dialer: dialer,
		hookup: hookup,
		logger: logger,
	}
}

func (c *FriendConnector) start() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.state = stateResolving
	c.mu.Unlock()

	go c.attempt()
}

func (c *FriendConnector) attempt() {
	c.setState(stateConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), ReconnectInterval)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, c.address())
	if err != nil {
		c.logger.Debug("friend dial failed", "friend", c.friend.Name, "error", err)
		c.scheduleRestart(ReconnectInterval)
		return
	}

	client, err := c.hookup(ctx, conn, c.friend)
	if err != nil {
		conn.Close()
		c.logger.Debug("friend hookup failed", "friend", c.friend.Name, "error", err)
		c.scheduleRestart(ReconnectInterval)
		return
	}

	c.setState(stateConnected)
	c.router.onConnected(client)

	// Schedule a redial on a doubled interval. If onConnected above
	// cancelled this connector (the client's peer name matched the
	// friend's name), scheduleRestart does nothing.
	c.scheduleRestart(2 * ReconnectInterval)
}

func (c *FriendConnector) scheduleRestart(delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return
	}
	c.state = stateBackoff
	c.timer = c.clock.AfterFunc(delay, c.start)
}

// cancel idempotently stops the connector and any pending redial
// timer. Safe to call more than once.
func (c *FriendConnector) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return
	}
	c.cancelled = true
	c.state = stateCancelled
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *FriendConnector) setState(s connectorState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *FriendConnector) currentState() connectorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *FriendConnector) address() string {
	return fmt.Sprintf("%s:%d", c.friend.Addr, c.friend.Port)
}
