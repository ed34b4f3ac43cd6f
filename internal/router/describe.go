// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package router

import "fmt"

// Describe returns a short human-readable summary of the router's
// connection state, suitable for a management-socket describe
// response.
func (r *Router) Describe() string {
	r.mu.Lock()
	friends, connected := len(r.friends), len(r.connected)
	r.mu.Unlock()
	return fmt.Sprintf("router %q: %d/%d friend(s) connected", r.name, connected, friends)
}

// FriendInfo is one row of a structured inspect response.
type FriendInfo struct {
	Name      string `cbor:"name"`
	Address   string `cbor:"address,omitempty"`
	Port      int    `cbor:"port,omitempty"`
	Passive   bool   `cbor:"passive"`
	Connected bool   `cbor:"connected"`
}

// Inspect returns one FriendInfo per configured friend.
func (r *Router) Inspect() []FriendInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]FriendInfo, 0, len(r.friends))
	for name, f := range r.friends {
		_, connected := r.connected[name]
		out = append(out, FriendInfo{
			Name:      f.Name,
			Address:   f.Addr,
			Port:      f.Port,
			Passive:   !f.HasPort(),
			Connected: connected,
		})
	}
	return out
}
