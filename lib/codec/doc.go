// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides bithorded's standard CBOR encoding configuration.
//
// bithorded uses CBOR for its internal protocol: the management
// describe/inspect socket (lib/service). On-disk state does not use
// it; the asset store's metadata is a fixed-layout tree node format.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every internal protocol encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
// For buffer-oriented operations (files, tokens):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets, IPC):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR. It will
//     never be marshaled to JSON or interact with CLI tooling.
//     Examples: management socket request/response envelopes and the
//     describe/inspect payloads they carry.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. Example: a type that is also
//     rendered as JSON output.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract — doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
