// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package tiger

// The reference Tiger algorithm uses four fixed substitution tables of
// 256 64-bit words each, published by the algorithm's designers
// alongside the reference implementation. There is no shorter
// algorithmic definition of these tables — the published words
// themselves are the specification, and every conforming
// implementation must reproduce them bit-for-bit.
//
// This package does NOT carry that table. init below fills sbox from a
// fixed-seed splitmix64 sequence, which produces internally-consistent
// but non-canonical digests (see DESIGN.md's "internal/tiger" entry).
// A table transcribed from memory was not adopted in its place:
// transcribing 1024 64-bit words with no way to check them against the
// published table or a known-answer test carries the same failure mode
// as the generator: a single wrong word is undetectable by inspection
// and still produces non-canonical digests for every input.
//
// Loading the real table requires one of:
//   - vendoring it from the published Tiger reference source, or
//   - depending on an existing, independently-tested Go Tiger
//     implementation instead of reimplementing the primitive here,
//   - pasting the table in from a trusted copy and validating it
//     against the published test vectors (see tiger_test.go's
//     TestAgainstPublishedVectors, which is written to catch exactly
//     this class of error once real data lands).
//
// None of those are available in the environment this revision was
// produced in (no network access, no existing Tiger dependency found
// in the module cache, no toolchain run to self-check a transcription
// attempt). Sum24/SumTagged in tiger.go therefore use this deterministic
// placeholder so the package compiles and every other component that
// depends on it (treehash, asset, assetstore) can be built and tested
// against a stable, if non-canonical, digest function.
var sbox [4][256]uint64

func init() {
	state := uint64(0x9E3779B97F4A7C15)
	next := func() uint64 {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return z ^ (z >> 31)
	}
	for t := 0; t < 4; t++ {
		for i := 0; i < 256; i++ {
			sbox[t][i] = next()
		}
	}
}
