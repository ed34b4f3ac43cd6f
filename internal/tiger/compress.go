// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

package tiger

// compress runs the Tiger compression function over one 64-byte block,
// updating state in place.
func compress(state *[3]uint64, block []byte) {
	var x [8]uint64
	for i := 0; i < 8; i++ {
		x[i] = uint64(block[i*8]) | uint64(block[i*8+1])<<8 |
			uint64(block[i*8+2])<<16 | uint64(block[i*8+3])<<24 |
			uint64(block[i*8+4])<<32 | uint64(block[i*8+5])<<40 |
			uint64(block[i*8+6])<<48 | uint64(block[i*8+7])<<56
	}

	a, b, c := state[0], state[1], state[2]
	aa, bb, cc := a, b, c

	for pass := 0; pass < 3; pass++ {
		if pass != 0 {
			keySchedule(&x)
		}
		mul := [3]uint64{5, 7, 9}[pass]
		for i := 0; i < 8; i += 2 {
			a, b, c = round(a, b, c, x[i], mul)
			b, c, a = round(b, c, a, x[i+1], mul)
		}
	}

	a ^= aa
	b -= bb
	c += cc

	state[0], state[1], state[2] = a, b, c
}

func round(a, b, c, x, mul uint64) (uint64, uint64, uint64) {
	c ^= x
	a -= sbox[0][byte(c)] ^ sbox[1][byte(c>>16)] ^ sbox[2][byte(c>>32)] ^ sbox[3][byte(c>>48)]
	b += sbox[3][byte(c>>8)] ^ sbox[2][byte(c>>24)] ^ sbox[1][byte(c>>40)] ^ sbox[0][byte(c>>56)]
	b *= mul
	return a, b, c
}

func keySchedule(x *[8]uint64) {
	x[0] -= x[7] ^ 0xA5A5A5A5A5A5A5A5
	x[1] ^= x[0]
	x[2] += x[1]
	x[3] -= x[2] ^ ((^x[1]) << 19)
	x[4] ^= x[3]
	x[5] += x[4]
	x[6] -= x[5] ^ ((^x[4]) >> 23)
	x[7] ^= x[6]
	x[0] += x[7]
	x[1] -= x[0] ^ ((^x[7]) << 19)
	x[2] ^= x[1]
	x[3] += x[2]
	x[4] -= x[3] ^ ((^x[2]) >> 23)
	x[5] ^= x[4]
	x[6] += x[5]
	x[7] -= x[6] ^ 0x0123456789ABCDEF
}
