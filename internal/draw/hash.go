package draw

import "math/bits"

// hashString is the djb2 string hash.
func hashString(s string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return h
}

// hashInt2D mixes two integers with Bob Jenkins' final mix.
func hashInt2D(kx, ky uint32) uint32 {
	a := uint32(0xdeadbeef + (2 << 2) + 13)
	b, c := a, a
	a += kx
	b += ky

	c ^= b
	c -= bits.RotateLeft32(b, 14)
	a ^= c
	a -= bits.RotateLeft32(c, 11)
	b ^= a
	b -= bits.RotateLeft32(a, 25)
	c ^= b
	c -= bits.RotateLeft32(b, 16)
	a ^= c
	a -= bits.RotateLeft32(c, 4)
	b ^= a
	b -= bits.RotateLeft32(a, 14)
	c ^= b
	c -= bits.RotateLeft32(b, 24)
	return c
}
