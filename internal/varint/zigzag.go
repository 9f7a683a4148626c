package varint

// ZigZagEncode maps a signed value to an unsigned value so that small-magnitude
// signed values (positive or negative) map to small unsigned values:
//
//	0 -> 0, -1 -> 1, 1 -> 2, -2 -> 3, 2 -> 4, ...
//
// The arithmetic right shift by 63 fills with the sign bit, producing all-1s
// for negative n and all-0s for non-negative n; XORing that against n<<1
// flips every bit of negative values, which is the standard zigzag bijection.
func ZigZagEncode(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63)
}

// ZigZagDecode inverts ZigZagEncode.
func ZigZagDecode(z uint64) int64 {
	return int64(z>>1) ^ -int64(z&1)
}
