package varint

// InvalidWidth is returned by Get/Len when the source bytes cannot be
// interpreted as a tagged varint (a truncated buffer or an unused tag nibble).
// It is distinguishable from every valid width, which is always in 1..9.
const InvalidWidth = 0

// MaxTaggedLen is the maximum number of bytes a tagged varint can occupy:
// one tag/low-value byte plus up to 8 extra value bytes.
const MaxTaggedLen = 9

// tagMask isolates the low nibble of byte 0, which carries extraBytes (0..8).
const tagMask = 0x0F

// PutTagged encodes v into buf and returns the number of bytes written (1..9).
//
// Layout: byte[0] packs the tag (number of extra bytes, 0..8) into its low
// nibble and the low 4 bits of v into its high nibble. Any extra bytes hold
// the remaining bits of v, little-endian, 8 bits per byte. This makes the
// total length of the encoding recoverable by inspecting byte[0] alone, which
// is what lets Len peek a single byte instead of decoding the whole value.
//
// buf must have at least 9 bytes of capacity available from its start; the
// caller owns sizing (see MaxTaggedLen).
func PutTagged(buf []byte, v uint64) int {
	extra := extraBytesFor(v)

	buf[0] = byte(extra) | byte(v&0x0F)<<4
	v >>= 4

	for i := 0; i < extra; i++ {
		buf[1+i] = byte(v)
		v >>= 8
	}

	return extra + 1
}

// extraBytesFor returns the minimal count in 0..8 of additional bytes needed
// to hold v once its low 4 bits are absorbed into byte[0]'s high nibble.
func extraBytesFor(v uint64) int {
	v >>= 4
	extra := 0
	for v != 0 && extra < 8 {
		extra++
		v >>= 8
	}

	return extra
}

// GetTagged decodes a tagged varint from the front of buf.
//
// Returns the decoded value and the number of bytes consumed. If buf is
// empty, the tag nibble names more bytes than buf holds, or the tag nibble
// itself is unused (9..15), GetTagged returns (0, InvalidWidth).
func GetTagged(buf []byte) (uint64, int) {
	if len(buf) == 0 {
		return 0, InvalidWidth
	}

	extra := int(buf[0] & tagMask)
	if extra > 8 {
		return 0, InvalidWidth
	}

	total := extra + 1
	if len(buf) < total {
		return 0, InvalidWidth
	}

	v := uint64(buf[0]>>4) & 0x0F
	shift := uint(4)
	for i := 0; i < extra; i++ {
		v |= uint64(buf[1+i]) << shift
		shift += 8
	}

	return v, total
}

// TaggedLen peeks at the first byte of buf and returns the total encoded
// length (1..9) without decoding the value, or InvalidWidth if the tag
// nibble is unused or buf is empty.
func TaggedLen(buf []byte) int {
	if len(buf) == 0 {
		return InvalidWidth
	}

	extra := int(buf[0] & tagMask)
	if extra > 8 {
		return InvalidWidth
	}

	return extra + 1
}

// TaggedSize returns the number of bytes PutTagged would write for v, without
// writing anything. Useful for pre-sizing a destination buffer.
func TaggedSize(v uint64) int {
	return extraBytesFor(v) + 1
}

// AppendTagged appends the tagged varint encoding of v to buf and returns the
// extended slice, growing buf as needed.
func AppendTagged(buf []byte, v uint64) []byte {
	var tmp [MaxTaggedLen]byte
	n := PutTagged(tmp[:], v)

	return append(buf, tmp[:n]...)
}
