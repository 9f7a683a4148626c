// Package bitmap implements a packed-bit presence/absence codec for sparse
// boolean or small-enumeration columns: bits are packed 8-per-byte,
// MSB-first within each byte, the same bit-buffer accumulation style the
// Float codec uses for its XOR residuals, here repurposed for plain bit
// packing.
//
// Layout: [count: tagged varint][ceil(count/8) bytes of packed bits].
package bitmap

import (
	"unsafe"

	"github.com/mattsta/govarint/internal/errs"
	"github.com/mattsta/govarint/internal/varint"
)

// Meta is the Bitmap codec's metadata record, pinned to 72 bytes. RunCount
// is a run-length summary (the number of maximal runs of equal bits).
// codec/adaptive does not read it; it picks a strategy by comparing actual
// encoded sizes.
type Meta struct {
	Count       uint64
	SetCount    uint64
	ByteLength  uint64
	RunCount    uint64
	EncodedSize uint64
}

const metaSizeBudget = 72

var _ [metaSizeBudget - int(unsafe.Sizeof(Meta{}))]byte

// ByteLength returns the number of packed-bit bytes needed for count bits.
func ByteLength(count int) int {
	return (count + 7) / 8
}

// Encode packs bits (true = set) into a tagged-varint-prefixed bitmap.
func Encode(bits []bool) []byte {
	n := len(bits)
	byteLen := ByteLength(n)

	headerLen := varint.TaggedSize(uint64(n)) //nolint:gosec
	dst := make([]byte, headerLen+byteLen)

	pos := varint.PutTagged(dst, uint64(n)) //nolint:gosec
	body := dst[pos:]

	for i, b := range bits {
		if !b {
			continue
		}
		body[i/8] |= 1 << (7 - uint(i%8)) //nolint:gosec
	}

	return dst
}

// DecodeAll unpacks a Bitmap-encoded block back into a []bool slice.
func DecodeAll(src []byte) ([]bool, error) {
	count, n := varint.GetTagged(src)
	if n == varint.InvalidWidth {
		return nil, errs.ErrTruncated
	}

	byteLen := ByteLength(int(count)) //nolint:gosec
	if len(src) < n+byteLen {
		return nil, errs.ErrTruncated
	}

	body := src[n : n+byteLen]
	out := make([]bool, count)
	for i := range out {
		out[i] = body[i/8]&(1<<(7-uint(i%8))) != 0 //nolint:gosec
	}

	return out, nil
}

// Analyze computes a Bitmap codec's metadata for bits, including the number
// of set bits and the count of maximal equal-bit runs.
func Analyze(bits []bool) Meta {
	n := len(bits)
	byteLen := ByteLength(n)

	setCount := 0
	runCount := 0
	for i, b := range bits {
		if b {
			setCount++
		}
		if i == 0 || bits[i] != bits[i-1] {
			runCount++
		}
	}

	headerLen := varint.TaggedSize(uint64(n)) //nolint:gosec

	//nolint:gosec
	return Meta{
		Count:       uint64(n),
		SetCount:    uint64(setCount),
		ByteLength:  uint64(byteLen),
		RunCount:    uint64(runCount),
		EncodedSize: uint64(headerLen + byteLen),
	}
}
