// Package forcodec implements the Frame-of-Reference (FOR) codec: every
// value in a sequence is stored as a fixed-width offset from the sequence's
// minimum, which makes the whole payload SIMD-friendly (every offset is the
// same width) and gives O(1) random access to any element without decoding
// the rest of the block.
//
// Layout: [min_value: tagged varint][offset_width: 1 byte][count: tagged
// varint][offset_0 .. offset_{count-1}: external-width varint of width
// offset_width].
package forcodec

import (
	"unsafe"

	"github.com/mattsta/govarint/internal/errs"
	"github.com/mattsta/govarint/internal/varint"
)

// Meta is the Frame-of-Reference codec's public metadata record. Field order
// (Min, Max, Range, Count, EncodedSize, OffsetWidth) is part of the wire
// contract's documented ABI and must not change.
type Meta struct {
	Min         uint64
	Max         uint64
	Range       uint64
	Count       uint64
	EncodedSize uint64
	OffsetWidth uint8
}

// metaSizeBudget pins Meta to one cache line at compile time: if Meta grows
// past 64 bytes this array length becomes negative and the package fails to
// build.
const metaSizeBudget = 64

var _ [metaSizeBudget - int(unsafe.Sizeof(Meta{}))]byte

// ComputeWidth returns the minimal external-width (1..8) needed to store any
// value in [0, valueRange].
func ComputeWidth(valueRange uint64) int {
	return varint.ExternalUnsignedEncoding(valueRange)
}

// Analyze performs a single pass over values to compute Meta: min, max,
// range, the optimal offset width, and the resulting encoded size.
func Analyze(values []uint64) (Meta, error) {
	if len(values) == 0 {
		return Meta{}, errs.ErrEmptyInput
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	rng := maxVal - minVal
	width := ComputeWidth(rng)

	meta := Meta{
		Min:         minVal,
		Max:         maxVal,
		Range:       rng,
		Count:       uint64(len(values)),
		OffsetWidth: uint8(width), //nolint:gosec
	}
	meta.EncodedSize = uint64(headerSize(meta) + len(values)*width) //nolint:gosec

	return meta, nil
}

// headerSize returns the byte length of a FOR block's header given its
// metadata: tagged(min) + 1 offset-width byte + tagged(count).
func headerSize(meta Meta) int {
	return varint.TaggedSize(meta.Min) + 1 + varint.TaggedSize(meta.Count)
}

// MaxEncodedSize returns an upper bound on the encoded size for count values
// at the given offset width, useful for sizing a destination buffer before
// Analyze has run.
func MaxEncodedSize(count int, offsetWidth int) int {
	// Worst case header: 9 (tagged min) + 1 (width byte) + 9 (tagged count).
	return 19 + count*offsetWidth
}

// Encode writes values into dst using Frame-of-Reference encoding and
// returns the number of bytes written. If meta is nil, Encode analyzes
// values itself; passing a pre-computed meta (from Analyze) avoids a second
// pass over values.
func Encode(dst []byte, values []uint64, meta *Meta) (int, error) {
	if len(values) == 0 {
		return 0, errs.ErrEmptyInput
	}

	m, err := resolveMeta(values, meta)
	if err != nil {
		return 0, err
	}

	pos := 0
	pos += varint.PutTagged(dst[pos:], m.Min)
	dst[pos] = m.OffsetWidth
	pos++
	pos += varint.PutTagged(dst[pos:], m.Count)

	w := int(m.OffsetWidth)
	for _, v := range values {
		varint.PutExternal(dst[pos:pos+w], v-m.Min, w)
		pos += w
	}

	return pos, nil
}

func resolveMeta(values []uint64, meta *Meta) (Meta, error) {
	if meta != nil {
		return *meta, nil
	}

	return Analyze(values)
}

// EncodeAppend is the allocating convenience form of Encode.
func EncodeAppend(values []uint64, meta *Meta) ([]byte, error) {
	if len(values) == 0 {
		return nil, errs.ErrEmptyInput
	}

	m, err := resolveMeta(values, meta)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, MaxEncodedSize(len(values), int(m.OffsetWidth)))
	n, err := Encode(dst, values, &m)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// ReadMetadata parses a FOR block's header from src without decoding any
// offsets. Range and Max are not recoverable without scanning the offsets,
// so ReadMetadata reports Range=0 and Max=Min, matching the documented
// behavior of this fast path.
func ReadMetadata(src []byte) (Meta, error) {
	minVal, n1 := varint.GetTagged(src)
	if n1 == varint.InvalidWidth {
		return Meta{}, errs.ErrTruncated
	}

	if len(src) < n1+1 {
		return Meta{}, errs.ErrTruncated
	}
	width := src[n1]
	if width < 1 || width > varint.MaxExternalWidth {
		return Meta{}, errs.ErrInvalidWidth
	}

	count, n2 := varint.GetTagged(src[n1+1:])
	if n2 == varint.InvalidWidth {
		return Meta{}, errs.ErrTruncated
	}

	meta := Meta{
		Min:         minVal,
		Max:         minVal,
		Range:       0,
		Count:       count,
		OffsetWidth: width,
	}
	meta.EncodedSize = uint64(n1+1+n2) + count*uint64(width) //nolint:gosec

	return meta, nil
}

// Decode reads an entire FOR-encoded block from src into out, which must
// have capacity for at least the encoded count; it returns the number of
// values decoded. If the encoded count exceeds len(out), Decode returns
// errs.ErrCountExceeded and writes nothing.
func Decode(src []byte, out []uint64) (int, error) {
	meta, err := ReadMetadata(src)
	if err != nil {
		return 0, err
	}

	if meta.Count > uint64(len(out)) {
		return 0, errs.ErrCountExceeded
	}

	hdr := headerSize(meta)
	w := int(meta.OffsetWidth)

	if len(src) < hdr+int(meta.Count)*w {
		return 0, errs.ErrTruncated
	}

	data := src[hdr:]
	for i := uint64(0); i < meta.Count; i++ {
		off := varint.GetExternal(data[:w], w)
		out[i] = meta.Min + off
		data = data[w:]
	}

	return int(meta.Count), nil
}

// DecodeAll is a convenience wrapper around Decode that allocates the output
// slice after reading the header to learn the count.
func DecodeAll(src []byte) ([]uint64, error) {
	meta, err := ReadMetadata(src)
	if err != nil {
		return nil, err
	}

	out := make([]uint64, meta.Count)
	if _, err := Decode(src, out); err != nil {
		return nil, err
	}

	return out, nil
}

// View is a parsed handle onto a FOR-encoded block that supports O(1) random
// access via At, computing the header length and offset width once at
// construction instead of on every access.
type View struct {
	data        []byte
	headerLen   int
	offsetWidth int
	meta        Meta
}

// NewView parses src's FOR header and returns a View for random access.
// It does not copy src; the caller must keep src alive and unmodified for
// the View's lifetime.
func NewView(src []byte) (*View, error) {
	meta, err := ReadMetadata(src)
	if err != nil {
		return nil, err
	}

	hdr := headerSize(meta)
	w := int(meta.OffsetWidth)

	if len(src) < hdr+int(meta.Count)*w {
		return nil, errs.ErrTruncated
	}

	return &View{data: src, headerLen: hdr, offsetWidth: w, meta: meta}, nil
}

// Len returns the number of values in the block.
func (v *View) Len() int { return int(v.meta.Count) }

// Meta returns the block's parsed metadata.
func (v *View) Meta() Meta { return v.meta }

// At returns the value at index i in O(1), without decoding any other
// element.
func (v *View) At(i int) (uint64, error) {
	if i < 0 || i >= int(v.meta.Count) {
		return 0, errs.ErrIndexOutOfRange
	}

	start := v.headerLen + i*v.offsetWidth
	off := varint.GetExternal(v.data[start:start+v.offsetWidth], v.offsetWidth)

	return v.meta.Min + off, nil
}
