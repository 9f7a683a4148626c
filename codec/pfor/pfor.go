// Package pfor implements Patched Frame-of-Reference: like the forcodec
// package, values are stored as fixed-width offsets from a minimum, but a
// handful of outliers that would force every offset to a wider width are
// instead patched out-of-band as (index, value) pairs, while the bulk of the
// body keeps the narrow width the majority of values need.
//
// Layout: [min: tagged varint][offset_width: 1 byte][count: tagged
// varint][patch_count: tagged varint]{[index: tagged varint][value: tagged
// varint]} × patch_count[offset_i: external-width varint of width
// offset_width] × count.
package pfor

import (
	"unsafe"

	"github.com/mattsta/govarint/internal/errs"
	"github.com/mattsta/govarint/internal/varint"
)

// coverageTarget is the minimum fraction of values the chosen offset width
// must cover without patching, matching the "narrowest band holding >=90% of
// values" default.
const coverageTarget = 0.90

// Meta is the PFOR codec's metadata record, pinned to 48 bytes. Max and
// Range are intentionally not carried (unlike forcodec.Meta) to leave room
// for PatchCount and PatchOffset within the budget; callers needing the
// value range can derive it from a full decode.
type Meta struct {
	Min         uint64
	Count       uint64
	EncodedSize uint64
	PatchCount  uint64
	PatchOffset uint64
	OffsetWidth uint8
}

const metaSizeBudget = 48

var _ [metaSizeBudget - int(unsafe.Sizeof(Meta{}))]byte

type patch struct {
	index uint64
	value uint64
}

// Analyze finds the minimum of values and the narrowest offset width that
// covers at least coverageTarget of them without patching; values
// whose offset from the minimum would need a wider encoding become patches.
func Analyze(values []uint64) (Meta, error) {
	if len(values) == 0 {
		return Meta{}, errs.ErrEmptyInput
	}

	minVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
	}

	n := len(values)
	width := chooseWidth(values, minVal, n)

	patchCount := 0
	bound := widthBound(width)
	for _, v := range values {
		if v-minVal >= bound {
			patchCount++
		}
	}

	meta := Meta{
		Min:         minVal,
		Count:       uint64(n),
		PatchCount:  uint64(patchCount),
		OffsetWidth: uint8(width), //nolint:gosec
	}
	meta.PatchOffset = uint64(headerSize(meta))
	meta.EncodedSize = meta.PatchOffset + uint64(patchCount)*18 + uint64(n*width) //nolint:gosec

	return meta, nil
}

// widthBound returns 256^width as a uint64, saturating to the full uint64
// range at width 8.
func widthBound(width int) uint64 {
	if width >= 8 {
		return ^uint64(0)
	}

	return uint64(1) << (8 * width)
}

// chooseWidth finds the smallest width in 1..8 whose coverage of values
// (those whose offset from min fits in that width) meets coverageTarget,
// falling back to the narrowest width that covers every value when no
// smaller width clears the target.
func chooseWidth(values []uint64, minVal uint64, n int) int {
	for w := 1; w <= 8; w++ {
		bound := widthBound(w)
		covered := 0
		for _, v := range values {
			if v-minVal < bound {
				covered++
			}
		}
		if float64(covered)/float64(n) >= coverageTarget {
			return w
		}
	}

	return 8
}

// headerSize returns the byte length of a PFOR block's header, excluding
// the patch list and body: tagged(min) + 1 width byte + tagged(count) +
// tagged(patchCount).
func headerSize(meta Meta) int {
	return varint.TaggedSize(meta.Min) + 1 + varint.TaggedSize(meta.Count) + varint.TaggedSize(meta.PatchCount)
}

// MaxEncodedSize returns an upper bound on the encoded size for count values
// at the given offset width, assuming every value is a patch (worst case).
func MaxEncodedSize(count int, offsetWidth int) int {
	return 28 + count*18 + count*offsetWidth
}

// Encode writes values into dst using Patched Frame-of-Reference encoding
// and returns the number of bytes written.
func Encode(dst []byte, values []uint64, meta *Meta) (int, error) {
	if len(values) == 0 {
		return 0, errs.ErrEmptyInput
	}

	m, err := resolveMeta(values, meta)
	if err != nil {
		return 0, err
	}

	bound := widthBound(int(m.OffsetWidth))
	patches := make([]patch, 0, m.PatchCount)
	for i, v := range values {
		if v-m.Min >= bound {
			patches = append(patches, patch{index: uint64(i), value: v}) //nolint:gosec
		}
	}

	pos := 0
	pos += varint.PutTagged(dst[pos:], m.Min)
	dst[pos] = m.OffsetWidth
	pos++
	pos += varint.PutTagged(dst[pos:], m.Count)
	pos += varint.PutTagged(dst[pos:], uint64(len(patches)))

	for _, p := range patches {
		pos += varint.PutTagged(dst[pos:], p.index)
		pos += varint.PutTagged(dst[pos:], p.value)
	}

	w := int(m.OffsetWidth)
	for _, v := range values {
		off := v - m.Min
		if off >= bound {
			off = 0 // overwritten during decode by the patch list
		}
		varint.PutExternal(dst[pos:pos+w], off, w)
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

// ReadMetadata parses a PFOR block's header (including the patch list, to
// learn the body's start offset) without decoding the body.
func ReadMetadata(src []byte) (Meta, error) {
	minVal, n1 := varint.GetTagged(src)
	if n1 == varint.InvalidWidth {
		return Meta{}, errs.ErrTruncated
	}
	if len(src) < n1+1 {
		return Meta{}, errs.ErrTruncated
	}
	width := src[n1]

	count, n2 := varint.GetTagged(src[n1+1:])
	if n2 == varint.InvalidWidth {
		return Meta{}, errs.ErrTruncated
	}

	patchCount, n3 := varint.GetTagged(src[n1+1+n2:])
	if n3 == varint.InvalidWidth {
		return Meta{}, errs.ErrTruncated
	}

	meta := Meta{
		Min:         minVal,
		Count:       count,
		PatchCount:  patchCount,
		OffsetWidth: width,
	}
	meta.PatchOffset = uint64(n1 + 1 + n2 + n3) //nolint:gosec

	return meta, nil
}

// readPatches parses the patch list following a PFOR header and returns it
// along with the number of bytes consumed.
func readPatches(src []byte, patchCount uint64) ([]patch, int, error) {
	patches := make([]patch, 0, patchCount)
	pos := 0
	for i := uint64(0); i < patchCount; i++ {
		idx, n := varint.GetTagged(src[pos:])
		if n == varint.InvalidWidth {
			return nil, 0, errs.ErrTruncated
		}
		pos += n

		val, n2 := varint.GetTagged(src[pos:])
		if n2 == varint.InvalidWidth {
			return nil, 0, errs.ErrTruncated
		}
		pos += n2

		patches = append(patches, patch{index: idx, value: val})
	}

	return patches, pos, nil
}

// Decode reads an entire PFOR-encoded block from src into out, which must
// have capacity for at least the encoded count, and returns the number of
// values decoded.
func Decode(src []byte, out []uint64) (int, error) {
	meta, err := ReadMetadata(src)
	if err != nil {
		return 0, err
	}

	if meta.Count > uint64(len(out)) {
		return 0, errs.ErrCountExceeded
	}

	patches, patchBytes, err := readPatches(src[meta.PatchOffset:], meta.PatchCount)
	if err != nil {
		return 0, err
	}

	w := int(meta.OffsetWidth)
	bodyStart := int(meta.PatchOffset) + patchBytes
	if len(src) < bodyStart+int(meta.Count)*w {
		return 0, errs.ErrTruncated
	}

	body := src[bodyStart:]
	for i := uint64(0); i < meta.Count; i++ {
		off := varint.GetExternal(body[:w], w)
		out[i] = meta.Min + off
		body = body[w:]
	}

	for _, p := range patches {
		if p.index >= meta.Count {
			return 0, errs.ErrIndexOutOfRange
		}
		out[p.index] = p.value
	}

	return int(meta.Count), nil
}

// DecodeAll is a convenience wrapper around Decode that allocates the output
// slice.
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
