// Package adaptive implements the Adaptive codec: it measures the encoded
// size each applicable sub-codec would produce for a given sequence and
// writes whichever is smallest, prefixed by a 1-byte strategy tag.
//
// This directly generalizes the teacher's per-blob format.EncodingType
// selection (section.NumericFlag.SetValueEncoding) from "the caller picks
// Raw/Delta/Gorilla up front" to "the library measures and picks."
package adaptive

import (
	"math"
	"unsafe"

	"github.com/mattsta/govarint/codec/bitmap"
	"github.com/mattsta/govarint/codec/delta"
	"github.com/mattsta/govarint/codec/dict"
	"github.com/mattsta/govarint/codec/float"
	forcodec "github.com/mattsta/govarint/codec/for"
	"github.com/mattsta/govarint/internal/errs"
)

// Strategy identifies which sub-codec produced an Adaptive-encoded block's
// body.
type Strategy uint8

// Strategy tag values for the uint64 domain. StrategyFloat is only ever
// chosen by EncodeFloat64.
const (
	StrategyRaw Strategy = iota
	StrategyDelta
	StrategyFOR
	StrategyDict
	StrategyBitmap
	StrategyFloat
)

// Meta is the Adaptive codec's metadata record, pinned to 24 bytes.
type Meta struct {
	SampleSize  uint64
	EncodedSize uint64
	Strategy    Strategy
}

const metaSizeBudget = 24

var _ [metaSizeBudget - int(unsafe.Sizeof(Meta{}))]byte

// encodeRawUint64 is the baseline strategy: fixed 8-byte little-endian words,
// always applicable and always decodable, used when no sub-codec beats it.
func encodeRawUint64(values []uint64) []byte {
	out := make([]byte, len(values)*8)
	for i, v := range values {
		putUint64LE(out[i*8:], v)
	}

	return out
}

func putUint64LE(dst []byte, v uint64) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
	dst[4] = byte(v >> 32)
	dst[5] = byte(v >> 40)
	dst[6] = byte(v >> 48)
	dst[7] = byte(v >> 56)
}

func getUint64LE(src []byte) uint64 {
	return uint64(src[0]) | uint64(src[1])<<8 | uint64(src[2])<<16 | uint64(src[3])<<24 |
		uint64(src[4])<<32 | uint64(src[5])<<40 | uint64(src[6])<<48 | uint64(src[7])<<56
}

func isBinary(values []uint64) bool {
	for _, v := range values {
		if v != 0 && v != 1 {
			return false
		}
	}

	return true
}

// EncodeUint64 samples Delta, FOR, Dict, and (when the domain is binary)
// Bitmap against values, and writes whichever produces the smallest body,
// falling back to a raw fixed-width encoding if no sub-codec wins.
func EncodeUint64(values []uint64) ([]byte, Meta, error) {
	if len(values) == 0 {
		return nil, Meta{}, errs.ErrEmptyInput
	}

	best := encodeRawUint64(values)
	bestStrategy := StrategyRaw

	if deltaBytes := delta.EncodeUnsigned(values); len(deltaBytes) < len(best) {
		best = deltaBytes
		bestStrategy = StrategyDelta
	}

	if forBytes, err := forcodec.EncodeAppend(values, nil); err == nil && len(forBytes) < len(best) {
		best = forBytes
		bestStrategy = StrategyFOR
	}

	if dictBytes, err := dict.Encode(values); err == nil && len(dictBytes) < len(best) {
		best = dictBytes
		bestStrategy = StrategyDict
	}

	if isBinary(values) {
		bits := make([]bool, len(values))
		for i, v := range values {
			bits[i] = v == 1
		}
		if bitmapBytes := bitmap.Encode(bits); len(bitmapBytes) < len(best) {
			best = bitmapBytes
			bestStrategy = StrategyBitmap
		}
	}

	out := make([]byte, 1+len(best))
	out[0] = byte(bestStrategy)
	copy(out[1:], best)

	meta := Meta{
		SampleSize:  uint64(len(values)), //nolint:gosec
		EncodedSize: uint64(len(out)),    //nolint:gosec
		Strategy:    bestStrategy,
	}

	return out, meta, nil
}

// DecodeUint64 inverts EncodeUint64, given the element count that was
// encoded.
func DecodeUint64(src []byte, count int) ([]uint64, error) {
	if len(src) < 1 {
		return nil, errs.ErrTruncated
	}

	strategy := Strategy(src[0])
	body := src[1:]

	switch strategy {
	case StrategyRaw:
		if len(body) < count*8 {
			return nil, errs.ErrTruncated
		}
		out := make([]uint64, count)
		for i := range out {
			out[i] = getUint64LE(body[i*8:])
		}

		return out, nil

	case StrategyDelta:
		return delta.DecodeUnsigned(body, count)

	case StrategyFOR:
		return forcodec.DecodeAll(body)

	case StrategyDict:
		return dict.DecodeAll(body, count)

	case StrategyBitmap:
		bits, err := bitmap.DecodeAll(body)
		if err != nil {
			return nil, err
		}
		out := make([]uint64, len(bits))
		for i, b := range bits {
			if b {
				out[i] = 1
			}
		}

		return out, nil

	default:
		return nil, errs.ErrUnknownStrategy
	}
}

// EncodeFloat64 samples a raw fixed-width float64 encoding against the
// Gorilla-compressed Float codec and writes whichever is smaller.
func EncodeFloat64(values []float64) ([]byte, Meta, error) {
	if len(values) == 0 {
		return nil, Meta{}, errs.ErrEmptyInput
	}

	raw := make([]byte, len(values)*8)
	for i, v := range values {
		putUint64LE(raw[i*8:], math.Float64bits(v))
	}

	best := raw
	bestStrategy := StrategyRaw

	if floatBytes := float.Encode(values); len(floatBytes) < len(best) {
		best = floatBytes
		bestStrategy = StrategyFloat
	}

	out := make([]byte, 1+len(best))
	out[0] = byte(bestStrategy)
	copy(out[1:], best)

	meta := Meta{
		SampleSize:  uint64(len(values)), //nolint:gosec
		EncodedSize: uint64(len(out)),    //nolint:gosec
		Strategy:    bestStrategy,
	}

	return out, meta, nil
}

// DecodeFloat64 inverts EncodeFloat64, given the element count that was
// encoded.
func DecodeFloat64(src []byte, count int) ([]float64, error) {
	if len(src) < 1 {
		return nil, errs.ErrTruncated
	}

	strategy := Strategy(src[0])
	body := src[1:]

	switch strategy {
	case StrategyRaw:
		if len(body) < count*8 {
			return nil, errs.ErrTruncated
		}
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(getUint64LE(body[i*8:]))
		}

		return out, nil

	case StrategyFloat:
		return float.DecodeAll(body, count)

	default:
		return nil, errs.ErrUnknownStrategy
	}
}
