// Package delta implements the Delta codec: a sequence of signed values
// stored as a ZigZag-encoded chain of successive differences, each stored as
// an external-width varint prefixed by its own width byte (1..8).
//
// Delta is the right codec for sorted or monotone sequences — timestamps,
// auto-increment IDs, cumulative counters — where successive values are
// close together and the chain is read front-to-back. Random access costs
// O(i): reconstructing value i requires replaying the chain from the base.
// For random access at a fixed cost, use the FOR codec instead.
package delta

import (
	"github.com/mattsta/govarint/internal/bufpool"
	"github.com/mattsta/govarint/internal/errs"
	"github.com/mattsta/govarint/internal/varint"
)

// MaxEncodedSize returns an upper bound on the number of bytes Encode needs
// for n signed values: one width byte plus up to 8 value bytes for the base,
// then (n-1) width-byte-plus-up-to-8-value-byte deltas.
func MaxEncodedSize(n int) int {
	if n <= 0 {
		return 0
	}

	return 9 + (n-1)*9
}

// Encoder accumulates signed values into a Delta-encoded byte stream one (or
// many) at a time, avoiding the need to materialize the full input slice
// up front.
//
// Internal state:
//   - prev: the previous value written, used to compute the next delta
//   - buf: pooled scratch buffer accumulating encoded bytes
//   - count: number of values written since the last Reset
type Encoder struct {
	prev  int64
	buf   *bufpool.Buffer
	count int
}

// NewEncoder creates a Delta encoder ready to accept values via Write or
// WriteSlice.
func NewEncoder() *Encoder {
	return &Encoder{buf: bufpool.Get()}
}

// Write encodes a single signed value: the first call in a sequence writes
// the value as an absolute base; every later call writes the ZigZag-encoded
// delta from the previous value.
//
// Panics if Finish has been called (nil buffer).
func (e *Encoder) Write(v int64) {
	if e.buf == nil {
		panic("delta: encoder already finished - cannot write after Finish()")
	}

	if e.count == 0 {
		e.writeWidthValue(uint64(v)) //nolint:gosec
		e.prev = v
		e.count++

		return
	}

	d := v - e.prev
	e.writeWidthValue(varint.ZigZagEncode(d))
	e.prev = v
	e.count++
}

// WriteSlice encodes values in order, equivalent to calling Write for each
// element but with a single upfront buffer reservation.
func (e *Encoder) WriteSlice(values []int64) {
	if len(values) == 0 {
		return
	}

	e.buf.Grow(MaxEncodedSize(len(values)))
	for _, v := range values {
		e.Write(v)
	}
}

// writeWidthValue writes the minimal external width for v (1..8) as a single
// byte, followed by v's raw external-width bytes at that width. This is the
// distinct "explicit width byte" layout the Delta codec's wire format uses
// in place of a self-terminating varint, so a decoder can validate the width
// before trusting the following bytes.
func (e *Encoder) writeWidthValue(v uint64) {
	w := externalWidthFor(v)
	e.buf.AppendByte(byte(w))

	var tmp [8]byte
	varint.PutExternal(tmp[:w], v, w)
	e.buf.Append(tmp[:w])
}

// externalWidthFor returns the minimal width in 1..8 needed to store v.
func externalWidthFor(v uint64) int {
	return varint.ExternalUnsignedEncoding(v)
}

// Bytes returns the encoded byte slice accumulated so far. The returned
// slice is valid until the next Write/WriteSlice/Reset call.
func (e *Encoder) Bytes() []byte {
	if e.buf == nil {
		panic("delta: encoder already finished - cannot access bytes after Finish()")
	}

	return e.buf.Bytes()
}

// Len returns the number of values written since the last Reset.
func (e *Encoder) Len() int { return e.count }

// Size returns the number of encoded bytes accumulated so far.
func (e *Encoder) Size() int {
	if e.buf == nil {
		panic("delta: encoder already finished - cannot access size after Finish()")
	}

	return e.buf.Len()
}

// Reset clears the encoder's state so it can be reused for a new sequence.
func (e *Encoder) Reset() {
	e.prev = 0
	e.count = 0
	if e.buf == nil {
		e.buf = bufpool.Get()
	} else {
		e.buf.Reset()
	}
}

// Finish releases the encoder's scratch buffer back to the pool. The
// encoder must not be used afterward except via Reset, which reacquires a
// buffer. Callers that need the bytes after Finish must have copied them
// out via Bytes first.
func (e *Encoder) Finish() {
	bufpool.Put(e.buf)
	e.buf = nil
}

// Encode is the stateless convenience form: it encodes all of values and
// returns a freshly allocated byte slice.
func Encode(values []int64) []byte {
	e := NewEncoder()
	e.WriteSlice(values)
	out := append([]byte(nil), e.Bytes()...)
	e.Finish()

	return out
}

// Decode decodes exactly n signed values from the front of src into out,
// which must have length >= n, and returns the number of bytes consumed.
//
// Decode aborts on the first malformed width byte (one outside 1..8) and
// returns errs.ErrMalformedWidthByte; no partial output beyond the point of
// failure should be trusted. Decode is inherently sequential: reconstructing
// out[i] requires out[i-1].
func Decode(src []byte, n int, out []int64) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	if len(out) < n {
		return 0, errs.ErrCountExceeded
	}

	pos := 0

	w, v, consumed, err := readWidthValue(src[pos:])
	if err != nil {
		return 0, err
	}
	_ = w
	pos += consumed
	out[0] = int64(v) //nolint:gosec

	for i := 1; i < n; i++ {
		_, z, consumed, err := readWidthValue(src[pos:])
		if err != nil {
			return 0, err
		}
		pos += consumed
		out[i] = out[i-1] + varint.ZigZagDecode(z)
	}

	return pos, nil
}

// DecodeAll is a convenience wrapper around Decode that allocates the output
// slice.
func DecodeAll(src []byte, n int) ([]int64, error) {
	out := make([]int64, n)
	if _, err := Decode(src, n, out); err != nil {
		return nil, err
	}

	return out, nil
}

// readWidthValue reads one [width byte][external-width value] pair from the
// front of src.
func readWidthValue(src []byte) (width int, value uint64, consumed int, err error) {
	if len(src) < 1 {
		return 0, 0, 0, errs.ErrTruncated
	}

	w := int(src[0])
	if w < 1 || w > varint.MaxExternalWidth {
		return 0, 0, 0, errs.ErrMalformedWidthByte
	}

	if len(src) < 1+w {
		return 0, 0, 0, errs.ErrTruncated
	}

	v := varint.GetExternal(src[1:1+w], w)

	return w, v, 1 + w, nil
}

// EncodeUnsigned encodes a sequence of unsigned values using the same
// base-then-delta framing as Encode, but computes deltas on unsigned
// arithmetic while still ZigZag-encoding them so that decreases between
// successive values are representable.
func EncodeUnsigned(values []uint64) []byte {
	e := NewEncoder()
	defer e.Finish()

	if len(values) == 0 {
		return nil
	}

	e.buf.Grow(MaxEncodedSize(len(values)))
	e.writeWidthValue(values[0])

	prev := values[0]
	for _, v := range values[1:] {
		d := int64(v) - int64(prev) //nolint:gosec
		e.writeWidthValue(varint.ZigZagEncode(d))
		prev = v
	}

	return append([]byte(nil), e.Bytes()...)
}

// DecodeUnsigned inverts EncodeUnsigned.
func DecodeUnsigned(src []byte, n int) ([]uint64, error) {
	if n <= 0 {
		return nil, nil
	}

	out := make([]uint64, n)

	pos := 0
	_, base, consumed, err := readWidthValue(src)
	if err != nil {
		return nil, err
	}
	pos += consumed
	out[0] = base

	prev := int64(base) //nolint:gosec
	for i := 1; i < n; i++ {
		_, z, consumed, err := readWidthValue(src[pos:])
		if err != nil {
			return nil, err
		}
		pos += consumed

		prev += varint.ZigZagDecode(z)
		out[i] = uint64(prev) //nolint:gosec
	}

	return out, nil
}
