// Package float implements Facebook's Gorilla XOR compression algorithm for
// sequences of float64 values: the first value is stored verbatim, and every
// value after it is XORed with its predecessor, so for slowly-changing
// series most values collapse to a handful of meaningful bits plus a 1-2 bit
// control prefix.
//
// See https://www.vldb.org/pvldb/vol8/p1816-teller.pdf for the algorithm.
package float

import (
	"encoding/binary"
	"math"
	"math/bits"
	"unsafe"

	"github.com/mattsta/govarint/internal/bufpool"
	"github.com/mattsta/govarint/internal/errs"
)

// Meta is the Float codec's metadata record, pinned to 48 bytes.
type Meta struct {
	Count       uint64
	EncodedSize uint64
}

const metaSizeBudget = 48

var _ [metaSizeBudget - int(unsafe.Sizeof(Meta{}))]byte

// Encoder accumulates float64 values into a Gorilla-compressed bit stream.
//
// Internal state:
//   - bitBuf/bitCount: a 64-bit accumulator flushed to buf one full word (or
//     the final partial word) at a time
//   - prevValue, prevLeading, prevTrailing, prevBlockSize: the XOR block
//     parameters of the previous value, reused when the new XOR's
//     leading/trailing zero counts fit inside them
type Encoder struct {
	bitBuf        uint64
	prevValue     uint64
	bitCount      int
	count         int
	prevLeading   int
	prevTrailing  int
	prevBlockSize int
	firstValue    bool
	buf           *bufpool.Buffer
}

// NewEncoder creates a Float encoder ready to accept values.
func NewEncoder() *Encoder {
	return &Encoder{buf: bufpool.Get(), firstValue: true}
}

// Write encodes a single float64 value.
func (e *Encoder) Write(v float64) {
	if e.buf == nil {
		panic("float: encoder already finished - cannot write after Finish()")
	}

	e.count++
	valBits := math.Float64bits(v)

	if e.firstValue {
		e.firstValue = false
		e.prevValue = valBits
		e.writeBits(valBits, 64)

		return
	}

	e.writeValue(valBits)
}

// WriteSlice encodes values in order.
func (e *Encoder) WriteSlice(values []float64) {
	for _, v := range values {
		e.Write(v)
	}
}

// writeValue XOR-compresses valBits against the previous value and writes
// the resulting control bits plus meaningful bits.
func (e *Encoder) writeValue(valBits uint64) {
	xor := valBits ^ e.prevValue
	e.prevValue = valBits

	if xor == 0 {
		e.writeBit(0)
		return
	}

	e.writeBit(1)

	leading := bits.LeadingZeros64(xor)
	trailing := bits.TrailingZeros64(xor)

	if leading > 31 {
		adjustment := leading - 31
		leading = 31
		trailing -= adjustment
		if trailing < 0 {
			trailing = 0
		}
	}

	if e.count > 2 && e.prevBlockSize > 0 && leading >= e.prevLeading && trailing >= e.prevTrailing {
		e.writeBit(0)
		e.writeBits(xor>>e.prevTrailing, e.prevBlockSize)

		return
	}

	blockSize := 64 - leading - trailing
	e.writeBit(1)
	e.writeBits(uint64(leading), 5)     //nolint:gosec
	e.writeBits(uint64(blockSize-1), 6) //nolint:gosec
	e.writeBits(xor>>trailing, blockSize)

	e.prevLeading = leading
	e.prevTrailing = trailing
	e.prevBlockSize = blockSize
}

func (e *Encoder) writeBit(bit uint64) {
	e.bitBuf = (e.bitBuf << 1) | bit
	e.bitCount++
	if e.bitCount == 64 {
		e.flushBits()
	}
}

func (e *Encoder) writeBits(value uint64, numBits int) {
	if numBits == 0 {
		return
	}
	if numBits < 64 {
		value &= (1 << numBits) - 1
	}

	available := 64 - e.bitCount
	if numBits <= available {
		e.bitBuf = (e.bitBuf << numBits) | value
		e.bitCount += numBits
		if e.bitCount == 64 {
			e.flushBits()
		}

		return
	}

	highBits := numBits - available
	e.bitBuf = (e.bitBuf << available) | (value >> highBits)
	e.bitCount = 64
	e.flushBits()

	e.bitBuf = value & ((1 << highBits) - 1)
	e.bitCount = highBits
}

func (e *Encoder) flushBits() {
	if e.bitCount == 0 {
		return
	}

	numBytes := (e.bitCount + 7) / 8
	e.buf.Grow(numBytes)

	aligned := e.bitBuf << (64 - e.bitCount)

	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], aligned)
	e.buf.Append(tmp[:numBytes])

	e.bitBuf = 0
	e.bitCount = 0
}

// Bytes returns the encoded bytes accumulated so far, flushing any pending
// partial word first.
func (e *Encoder) Bytes() []byte {
	if e.buf == nil {
		panic("float: encoder already finished - cannot access bytes after Finish()")
	}

	if e.bitCount > 0 {
		e.flushBits()
	}

	return e.buf.Bytes()
}

// Len returns the number of values written since the last Reset.
func (e *Encoder) Len() int { return e.count }

// Reset clears the encoder's state for reuse.
func (e *Encoder) Reset() {
	e.bitBuf = 0
	e.bitCount = 0
	e.prevValue = 0
	e.prevLeading = 0
	e.prevTrailing = 0
	e.prevBlockSize = 0
	e.count = 0
	e.firstValue = true
	if e.buf != nil {
		e.buf.Reset()
	}
}

// Finish releases the encoder's scratch buffer back to the pool.
func (e *Encoder) Finish() {
	bufpool.Put(e.buf)
	e.buf = nil
}

// Encode is the stateless convenience form.
func Encode(values []float64) []byte {
	e := NewEncoder()
	e.WriteSlice(values)
	out := append([]byte(nil), e.Bytes()...)
	e.Finish()

	return out
}

// bitReader reads Gorilla-compressed bits from a byte slice, MSB-first.
type bitReader struct {
	data     []byte
	bytePos  int
	bitBuf   uint64
	bitCount int
}

func newBitReader(data []byte) *bitReader { return &bitReader{data: data} }

func (br *bitReader) fillBuffer() bool {
	if br.bytePos >= len(br.data) {
		return false
	}

	avail := len(br.data) - br.bytePos
	toRead := 8
	if toRead > avail {
		toRead = avail
	}

	if toRead == 8 {
		br.bitBuf = binary.BigEndian.Uint64(br.data[br.bytePos : br.bytePos+8])
		br.bytePos += 8
		br.bitCount = 64

		return true
	}

	br.bitBuf = 0
	for i := 0; i < toRead; i++ {
		br.bitBuf = (br.bitBuf << 8) | uint64(br.data[br.bytePos])
		br.bytePos++
	}
	br.bitBuf <<= (8 - toRead) * 8
	br.bitCount = toRead * 8

	return true
}

func (br *bitReader) readBit() (uint64, bool) {
	if br.bitCount == 0 && !br.fillBuffer() {
		return 0, false
	}

	bit := br.bitBuf >> 63
	br.bitBuf <<= 1
	br.bitCount--

	return bit, true
}

func (br *bitReader) readBits(numBits int) (uint64, bool) {
	if numBits == 0 {
		return 0, true
	}

	if numBits <= br.bitCount {
		shift := 64 - numBits
		result := br.bitBuf >> shift
		br.bitBuf <<= numBits
		br.bitCount -= numBits

		return result, true
	}

	var result uint64
	first := true
	for numBits > 0 {
		if br.bitCount == 0 && !br.fillBuffer() {
			return 0, false
		}

		toRead := numBits
		if toRead > br.bitCount {
			toRead = br.bitCount
		}

		shift := 64 - toRead
		chunk := br.bitBuf >> shift
		if first {
			result = chunk
			first = false
		} else {
			result = (result << toRead) | chunk
		}

		br.bitBuf <<= toRead
		br.bitCount -= toRead
		numBits -= toRead
	}

	return result, true
}

// DecodeAll decodes count float64 values from src.
func DecodeAll(src []byte, count int) ([]float64, error) {
	if count <= 0 {
		return nil, nil
	}

	br := newBitReader(src)

	firstBits, ok := br.readBits(64)
	if !ok {
		return nil, errs.ErrTruncated
	}

	out := make([]float64, count)
	prevValue := firstBits
	out[0] = math.Float64frombits(prevValue)

	prevTrailing, prevBlockSize := 0, 0

	for i := 1; i < count; i++ {
		controlBit, ok := br.readBit()
		if !ok {
			return nil, errs.ErrTruncated
		}

		if controlBit == 0 {
			out[i] = out[i-1]
			continue
		}

		reuseBit, ok := br.readBit()
		if !ok {
			return nil, errs.ErrTruncated
		}

		var trailing, blockSize int
		if reuseBit == 0 {
			if prevBlockSize == 0 {
				return nil, errs.ErrTruncated
			}
			trailing, blockSize = prevTrailing, prevBlockSize
		} else {
			leadingBits, ok := br.readBits(5)
			if !ok {
				return nil, errs.ErrTruncated
			}
			blockSizeBits, ok := br.readBits(6)
			if !ok {
				return nil, errs.ErrTruncated
			}

			leading := int(leadingBits)
			blockSize = int(blockSizeBits) + 1
			trailing = 64 - leading - blockSize
			if trailing < 0 || trailing > 64 {
				return nil, errs.ErrTruncated
			}

			prevTrailing, prevBlockSize = trailing, blockSize
		}

		meaningful, ok := br.readBits(blockSize)
		if !ok {
			return nil, errs.ErrTruncated
		}

		prevValue ^= meaningful << uint(trailing) //nolint:gosec
		out[i] = math.Float64frombits(prevValue)
	}

	return out, nil
}
