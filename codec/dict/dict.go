// Package dict implements the Dictionary codec: a table of distinct values
// in first-seen order, followed by one tagged-varint index per input
// element referencing that table. It is the right codec for low-cardinality
// columns (status codes, enum-like fields, repeated tags) where many
// elements share a small set of distinct values.
//
// Layout: [entry_count: tagged varint]{[entry_i: tagged varint]} ×
// entry_count [index_j: tagged varint] × element_count.
package dict

import (
	"unsafe"

	"github.com/mattsta/govarint/internal/errs"
	"github.com/mattsta/govarint/internal/varint"
)

// MaxEntries is the largest distinct-value table this codec will build, per
// the 65535-entry dictionary cap.
const MaxEntries = 65535

// Meta is the Dictionary codec's metadata record, pinned to 80 bytes.
type Meta struct {
	EntryCount   uint64
	ElementCount uint64
	TableOffset  uint64
	TableSize    uint64
	IndexOffset  uint64
	EncodedSize  uint64
	CommonWidth  uint8
}

const metaSizeBudget = 80

var _ [metaSizeBudget - int(unsafe.Sizeof(Meta{}))]byte

// Encoder builds a Dictionary-encoded block from values added one at a time
// or in bulk, deduplicating into a first-seen-order table as it goes.
type Encoder struct {
	table   []uint64
	lookup  map[uint64]int
	indices []int
}

// NewEncoder creates an empty Dictionary encoder.
func NewEncoder() *Encoder {
	return &Encoder{lookup: make(map[uint64]int)}
}

// Write adds a single value, returning errs.ErrDictionaryFull if the table
// would grow past MaxEntries.
func (e *Encoder) Write(v uint64) error {
	idx, ok := e.lookup[v]
	if !ok {
		if len(e.table) >= MaxEntries {
			return errs.ErrDictionaryFull
		}
		idx = len(e.table)
		e.table = append(e.table, v)
		e.lookup[v] = idx
	}

	e.indices = append(e.indices, idx)

	return nil
}

// WriteSlice adds values in order.
func (e *Encoder) WriteSlice(values []uint64) error {
	for _, v := range values {
		if err := e.Write(v); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of elements written (not the table size).
func (e *Encoder) Len() int { return len(e.indices) }

// TableLen returns the number of distinct values in the table.
func (e *Encoder) TableLen() int { return len(e.table) }

// Meta computes the metadata record for the encoder's current state.
func (e *Encoder) Meta() Meta {
	entryCount := len(e.table)
	elementCount := len(e.indices)

	tableSize := varint.TaggedSize(uint64(entryCount)) //nolint:gosec
	for _, v := range e.table {
		tableSize += varint.TaggedSize(v)
	}

	indexSize := 0
	for _, idx := range e.indices {
		indexSize += varint.TaggedSize(uint64(idx)) //nolint:gosec
	}

	width := 1
	if entryCount > 0 {
		width = varint.ExternalUnsignedEncoding(uint64(entryCount - 1))
	}

	//nolint:gosec
	return Meta{
		EntryCount:   uint64(entryCount),
		ElementCount: uint64(elementCount),
		TableOffset:  0,
		TableSize:    uint64(tableSize),
		IndexOffset:  uint64(tableSize),
		EncodedSize:  uint64(tableSize + indexSize),
		CommonWidth:  uint8(width),
	}
}

// Bytes serializes the encoder's table and index stream into a new byte
// slice.
func (e *Encoder) Bytes() []byte {
	meta := e.Meta()
	dst := make([]byte, meta.EncodedSize)

	pos := varint.PutTagged(dst, meta.EntryCount)
	for _, v := range e.table {
		pos += varint.PutTagged(dst[pos:], v)
	}
	for _, idx := range e.indices {
		pos += varint.PutTagged(dst[pos:], uint64(idx)) //nolint:gosec
	}

	return dst[:pos]
}

// Encode is the stateless convenience form: it builds a table from values
// and returns the encoded bytes.
func Encode(values []uint64) ([]byte, error) {
	e := NewEncoder()
	if err := e.WriteSlice(values); err != nil {
		return nil, err
	}

	return e.Bytes(), nil
}

// DecodeAll decodes a Dictionary-encoded block back into element_count
// values.
func DecodeAll(src []byte, elementCount int) ([]uint64, error) {
	entryCount, n := varint.GetTagged(src)
	if n == varint.InvalidWidth {
		return nil, errs.ErrTruncated
	}

	pos := n
	table := make([]uint64, entryCount)
	for i := uint64(0); i < entryCount; i++ {
		v, n := varint.GetTagged(src[pos:])
		if n == varint.InvalidWidth {
			return nil, errs.ErrTruncated
		}
		table[i] = v
		pos += n
	}

	out := make([]uint64, elementCount)
	for i := 0; i < elementCount; i++ {
		idx, n := varint.GetTagged(src[pos:])
		if n == varint.InvalidWidth {
			return nil, errs.ErrTruncated
		}
		pos += n

		if idx >= entryCount {
			return nil, errs.ErrIndexOutOfRange
		}
		out[i] = table[idx]
	}

	return out, nil
}
