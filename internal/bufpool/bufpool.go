// Package bufpool provides a pooled, growable byte buffer used by codec
// encoders to accumulate output without allocating on every call.
package bufpool

import "sync"

// DefaultSize is the buffer size handed out by Get on first use.
// MaxThreshold is the largest capacity a buffer may have and still be
// returned to the pool by Put; larger buffers are discarded so one
// unusually large block doesn't bloat the pool for every future caller.
const (
	DefaultSize  = 4 * 1024
	MaxThreshold = 1024 * 1024
)

// Buffer is a growable []byte wrapper sized for repeated encode calls.
type Buffer struct {
	B []byte
}

// New creates a Buffer with the given starting capacity.
func New(size int) *Buffer {
	return &Buffer{B: make([]byte, 0, size)}
}

// Bytes returns the buffer's contents.
func (b *Buffer) Bytes() []byte { return b.B }

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.B) }

// Reset empties the buffer while retaining its backing array.
func (b *Buffer) Reset() { b.B = b.B[:0] }

// Grow ensures at least n more bytes can be appended without reallocating.
func (b *Buffer) Grow(n int) {
	if cap(b.B)-len(b.B) >= n {
		return
	}

	growBy := DefaultSize
	if cap(b.B) > 4*DefaultSize {
		growBy = cap(b.B) / 4
	}
	if growBy < n {
		growBy = n
	}

	newBuf := make([]byte, len(b.B), len(b.B)+growBy)
	copy(newBuf, b.B)
	b.B = newBuf
}

// AppendByte appends a single byte, growing the buffer if necessary.
func (b *Buffer) AppendByte(v byte) {
	b.Grow(1)
	b.B = append(b.B, v)
}

// Append appends data, growing the buffer if necessary.
func (b *Buffer) Append(data []byte) {
	b.Grow(len(data))
	b.B = append(b.B, data...)
}

// pool is the process-wide scratch buffer pool used by codec encoders.
var pool = sync.Pool{
	New: func() any { return New(DefaultSize) },
}

// Get retrieves a reset Buffer from the pool.
func Get() *Buffer {
	buf, _ := pool.Get().(*Buffer)
	return buf
}

// Put returns a Buffer to the pool for reuse, discarding it instead if it
// grew beyond MaxThreshold.
func Put(b *Buffer) {
	if b == nil {
		return
	}

	if cap(b.B) > MaxThreshold {
		return
	}

	b.Reset()
	pool.Put(b)
}
