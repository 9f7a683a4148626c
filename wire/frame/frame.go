// Package frame implements the length-prefixed message envelope used by
// the trie server's wire protocol: a tagged varint length followed by an
// opaque payload of that many bytes.
package frame

import (
	"bufio"
	"io"

	"github.com/mattsta/govarint/internal/errs"
	"github.com/mattsta/govarint/internal/varint"
)

// DefaultMaxLength is the maximum payload length accepted by Decode/Read
// when the caller does not specify one of its own.
const DefaultMaxLength = 16 * 1024 * 1024

// Encode writes payload's tagged-varint length followed by payload itself
// and returns the combined bytes. A zero-length payload is rejected:
// callers that need a bare heartbeat send a one-byte payload instead.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, errs.ErrFrameEmpty
	}

	out := make([]byte, 0, varint.MaxTaggedLen+len(payload))
	out = varint.AppendTagged(out, uint64(len(payload)))
	out = append(out, payload...)

	return out, nil
}

// Decode reads one frame from the front of src and returns the payload
// slice (a view into src, not a copy) and the number of bytes consumed.
// maxLength bounds the accepted payload length; pass 0 to use
// DefaultMaxLength.
func Decode(src []byte, maxLength uint64) ([]byte, int, error) {
	if maxLength == 0 {
		maxLength = DefaultMaxLength
	}

	length, n := varint.GetTagged(src)
	if n == varint.InvalidWidth {
		return nil, 0, errs.ErrTruncated
	}

	if length == 0 {
		return nil, 0, errs.ErrFrameEmpty
	}

	if length > maxLength {
		return nil, 0, errs.ErrFrameTooLarge
	}

	total := n + int(length)
	if len(src) < total {
		return nil, 0, errs.ErrTruncated
	}

	return src[n:total], total, nil
}

// Write encodes payload and writes it to w in a single call.
func Write(w io.Writer, payload []byte) error {
	buf, err := Encode(payload)
	if err != nil {
		return err
	}

	_, err = w.Write(buf)

	return err
}

// Read reads one frame from r, blocking until the length prefix and the
// full payload have arrived. maxLength bounds the accepted payload length;
// pass 0 to use DefaultMaxLength.
func Read(r *bufio.Reader, maxLength uint64) ([]byte, error) {
	if maxLength == 0 {
		maxLength = DefaultMaxLength
	}

	length, err := readTaggedVarint(r)
	if err != nil {
		return nil, err
	}

	if length == 0 {
		return nil, errs.ErrFrameEmpty
	}

	if length > maxLength {
		return nil, errs.ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errs.ErrTruncated
		}

		return nil, err
	}

	return payload, nil
}

// readTaggedVarint reads a tagged varint one byte at a time from r, since
// the total length isn't known until the first byte's tag nibble is read.
func readTaggedVarint(r *bufio.Reader) (uint64, error) {
	var buf [varint.MaxTaggedLen]byte

	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	buf[0] = first

	total := varint.TaggedLen(buf[:1])
	if total == varint.InvalidWidth {
		return 0, errs.ErrTruncated
	}

	for i := 1; i < total; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}

			return 0, err
		}
		buf[i] = b
	}

	v, _ := varint.GetTagged(buf[:total])

	return v, nil
}
