// Package proto defines the wire schema for the pattern-matching service:
// command and status codes, and a cursor/writer pair so every call site
// parses and builds frame bodies the same way instead of hand-rolling
// length-prefixed field parsing per command.
package proto

import (
	"github.com/mattsta/govarint/internal/errs"
	"github.com/mattsta/govarint/internal/varint"
)

// Command is the first byte of every request frame body.
type Command byte

const (
	CmdAdd         Command = 0x01
	CmdRemove      Command = 0x02
	CmdSubscribe   Command = 0x03
	CmdUnsubscribe Command = 0x04
	CmdMatch       Command = 0x05
	CmdList        Command = 0x06
	CmdStats       Command = 0x07
	CmdSave        Command = 0x08
	CmdPing        Command = 0x09
	CmdAuth        Command = 0x0A
)

// String returns Command's name, or "UNKNOWN" for an unrecognized code.
func (c Command) String() string {
	switch c {
	case CmdAdd:
		return "ADD"
	case CmdRemove:
		return "REMOVE"
	case CmdSubscribe:
		return "SUBSCRIBE"
	case CmdUnsubscribe:
		return "UNSUBSCRIBE"
	case CmdMatch:
		return "MATCH"
	case CmdList:
		return "LIST"
	case CmdStats:
		return "STATS"
	case CmdSave:
		return "SAVE"
	case CmdPing:
		return "PING"
	case CmdAuth:
		return "AUTH"
	default:
		return "UNKNOWN"
	}
}

// Status is the first byte of every response frame body.
type Status byte

const (
	StatusOK           Status = 0x00
	StatusError        Status = 0x01
	StatusAuthRequired Status = 0x02
	StatusRateLimited  Status = 0x03
	StatusInvalidCmd   Status = 0x04
)

// String returns Status's name, or "UNKNOWN" for an unrecognized code.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusAuthRequired:
		return "AUTH_REQUIRED"
	case StatusRateLimited:
		return "RATE_LIMITED"
	case StatusInvalidCmd:
		return "INVALID_CMD"
	default:
		return "UNKNOWN"
	}
}

// Cursor reads tagged-varint-delimited fields from a frame body one at a
// time, reporting truncation uniformly instead of each call site hand
// rolling its own bounds checks.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor wraps data for sequential field reads.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Byte reads a single raw byte.
func (c *Cursor) Byte() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, errs.ErrTruncated
	}

	b := c.data[c.pos]
	c.pos++

	return b, nil
}

// Varint reads one tagged varint.
func (c *Cursor) Varint() (uint64, error) {
	v, n := varint.GetTagged(c.data[c.pos:])
	if n == varint.InvalidWidth {
		return 0, errs.ErrTruncated
	}

	c.pos += n

	return v, nil
}

// Bytes reads a tagged-varint length prefix followed by that many raw
// bytes, returning a view into the cursor's backing array.
func (c *Cursor) Bytes() ([]byte, error) {
	length, err := c.Varint()
	if err != nil {
		return nil, err
	}

	if uint64(len(c.data)-c.pos) < length {
		return nil, errs.ErrTruncated
	}

	b := c.data[c.pos : c.pos+int(length)]
	c.pos += int(length)

	return b, nil
}

// String is Bytes with the result converted to a string.
func (c *Cursor) String() (string, error) {
	b, err := c.Bytes()
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Remaining returns every byte not yet consumed.
func (c *Cursor) Remaining() []byte {
	return c.data[c.pos:]
}

// Done reports whether every byte has been consumed.
func (c *Cursor) Done() bool {
	return c.pos >= len(c.data)
}

// Writer accumulates a frame body field by field.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Byte appends a single raw byte.
func (w *Writer) Byte(b byte) *Writer {
	w.buf = append(w.buf, b)

	return w
}

// Varint appends a tagged varint.
func (w *Writer) Varint(v uint64) *Writer {
	w.buf = varint.AppendTagged(w.buf, v)

	return w
}

// Bytes appends a tagged-varint length prefix followed by b.
func (w *Writer) Bytes(b []byte) *Writer {
	w.buf = varint.AppendTagged(w.buf, uint64(len(b)))
	w.buf = append(w.buf, b...)

	return w
}

// String appends s as a length-prefixed byte string.
func (w *Writer) String(s string) *Writer {
	return w.Bytes([]byte(s))
}

// Finish returns the accumulated body.
func (w *Writer) Finish() []byte {
	return w.buf
}

// EncodeRequest builds a full request body: a command byte followed by
// whatever build appends to the writer.
func EncodeRequest(cmd Command, build func(w *Writer)) []byte {
	w := NewWriter().Byte(byte(cmd))
	if build != nil {
		build(w)
	}

	return w.Finish()
}

// EncodeResponse builds a full response body: a status byte followed by
// whatever build appends to the writer.
func EncodeResponse(status Status, build func(w *Writer)) []byte {
	w := NewWriter().Byte(byte(status))
	if build != nil {
		build(w)
	}

	return w.Finish()
}

// DecodeCommand splits a request body into its command byte and a cursor
// over the remaining payload.
func DecodeCommand(body []byte) (Command, *Cursor, error) {
	if len(body) < 1 {
		return 0, nil, errs.ErrTruncated
	}

	return Command(body[0]), NewCursor(body[1:]), nil
}

// DecodeStatus splits a response body into its status byte and a cursor
// over the remaining payload.
func DecodeStatus(body []byte) (Status, *Cursor, error) {
	if len(body) < 1 {
		return 0, nil, errs.ErrTruncated
	}

	return Status(body[0]), NewCursor(body[1:]), nil
}
