package blockcompress

import (
	"fmt"

	"github.com/mattsta/govarint/internal/errs"
)

// CompressionType identifies a registered compression algorithm.
type CompressionType uint8

// Supported compression types, in ascending preference order for
// codec/adaptive-style "try them all" callers.
const (
	CompressionNone CompressionType = iota
	CompressionLZ4
	CompressionS2
	CompressionZstd
)

func (t CompressionType) String() string {
	switch t {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionS2:
		return "s2"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Compressor compresses an already-encoded codec payload.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[CompressionType]Codec{
	CompressionNone: NewNoOpCodec(),
	CompressionLZ4:  NewLZ4Codec(),
	CompressionS2:   NewS2Codec(),
	CompressionZstd: NewZstdCodec(),
}

// Get retrieves the built-in Codec for the given compression type.
func Get(t CompressionType) (Codec, error) {
	if c, ok := builtinCodecs[t]; ok {
		return c, nil
	}

	return nil, errs.ErrUnknownCompression
}
