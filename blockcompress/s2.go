package blockcompress

import "github.com/klauspost/compress/s2"

// S2Codec provides Snappy-compatible S2 compression: fast, with a
// compression ratio between LZ4 and Zstd. Good for hot-path frames where
// latency matters more than ratio.
type S2Codec struct{}

var _ Codec = S2Codec{}

// NewS2Codec creates an S2 codec.
func NewS2Codec() S2Codec { return S2Codec{} }

// Compress compresses data using S2.
func (S2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decompresses S2-compressed data.
func (S2Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
