package blockcompress

// NoOpCodec bypasses compression entirely, returning the input unchanged.
// Useful as a baseline and for data that a codec has already compressed
// well enough that a second pass isn't worth the CPU.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

// NewNoOpCodec creates a passthrough codec.
func NewNoOpCodec() NoOpCodec { return NoOpCodec{} }

// Compress returns data unchanged.
func (NoOpCodec) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data unchanged.
func (NoOpCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
