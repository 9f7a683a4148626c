package blockcompress

// ZstdCodec provides Zstandard compression: the best ratio of the
// supported algorithms at moderate speed. Good for cold storage, archival,
// and network transmission where bandwidth matters more than latency.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

// NewZstdCodec creates a Zstd codec using the pure-Go implementation
// (zstd_pure.go) by default; a cgo-backed implementation is available in
// zstd_cgo.go behind a build tag for callers who can pay the cgo cost for
// faster compression.
func NewZstdCodec() ZstdCodec { return ZstdCodec{} }
