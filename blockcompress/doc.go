// Package blockcompress provides general-purpose byte-level compression
// applied to an already codec-encoded payload: a second compression pass
// layered on top of the bit-exact codec formats in codec/, for callers who
// want to trade CPU for further space savings on top of the statistical
// compression the codecs already apply.
//
// # Supported algorithms
//
//   - None: passthrough, zero overhead.
//   - Zstd: best ratio, moderate speed. Good for cold storage / archival
//     frames.
//   - S2: balanced ratio and speed. Good for hot-path frames.
//   - LZ4: fastest decompression. Good for read-heavy workloads.
//
// Compression here is a second stage applied after a codec has already
// exploited the numeric structure of the data; it is not a substitute for
// codec selection, and compressing raw uncompressed values directly is
// usually a worse trade than picking a better codec.
package blockcompress
