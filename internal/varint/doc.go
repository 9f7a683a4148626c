// Package varint provides the two low-level variable-length integer encodings
// that every codec in this module is built from: tagged varints, whose total
// byte length is recoverable from the first byte alone, and external-width
// varints, whose byte width is supplied by the caller rather than encoded
// in-band.
//
// Tagged varints are used anywhere a value must be self-describing on the wire
// (block headers, frame lengths). External-width varints are used anywhere a
// fixed, pre-computed width lets many values be packed with no per-value
// overhead and decoded at a random index in O(1), such as Frame-of-Reference
// offsets.
package varint
