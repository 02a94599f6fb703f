// Package codec owns the field-level wire primitives used by message bodies.
//
// Ownership boundary:
// - fixed-width little-endian integers
// - Str0255 bounded strings (one length byte, at most 255 content bytes)
// - zero-copy decoding: decoded strings alias the input buffer
package codec
