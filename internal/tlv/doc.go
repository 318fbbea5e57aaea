// Package tlv implements the low-level field framing used by the lookaround
// wire protocol.
//
// Fields are either single bytes (tags), fixed-size raw byte runs, or
// length-prefixed byte strings:
//
//	[0-3]   length   Little-endian uint32
//	[4+]    data     length bytes
//
// Readers always check a declared length against a caller-supplied limit
// before allocating, so hostile datagrams cannot force large allocations.
//
// All errors are sentinel values and can be matched with errors.Is.
package tlv
