// Package videohub implements the Blackmagic Videohub Ethernet control
// protocol state and wire format.
//
// # Wire format
//
// The protocol is newline-delimited ASCII. Messages are grouped into blocks:
// a header line ending in a colon, zero or more parameter lines, and a blank
// line terminating the block.
//
//	VIDEO OUTPUT ROUTING:
//	1 0
//
// A freshly connected controller receives the full status dump, which is the
// concatenation of these blocks in order:
//
//	PROTOCOL PREAMBLE
//	VIDEOHUB DEVICE
//	INPUT LABELS
//	OUTPUT LABELS
//	VIDEO OUTPUT ROUTING
//	VIDEO OUTPUT LOCKS
//
// Table holds the canonical labels, routes and lock flags. It is not safe for
// concurrent use; callers serialize access (see the gateway package).
package videohub
