// Package protocol owns the primitive wire codec for the game protocol.
//
// Ownership boundary:
// - varint/varlong primitives
// - fixed-width big-endian scalars
// - length-prefixed strings, identifiers, uuids, byte arrays
// - nested structured values (delegated to the nbt subpackage)
//
// Every decoder consumes exactly the canonical bytes for its type and never
// reads ahead. All functions operate on plain io.Reader/io.Writer so the same
// code serves blocking sockets and in-memory payload buffers.
package protocol
