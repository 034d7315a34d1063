// Package session owns the per-connection protocol state machine and the
// connection driver that feeds it.
//
// Ownership boundary:
// - phase tracking and (phase, id) dispatch
// - login sequencing: key exchange, compression switch, join
// - the read/dispatch/reply loop and connection termination
//
// Nothing here is shared between connections except the read-only World and
// key material injected at construction.
package session
