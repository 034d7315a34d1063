// Package transform holds the byte-level layers between the packet framer and
// the transport.
//
// Two slots make up a connection's pipeline. The compression slot is packet
// oriented: it length-delimits one packet body (id + payload) per call,
// optionally deflating it. The encryption slot is stream oriented: it maps
// transport bytes to plaintext bytes with no notion of packet boundaries.
// Either slot can be swapped mid-connection without touching the framer.
package transform

import (
	"errors"
	"io"
)

var (
	ErrCorruptCompressed  = errors.New("transform: corrupt compressed packet")
	ErrDataLengthMismatch = errors.New("transform: uncompressed length mismatch")
	ErrInvalidSecret      = errors.New("transform: shared secret must be 16 bytes")
)

// Transform is one reversible layer.
//
// SendPayload transforms data and writes the result to w, returning the bytes
// written to w. ReceivePayload reads from r and appends the recovered bytes
// to dst: a packet transform appends exactly one packet body, a stream
// transform appends whatever a single read produced.
type Transform interface {
	SendPayload(w io.Writer, data []byte) (int, error)
	ReceivePayload(r io.Reader, dst []byte) ([]byte, error)
}

// minRead is the spare capacity a stream transform guarantees before reading.
const minRead = 512

// grow returns dst with at least minRead bytes of spare capacity.
func grow(dst []byte) []byte {
	if cap(dst)-len(dst) >= minRead {
		return dst
	}
	out := make([]byte, len(dst), 2*cap(dst)+minRead)
	copy(out, dst)
	return out
}

// Passthrough is the identity stream transform.
type Passthrough struct{}

func (Passthrough) SendPayload(w io.Writer, data []byte) (int, error) {
	return w.Write(data)
}

func (Passthrough) ReceivePayload(r io.Reader, dst []byte) ([]byte, error) {
	dst = grow(dst)
	n, err := r.Read(dst[len(dst):cap(dst)])
	return dst[:len(dst)+n], err
}
