// Package packet defines the typed payloads exchanged in each phase and their
// field layouts.
package packet

import (
	"bytes"

	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/frame"
)

// Encodable is a payload the server or a test client can put on the wire.
type Encodable interface {
	PacketID() byte
	Encode(enc *protocol.Encoder)
}

// Decodable is a payload parsed from a frame's bounded payload region.
type Decodable interface {
	PacketID() byte
	Decode(dec *protocol.Decoder)
}

// Marshal encodes p into a frame.
func Marshal(p Encodable) (frame.Frame, error) {
	var buf bytes.Buffer
	enc := protocol.NewEncoder(&buf)
	p.Encode(enc)
	if _, err := enc.Result(); err != nil {
		return frame.Frame{}, err
	}
	return frame.Frame{ID: p.PacketID(), Payload: buf.Bytes()}, nil
}

// Unmarshal decodes f's payload into p. Trailing payload bytes are left
// unread; the frame boundary already keeps the stream in sync.
func Unmarshal(f frame.Frame, p Decodable, maxStringBytes int) error {
	dec := protocol.NewDecoder(f.Reader(), maxStringBytes)
	p.Decode(dec)
	return dec.Err()
}
