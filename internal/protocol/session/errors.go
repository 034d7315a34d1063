package session

import (
	"errors"
	"fmt"

	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/frame"
	"github.com/danmuck/mcserve/internal/protocol/packet"
	"github.com/danmuck/mcserve/internal/protocol/transform"
)

var (
	// ErrPhaseUnimplemented marks a phase this server does not serve. It is
	// fatal but is not a format error.
	ErrPhaseUnimplemented  = errors.New("session: phase not implemented")
	ErrInvalidNextState    = errors.New("session: invalid handshake next state")
	ErrUnsupportedVersion  = errors.New("session: unsupported protocol version")
	ErrInvalidUsername     = errors.New("session: invalid username")
	ErrVerifyTokenMismatch = errors.New("session: verify token mismatch")
	ErrUnexpectedPacket    = errors.New("session: unexpected packet")
)

// FramingPacketID is DecodeError.PacketID when the failure happened before an
// id could be read.
const FramingPacketID = -1

// DecodeError ties a wire format failure to where it happened.
type DecodeError struct {
	Phase    packet.Phase
	PacketID int
	Err      error
}

func (e *DecodeError) Error() string {
	if e.PacketID == FramingPacketID {
		return fmt.Sprintf("session: decode phase=%s framing: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("session: decode phase=%s id=0x%02x: %v", e.Phase, e.PacketID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err means the byte stream itself is corrupt,
// as opposed to a transport failure or a protocol decision.
func IsFormatError(err error) bool {
	switch {
	case err == nil:
		return false
	case protocol.IsFormatError(err),
		errors.Is(err, frame.ErrEmptyFrame),
		errors.Is(err, frame.ErrPacketTooLarge),
		errors.Is(err, transform.ErrCorruptCompressed),
		errors.Is(err, transform.ErrDataLengthMismatch):
		return true
	}
	return false
}
