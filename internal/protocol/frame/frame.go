package frame

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/mcserve/internal/protocol"
)

// MaxPacketBytes is the largest length a 3-byte varint prefix can declare,
// which is the ceiling the protocol places on one packet.
const MaxPacketBytes = 1<<21 - 1

var (
	ErrEmptyFrame     = errors.New("frame: declared length has no room for a packet id")
	ErrPacketTooLarge = errors.New("frame: packet too large")
)

// Frame is one packet: a single-byte id scoped to the current phase, and an
// opaque payload.
type Frame struct {
	ID      byte
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPacketBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxPacketBytes: MaxPacketBytes}
}

// MaxPacket is the effective ceiling: MaxPacketBytes clamped to the
// protocol's 21-bit bound, which also applies when unset.
func (l Limits) MaxPacket() int {
	if l.MaxPacketBytes <= 0 || l.MaxPacketBytes > MaxPacketBytes {
		return MaxPacketBytes
	}
	return l.MaxPacketBytes
}

// Len is the length prefix value: id byte plus payload.
func (f Frame) Len() int {
	return 1 + len(f.Payload)
}

// Body returns the id byte followed by the payload, the unit the transform
// pipeline length-delimits and optionally compresses.
func (f Frame) Body() []byte {
	out := make([]byte, 0, f.Len())
	out = append(out, f.ID)
	return append(out, f.Payload...)
}

// Reader exposes exactly the payload region. Reads past its end return
// io.EOF, which the primitive codec reports as protocol.ErrTruncated.
func (f Frame) Reader() *bytes.Reader {
	return bytes.NewReader(f.Payload)
}

// Parse splits a length-stripped packet body into id and payload. The
// payload aliases body.
func Parse(body []byte) (Frame, error) {
	if len(body) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	return Frame{ID: body[0], Payload: body[1:]}, nil
}

// AppendFrame appends the wire form VarInt(len) | id | payload to dst.
func AppendFrame(dst []byte, f Frame) []byte {
	dst = protocol.AppendVarInt(dst, int32(f.Len()))
	dst = append(dst, f.ID)
	return append(dst, f.Payload...)
}

// WriteFrame writes f in a single Write call and returns the bytes written.
func WriteFrame(w io.Writer, f Frame, limits Limits) (int, error) {
	if f.Len() > limits.MaxPacket() {
		return 0, fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, f.Len(), limits.MaxPacket())
	}
	return w.Write(AppendFrame(make([]byte, 0, protocol.MaxVarIntLen+f.Len()), f))
}

// ReadFrame reads one length-prefixed frame and consumes exactly the declared
// number of bytes after the prefix. A clean io.EOF before the prefix is
// returned unchanged.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	body, err := AppendBody(nil, r, limits)
	if err != nil {
		return Frame{}, err
	}
	return Parse(body)
}

// ReadLength reads a packet length prefix and checks it against limits.
func ReadLength(r io.Reader, limits Limits) (int, error) {
	n, err := protocol.ReadVarInt(r)
	if err != nil {
		return 0, err
	}
	switch {
	case n < 0:
		return 0, fmt.Errorf("%w: packet length %d", protocol.ErrNegativeLength, n)
	case n == 0:
		return 0, ErrEmptyFrame
	case int(n) > limits.MaxPacket():
		return 0, fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, n, limits.MaxPacket())
	}
	return int(n), nil
}

// AppendBody reads a length prefix and appends exactly that many following
// bytes to dst.
func AppendBody(dst []byte, r io.Reader, limits Limits) ([]byte, error) {
	n, err := ReadLength(r, limits)
	if err != nil {
		return dst, err
	}
	return AppendN(dst, r, n)
}

// AppendN appends exactly n bytes from r to dst, reporting a short read as
// protocol.ErrTruncated.
func AppendN(dst []byte, r io.Reader, n int) ([]byte, error) {
	start := len(dst)
	dst = append(dst, make([]byte, n)...)
	if _, err := io.ReadFull(r, dst[start:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return dst[:start], fmt.Errorf("%w: packet body", protocol.ErrTruncated)
		}
		return dst[:start], err
	}
	return dst, nil
}
