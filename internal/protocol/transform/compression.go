package transform

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/frame"
)

// NoCompression length-delimits packet bodies without a data-length field.
// Its output is byte-identical to frame.WriteFrame.
type NoCompression struct {
	Limits frame.Limits
}

func NewNoCompression(limits frame.Limits) *NoCompression {
	return &NoCompression{Limits: limits}
}

func (c *NoCompression) SendPayload(w io.Writer, body []byte) (int, error) {
	if _, err := frame.Parse(body); err != nil {
		return 0, err
	}
	f := frame.Frame{ID: body[0], Payload: body[1:]}
	return frame.WriteFrame(w, f, c.Limits)
}

func (c *NoCompression) ReceivePayload(r io.Reader, dst []byte) ([]byte, error) {
	return frame.AppendBody(dst, r, c.Limits)
}

// Compression is the post-SetCompression packet format:
//
//	VarInt(packetLen) | VarInt(dataLen) | data
//
// Bodies of at least Threshold bytes are zlib-deflated and dataLen carries
// their inflated size; smaller bodies are sent raw with dataLen 0.
type Compression struct {
	Threshold int
	Limits    frame.Limits
	Level     int

	buf bytes.Buffer
	zw  *zlib.Writer
}

func NewCompression(threshold int, limits frame.Limits) *Compression {
	return &Compression{Threshold: threshold, Limits: limits, Level: zlib.DefaultCompression}
}

func (c *Compression) SendPayload(w io.Writer, body []byte) (int, error) {
	if len(body) == 0 {
		return 0, frame.ErrEmptyFrame
	}
	if limit := c.Limits.MaxPacket(); len(body) > limit {
		return 0, fmt.Errorf("%w: %d > %d", frame.ErrPacketTooLarge, len(body), limit)
	}

	c.buf.Reset()
	dataLen := 0
	data := body
	if len(body) >= c.Threshold {
		dataLen = len(body)
		if err := c.deflate(body); err != nil {
			return 0, err
		}
		data = c.buf.Bytes()
	}

	packetLen := protocol.VarIntSize(int32(dataLen)) + len(data)
	out := make([]byte, 0, protocol.MaxVarIntLen+packetLen)
	out = protocol.AppendVarInt(out, int32(packetLen))
	out = protocol.AppendVarInt(out, int32(dataLen))
	out = append(out, data...)
	return w.Write(out)
}

func (c *Compression) deflate(body []byte) error {
	if c.zw == nil {
		zw, err := zlib.NewWriterLevel(&c.buf, c.Level)
		if err != nil {
			return err
		}
		c.zw = zw
	} else {
		c.zw.Reset(&c.buf)
	}
	if _, err := c.zw.Write(body); err != nil {
		return err
	}
	return c.zw.Close()
}

func (c *Compression) ReceivePayload(r io.Reader, dst []byte) ([]byte, error) {
	packetLen, err := frame.ReadLength(r, c.Limits)
	if err != nil {
		return dst, err
	}
	packet, err := frame.AppendN(nil, r, packetLen)
	if err != nil {
		return dst, err
	}

	pr := bytes.NewReader(packet)
	dataLen, err := protocol.ReadVarInt(pr)
	if err != nil {
		return dst, fmt.Errorf("%w: data length: %w", ErrCorruptCompressed, err)
	}
	if dataLen == 0 {
		return append(dst, packet[len(packet)-pr.Len():]...), nil
	}

	if dataLen < 0 || int(dataLen) < c.Threshold || int(dataLen) > c.Limits.MaxPacket() {
		return dst, fmt.Errorf("%w: declared %d (threshold %d)", ErrDataLengthMismatch, dataLen, c.Threshold)
	}

	zr, err := zlib.NewReader(pr)
	if err != nil {
		return dst, fmt.Errorf("%w: %w", ErrCorruptCompressed, err)
	}
	defer zr.Close()

	start := len(dst)
	dst = append(dst, make([]byte, dataLen)...)
	if _, err := io.ReadFull(zr, dst[start:]); err != nil {
		return dst[:start], fmt.Errorf("%w: %w", ErrCorruptCompressed, err)
	}
	var extra [1]byte
	n, err := zr.Read(extra[:])
	if n != 0 {
		return dst[:start], fmt.Errorf("%w: inflated past declared %d", ErrDataLengthMismatch, dataLen)
	}
	if err != nil && err != io.EOF {
		return dst[:start], fmt.Errorf("%w: %w", ErrCorruptCompressed, err)
	}
	return dst, nil
}
