package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/mcserve/internal/protocol"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{nil, {0x01}, bytes.Repeat([]byte{0xAB}, 300)}
	for id := 0; id <= 255; id += 51 {
		for _, payload := range payloads {
			in := Frame{ID: byte(id), Payload: payload}
			var buf bytes.Buffer
			n, err := WriteFrame(&buf, in, DefaultLimits())
			if err != nil {
				t.Fatalf("write frame: %v", err)
			}
			if n != buf.Len() {
				t.Fatalf("write reported %d bytes, buffer holds %d", n, buf.Len())
			}
			r := bytes.NewReader(buf.Bytes())
			out, err := ReadFrame(r, DefaultLimits())
			if err != nil {
				t.Fatalf("read frame: %v", err)
			}
			if out.ID != in.ID || !bytes.Equal(out.Payload, in.Payload) {
				t.Fatalf("frame mismatch: got=%+v want=%+v", out, in)
			}
			if r.Len() != 0 {
				t.Fatalf("read left %d of %d bytes", r.Len(), n)
			}
		}
	}
}

func TestReadFrameLeavesNextFrameIntact(t *testing.T) {
	var buf bytes.Buffer
	// unknown id 0x7f with a 4-byte payload the caller never parses
	if _, err := WriteFrame(&buf, Frame{ID: 0x7f, Payload: []byte{1, 2, 3, 4}}, DefaultLimits()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := WriteFrame(&buf, Frame{ID: 0x01, Payload: []byte("next")}, DefaultLimits()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Bytes()[0] != 5 {
		t.Fatalf("expected length prefix 5, got %d", buf.Bytes()[0])
	}
	if _, err := ReadFrame(&buf, DefaultLimits()); err != nil {
		t.Fatalf("read first: %v", err)
	}
	next, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if next.ID != 0x01 || string(next.Payload) != "next" {
		t.Fatalf("stream desynchronized: %+v", next)
	}
}

func TestPayloadReaderIsBounded(t *testing.T) {
	f := Frame{ID: 0, Payload: []byte{0x03, 'a', 'b'}}
	_, err := protocol.ReadString(f.Reader(), 0)
	if !errors.Is(err, protocol.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil), DefaultLimits())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadFrameTruncatedBody(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0x05, 0x00, 0x01}), DefaultLimits())
	if !errors.Is(err, protocol.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadFrameZeroLength(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0x00}), DefaultLimits())
	if !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	limits := Limits{MaxPacketBytes: 16}
	prefix := protocol.AppendVarInt(nil, 17)
	_, err := ReadFrame(bytes.NewReader(prefix), limits)
	if !errors.Is(err, ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
	if _, err := WriteFrame(io.Discard, Frame{Payload: make([]byte, 16)}, limits); !errors.Is(err, ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge on write, got %v", err)
	}
}

func TestReadFrameNegativeLength(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(protocol.AppendVarInt(nil, -1)), DefaultLimits())
	if !errors.Is(err, protocol.ErrNegativeLength) {
		t.Fatalf("expected ErrNegativeLength, got %v", err)
	}
}
