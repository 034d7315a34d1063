package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/danmuck/mcserve/internal/protocol/nbt"
)

// DefaultMaxStringBytes bounds declared string lengths before allocation:
// 32767 UTF-16 code units of at most 3 UTF-8 bytes each.
const DefaultMaxStringBytes = 32767 * 3

func ReadBool(r io.Reader) (bool, error) {
	b, err := ReadUint8(r)
	if err != nil {
		return false, err
	}
	return b != 0x00, nil
}

func ReadInt8(r io.Reader) (int8, error) {
	b, err := ReadUint8(r)
	return int8(b), err
}

func ReadUint8(r io.Reader) (uint8, error) {
	b, err := readByte(r)
	if err != nil {
		return 0, truncated(err)
	}
	return b, nil
}

func ReadInt16(r io.Reader) (int16, error) {
	v, err := ReadUint16(r)
	return int16(v), err
}

func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func ReadInt32(r io.Reader) (int32, error) {
	v, err := ReadUint32(r)
	return int32(v), err
}

func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func ReadInt64(r io.Reader) (int64, error) {
	v, err := ReadUint64(r)
	return int64(v), err
}

func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func ReadFloat32(r io.Reader) (float32, error) {
	v, err := ReadUint32(r)
	return math.Float32frombits(v), err
}

func ReadFloat64(r io.Reader) (float64, error) {
	v, err := ReadUint64(r)
	return math.Float64frombits(v), err
}

// ReadString reads a varint-prefixed UTF-8 string. The declared length is
// checked against maxBytes before anything is allocated; maxBytes <= 0 means
// DefaultMaxStringBytes.
func ReadString(r io.Reader, maxBytes int) (string, error) {
	b, err := readPrefixed(r, maxBytes)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// ReadByteArray reads a varint-prefixed byte array bounded by maxBytes.
func ReadByteArray(r io.Reader, maxBytes int) ([]byte, error) {
	return readPrefixed(r, maxBytes)
}

func ReadIdentifier(r io.Reader, maxBytes int) (Identifier, error) {
	s, err := ReadString(r, maxBytes)
	if err != nil {
		return Identifier{}, err
	}
	return ParseIdentifier(s)
}

func ReadUUID(r io.Reader) (UUID, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return UUID{}, truncated(err)
	}
	return UUID{
		Most:  binary.BigEndian.Uint64(buf[0:8]),
		Least: binary.BigEndian.Uint64(buf[8:16]),
	}, nil
}

// ReadNBT reads one structured value, discarding the root name.
func ReadNBT(r io.Reader) (nbt.Value, error) {
	_, v, err := nbt.Decode(r)
	return v, err
}

// lenReader is satisfied by bounded in-memory sources such as bytes.Reader.
type lenReader interface {
	Len() int
}

func readPrefixed(r io.Reader, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxStringBytes
	}
	n, err := ReadVarInt(r)
	if err != nil {
		return nil, truncated(err)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeLength, n)
	}
	if int(n) > maxBytes {
		return nil, fmt.Errorf("%w: %d > %d", ErrStringTooLong, n, maxBytes)
	}
	if n == 0 {
		return []byte{}, nil
	}
	if lr, ok := r.(lenReader); ok && int(n) > lr.Len() {
		return nil, fmt.Errorf("%w: declared %d, have %d", ErrTruncated, n, lr.Len())
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, truncated(err)
	}
	return buf, nil
}
