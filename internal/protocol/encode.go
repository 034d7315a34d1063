package protocol

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/danmuck/mcserve/internal/protocol/nbt"
)

func WriteBool(w io.Writer, v bool) (int, error) {
	b := byte(0x00)
	if v {
		b = 0x01
	}
	return w.Write([]byte{b})
}

func WriteInt8(w io.Writer, v int8) (int, error) {
	return w.Write([]byte{byte(v)})
}

func WriteUint8(w io.Writer, v uint8) (int, error) {
	return w.Write([]byte{v})
}

func WriteInt16(w io.Writer, v int16) (int, error) {
	return WriteUint16(w, uint16(v))
}

func WriteUint16(w io.Writer, v uint16) (int, error) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return w.Write(buf[:])
}

func WriteInt32(w io.Writer, v int32) (int, error) {
	return WriteUint32(w, uint32(v))
}

func WriteUint32(w io.Writer, v uint32) (int, error) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return w.Write(buf[:])
}

func WriteInt64(w io.Writer, v int64) (int, error) {
	return WriteUint64(w, uint64(v))
}

func WriteUint64(w io.Writer, v uint64) (int, error) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return w.Write(buf[:])
}

func WriteFloat32(w io.Writer, v float32) (int, error) {
	return WriteUint32(w, math.Float32bits(v))
}

func WriteFloat64(w io.Writer, v float64) (int, error) {
	return WriteUint64(w, math.Float64bits(v))
}

// WriteString writes a varint byte-length prefix followed by the UTF-8 bytes of s.
func WriteString(w io.Writer, s string) (int, error) {
	buf := make([]byte, 0, MaxVarIntLen+len(s))
	buf = AppendVarInt(buf, int32(len(s)))
	buf = append(buf, s...)
	return w.Write(buf)
}

// WriteByteArray writes a varint length prefix followed by b.
func WriteByteArray(w io.Writer, b []byte) (int, error) {
	buf := make([]byte, 0, MaxVarIntLen+len(b))
	buf = AppendVarInt(buf, int32(len(b)))
	buf = append(buf, b...)
	return w.Write(buf)
}

// WriteIdentifier writes id in its namespaced string form.
func WriteIdentifier(w io.Writer, id Identifier) (int, error) {
	return WriteString(w, id.String())
}

// WriteUUID writes both halves big-endian, 16 bytes total.
func WriteUUID(w io.Writer, id UUID) (int, error) {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], id.Most)
	binary.BigEndian.PutUint64(buf[8:16], id.Least)
	return w.Write(buf[:])
}

// WriteNBT writes v as an unnamed-root structured value.
func WriteNBT(w io.Writer, v nbt.Value) (int, error) {
	return nbt.Encode(w, "", v)
}
