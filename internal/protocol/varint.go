package protocol

import "io"

const (
	MaxVarIntLen  = 5
	MaxVarLongLen = 10
)

// AppendVarInt appends the varint encoding of v to dst. Negative values are
// encoded from their two's-complement bit pattern, so they always take 5 bytes.
func AppendVarInt(dst []byte, v int32) []byte {
	uv := uint32(v)
	for uv >= 0x80 {
		dst = append(dst, byte(uv)|0x80)
		uv >>= 7
	}
	return append(dst, byte(uv))
}

// AppendVarLong appends the varlong encoding of v to dst.
func AppendVarLong(dst []byte, v int64) []byte {
	uv := uint64(v)
	for uv >= 0x80 {
		dst = append(dst, byte(uv)|0x80)
		uv >>= 7
	}
	return append(dst, byte(uv))
}

// VarIntSize returns the number of bytes AppendVarInt would produce.
func VarIntSize(v int32) int {
	uv := uint32(v)
	n := 1
	for uv >= 0x80 {
		uv >>= 7
		n++
	}
	return n
}

func WriteVarInt(w io.Writer, v int32) (int, error) {
	var buf [MaxVarIntLen]byte
	return w.Write(AppendVarInt(buf[:0], v))
}

func WriteVarLong(w io.Writer, v int64) (int, error) {
	var buf [MaxVarLongLen]byte
	return w.Write(AppendVarLong(buf[:0], v))
}

// ReadVarInt decodes a varint one byte at a time and stops at the first byte
// with the continuation bit clear. A clean io.EOF before the first byte is
// returned unchanged so callers can detect an orderly close.
func ReadVarInt(r io.Reader) (int32, error) {
	var result uint32
	for i := 0; i < MaxVarIntLen; i++ {
		b, err := readByte(r)
		if err != nil {
			if i == 0 {
				return 0, err
			}
			return 0, truncated(err)
		}
		// The fifth byte may only carry bits 28..31.
		if i == MaxVarIntLen-1 && b&0x70 != 0 {
			return 0, ErrVarIntTooLong
		}
		result |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(result), nil
		}
	}
	return 0, ErrVarIntTooLong
}

func ReadVarLong(r io.Reader) (int64, error) {
	var result uint64
	for i := 0; i < MaxVarLongLen; i++ {
		b, err := readByte(r)
		if err != nil {
			if i == 0 {
				return 0, err
			}
			return 0, truncated(err)
		}
		if i == MaxVarLongLen-1 && b&0x7E != 0 {
			return 0, ErrVarLongTooLong
		}
		result |= uint64(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int64(result), nil
		}
	}
	return 0, ErrVarLongTooLong
}

func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
