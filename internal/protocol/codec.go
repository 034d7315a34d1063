package protocol

import (
	"io"

	"github.com/danmuck/mcserve/internal/protocol/nbt"
)

// Encoder writes a sequence of fields and keeps the first error, so packet
// encoders can list fields without checking each write.
type Encoder struct {
	w   io.Writer
	n   int
	err error
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Result returns the total bytes written and the first error seen.
func (e *Encoder) Result() (int, error) {
	return e.n, e.err
}

func (e *Encoder) add(n int, err error) {
	e.n += n
	e.err = err
}

func (e *Encoder) Bool(v bool) {
	if e.err == nil {
		e.add(WriteBool(e.w, v))
	}
}

func (e *Encoder) Int8(v int8) {
	if e.err == nil {
		e.add(WriteInt8(e.w, v))
	}
}

func (e *Encoder) Uint8(v uint8) {
	if e.err == nil {
		e.add(WriteUint8(e.w, v))
	}
}

func (e *Encoder) Int16(v int16) {
	if e.err == nil {
		e.add(WriteInt16(e.w, v))
	}
}

func (e *Encoder) Uint16(v uint16) {
	if e.err == nil {
		e.add(WriteUint16(e.w, v))
	}
}

func (e *Encoder) Int32(v int32) {
	if e.err == nil {
		e.add(WriteInt32(e.w, v))
	}
}

func (e *Encoder) Int64(v int64) {
	if e.err == nil {
		e.add(WriteInt64(e.w, v))
	}
}

func (e *Encoder) Float32(v float32) {
	if e.err == nil {
		e.add(WriteFloat32(e.w, v))
	}
}

func (e *Encoder) Float64(v float64) {
	if e.err == nil {
		e.add(WriteFloat64(e.w, v))
	}
}

func (e *Encoder) VarInt(v int32) {
	if e.err == nil {
		e.add(WriteVarInt(e.w, v))
	}
}

func (e *Encoder) VarLong(v int64) {
	if e.err == nil {
		e.add(WriteVarLong(e.w, v))
	}
}

func (e *Encoder) Str(v string) {
	if e.err == nil {
		e.add(WriteString(e.w, v))
	}
}

// Raw writes v with no length prefix.
func (e *Encoder) Raw(v []byte) {
	if e.err == nil {
		e.add(e.w.Write(v))
	}
}

func (e *Encoder) ByteArray(v []byte) {
	if e.err == nil {
		e.add(WriteByteArray(e.w, v))
	}
}

func (e *Encoder) Identifier(v Identifier) {
	if e.err == nil {
		e.add(WriteIdentifier(e.w, v))
	}
}

func (e *Encoder) UUID(v UUID) {
	if e.err == nil {
		e.add(WriteUUID(e.w, v))
	}
}

func (e *Encoder) NBT(v nbt.Value) {
	if e.err == nil {
		e.add(WriteNBT(e.w, v))
	}
}

// Decoder reads a sequence of fields from a bounded payload and keeps the
// first error. Running out of payload is always ErrTruncated here.
type Decoder struct {
	r        io.Reader
	maxBytes int
	err      error
}

// NewDecoder wraps r; maxBytes bounds strings and byte arrays (<= 0 means default).
func NewDecoder(r io.Reader, maxBytes int) *Decoder {
	return &Decoder{r: r, maxBytes: maxBytes}
}

func (d *Decoder) Err() error {
	return d.err
}

// Fail records err unless an earlier error is already held.
func (d *Decoder) Fail(err error) {
	d.fail(err)
}

func (d *Decoder) fail(err error) {
	if err != nil && d.err == nil {
		d.err = truncated(err)
	}
}

func (d *Decoder) Bool() bool {
	if d.err != nil {
		return false
	}
	v, err := ReadBool(d.r)
	d.fail(err)
	return v
}

func (d *Decoder) Int8() int8 {
	if d.err != nil {
		return 0
	}
	v, err := ReadInt8(d.r)
	d.fail(err)
	return v
}

func (d *Decoder) Uint8() uint8 {
	if d.err != nil {
		return 0
	}
	v, err := ReadUint8(d.r)
	d.fail(err)
	return v
}

func (d *Decoder) Uint16() uint16 {
	if d.err != nil {
		return 0
	}
	v, err := ReadUint16(d.r)
	d.fail(err)
	return v
}

func (d *Decoder) Int32() int32 {
	if d.err != nil {
		return 0
	}
	v, err := ReadInt32(d.r)
	d.fail(err)
	return v
}

func (d *Decoder) Int64() int64 {
	if d.err != nil {
		return 0
	}
	v, err := ReadInt64(d.r)
	d.fail(err)
	return v
}

func (d *Decoder) VarInt() int32 {
	if d.err != nil {
		return 0
	}
	v, err := ReadVarInt(d.r)
	d.fail(err)
	return v
}

func (d *Decoder) Str() string {
	if d.err != nil {
		return ""
	}
	v, err := ReadString(d.r, d.maxBytes)
	d.fail(err)
	return v
}

// StrMax reads a string with a tighter bound than the decoder default.
func (d *Decoder) StrMax(maxBytes int) string {
	if d.err != nil {
		return ""
	}
	v, err := ReadString(d.r, maxBytes)
	d.fail(err)
	return v
}

func (d *Decoder) ByteArray() []byte {
	if d.err != nil {
		return nil
	}
	v, err := ReadByteArray(d.r, d.maxBytes)
	d.fail(err)
	return v
}

func (d *Decoder) ByteArrayMax(maxBytes int) []byte {
	if d.err != nil {
		return nil
	}
	v, err := ReadByteArray(d.r, maxBytes)
	d.fail(err)
	return v
}

// Rest consumes everything left in the source.
func (d *Decoder) Rest() []byte {
	if d.err != nil {
		return nil
	}
	v, err := io.ReadAll(d.r)
	d.fail(err)
	return v
}

func (d *Decoder) Identifier() Identifier {
	if d.err != nil {
		return Identifier{}
	}
	v, err := ReadIdentifier(d.r, d.maxBytes)
	d.fail(err)
	return v
}

func (d *Decoder) UUID() UUID {
	if d.err != nil {
		return UUID{}
	}
	v, err := ReadUUID(d.r)
	d.fail(err)
	return v
}

func (d *Decoder) NBT() nbt.Value {
	if d.err != nil {
		return nil
	}
	v, err := ReadNBT(d.r)
	d.fail(err)
	return v
}
