package nbt

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Encode writes v as a named root value: tag, name, payload.
func Encode(w io.Writer, name string, v Value) (int, error) {
	if v == nil {
		return 0, ErrNilValue
	}
	e := &encoder{w: w}
	e.byte(byte(v.Tag()))
	e.str(name)
	e.payload(v)
	return e.n, e.err
}

// Size returns the encoded length of v under a root name, without writing it.
func Size(name string, v Value) (int, error) {
	return Encode(io.Discard, name, v)
}

type encoder struct {
	w       io.Writer
	n       int
	err     error
	scratch [8]byte
}

func (e *encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(b)
	e.n += n
	e.err = err
}

func (e *encoder) byte(b byte) {
	e.scratch[0] = b
	e.write(e.scratch[:1])
}

func (e *encoder) u16(v uint16) {
	binary.BigEndian.PutUint16(e.scratch[:2], v)
	e.write(e.scratch[:2])
}

func (e *encoder) u32(v uint32) {
	binary.BigEndian.PutUint32(e.scratch[:4], v)
	e.write(e.scratch[:4])
}

func (e *encoder) u64(v uint64) {
	binary.BigEndian.PutUint64(e.scratch[:8], v)
	e.write(e.scratch[:8])
}

func (e *encoder) str(s string) {
	if len(s) > math.MaxUint16 {
		e.fail(fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(s)))
		return
	}
	e.u16(uint16(len(s)))
	e.write([]byte(s))
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *encoder) payload(v Value) {
	if e.err != nil {
		return
	}
	switch v := v.(type) {
	case Byte:
		e.byte(byte(v))
	case Short:
		e.u16(uint16(v))
	case Int:
		e.u32(uint32(v))
	case Long:
		e.u64(uint64(v))
	case Float:
		e.u32(math.Float32bits(float32(v)))
	case Double:
		e.u64(math.Float64bits(float64(v)))
	case ByteArray:
		e.u32(uint32(len(v)))
		e.write(v)
	case String:
		e.str(string(v))
	case IntArray:
		e.u32(uint32(len(v)))
		for _, x := range v {
			e.u32(uint32(x))
		}
	case LongArray:
		e.u32(uint32(len(v)))
		for _, x := range v {
			e.u64(uint64(x))
		}
	case List:
		e.list(v)
	case *Compound:
		for _, entry := range v.entries {
			if entry.Value == nil {
				e.fail(fmt.Errorf("%w: compound key %q", ErrNilValue, entry.Name))
				return
			}
			e.byte(byte(entry.Value.Tag()))
			e.str(entry.Name)
			e.payload(entry.Value)
		}
		e.byte(byte(TagEnd))
	default:
		e.fail(fmt.Errorf("nbt: unsupported value type %T", v))
	}
}

func (e *encoder) list(l List) {
	elem := l.Elem
	if len(l.Items) > 0 && elem == TagEnd {
		elem = l.Items[0].Tag()
	}
	for i, item := range l.Items {
		if item == nil || item.Tag() != elem {
			e.fail(fmt.Errorf("%w: item %d want %s", ErrListElemMismatch, i, elem))
			return
		}
	}
	e.byte(byte(elem))
	e.u32(uint32(len(l.Items)))
	for _, item := range l.Items {
		e.payload(item)
	}
}
