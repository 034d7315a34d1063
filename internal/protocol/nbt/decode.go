package nbt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// growCap bounds up-front allocation for declared lengths; longer sequences
// grow as bytes actually arrive, so a lying length prefix fails on EOF
// instead of allocating.
const growCap = 4096

// Decode reads one named root value. Nesting depth is bounded only by memory.
func Decode(r io.Reader) (string, Value, error) {
	d := &decoder{r: r}
	tag, err := d.tag()
	if err != nil {
		return "", nil, err
	}
	if tag == TagEnd {
		return "", nil, fmt.Errorf("%w: root is end tag", ErrMalformed)
	}
	name, err := d.str()
	if err != nil {
		return "", nil, err
	}
	v, err := d.payload(tag)
	if err != nil {
		return "", nil, err
	}
	return name, v, nil
}

type decoder struct {
	r       io.Reader
	scratch [8]byte
}

func (d *decoder) read(n int) ([]byte, error) {
	if _, err := io.ReadFull(d.r, d.scratch[:n]); err != nil {
		return nil, malformed(err)
	}
	return d.scratch[:n], nil
}

func malformed(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrMalformed, io.ErrUnexpectedEOF)
	}
	return err
}

func (d *decoder) tag() (Tag, error) {
	b, err := d.read(1)
	if err != nil {
		return 0, err
	}
	t := Tag(b[0])
	if !t.valid() {
		return 0, fmt.Errorf("%w: unknown tag %d", ErrMalformed, b[0])
	}
	return t, nil
}

func (d *decoder) u16() (uint16, error) {
	b, err := d.read(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.read(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.read(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *decoder) length() (int, error) {
	v, err := d.u32()
	if err != nil {
		return 0, err
	}
	n := int32(v)
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrMalformed, n)
	}
	return int(n), nil
}

func (d *decoder) str() (string, error) {
	n, err := d.u16()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", malformed(err)
	}
	return string(buf), nil
}

func (d *decoder) payload(tag Tag) (Value, error) {
	switch tag {
	case TagByte:
		b, err := d.read(1)
		if err != nil {
			return nil, err
		}
		return Byte(int8(b[0])), nil
	case TagShort:
		v, err := d.u16()
		return Short(int16(v)), err
	case TagInt:
		v, err := d.u32()
		return Int(int32(v)), err
	case TagLong:
		v, err := d.u64()
		return Long(int64(v)), err
	case TagFloat:
		v, err := d.u32()
		return Float(math.Float32frombits(v)), err
	case TagDouble:
		v, err := d.u64()
		return Double(math.Float64frombits(v)), err
	case TagByteArray:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 0, min(n, growCap))
		for len(buf) < n {
			chunk := min(n-len(buf), growCap)
			start := len(buf)
			buf = append(buf, make([]byte, chunk)...)
			if _, err := io.ReadFull(d.r, buf[start:]); err != nil {
				return nil, malformed(err)
			}
		}
		return ByteArray(buf), nil
	case TagString:
		s, err := d.str()
		return String(s), err
	case TagIntArray:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		out := make(IntArray, 0, min(n, growCap))
		for i := 0; i < n; i++ {
			v, err := d.u32()
			if err != nil {
				return nil, err
			}
			out = append(out, int32(v))
		}
		return out, nil
	case TagLongArray:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		out := make(LongArray, 0, min(n, growCap))
		for i := 0; i < n; i++ {
			v, err := d.u64()
			if err != nil {
				return nil, err
			}
			out = append(out, int64(v))
		}
		return out, nil
	case TagList:
		return d.list()
	case TagCompound:
		return d.compound()
	}
	return nil, fmt.Errorf("%w: unexpected tag %s", ErrMalformed, tag)
}

func (d *decoder) list() (Value, error) {
	elem, err := d.tag()
	if err != nil {
		return nil, err
	}
	n, err := d.length()
	if err != nil {
		return nil, err
	}
	if elem == TagEnd && n > 0 {
		return nil, fmt.Errorf("%w: list of end tags with length %d", ErrMalformed, n)
	}
	items := make([]Value, 0, min(n, growCap))
	for i := 0; i < n; i++ {
		v, err := d.payload(elem)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return List{Elem: elem, Items: items}, nil
}

func (d *decoder) compound() (Value, error) {
	c := NewCompound()
	for {
		tag, err := d.tag()
		if err != nil {
			return nil, err
		}
		if tag == TagEnd {
			return c, nil
		}
		name, err := d.str()
		if err != nil {
			return nil, err
		}
		v, err := d.payload(tag)
		if err != nil {
			return nil, err
		}
		c.Set(name, v)
	}
}
