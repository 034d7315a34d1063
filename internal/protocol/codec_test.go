package protocol

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/danmuck/mcserve/internal/protocol/nbt"
)

func TestScalarsBigEndian(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Int16(-2)
	enc.Uint16(0x6DDD)
	enc.Int32(0x01020304)
	enc.Int64(-1)
	enc.Bool(true)
	n, err := enc.Result()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{
		0xff, 0xfe,
		0x6d, 0xdd,
		0x01, 0x02, 0x03, 0x04,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0x01,
	}
	if n != len(want) || !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got n=%d %x want %x", n, buf.Bytes(), want)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Float32(1.5)
	enc.Float64(math.Pi)
	if _, err := enc.Result(); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f32, err := ReadFloat32(&buf)
	if err != nil || f32 != 1.5 {
		t.Fatalf("float32 got %v err=%v", f32, err)
	}
	f64, err := ReadFloat64(&buf)
	if err != nil || f64 != math.Pi {
		t.Fatalf("float64 got %v err=%v", f64, err)
	}
}

func TestBoolNonZeroIsTrue(t *testing.T) {
	v, err := ReadBool(bytes.NewReader([]byte{0x02}))
	if err != nil || !v {
		t.Fatalf("expected true, got %v err=%v", v, err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "localhost", "héllo wörld", "日本語", strings.Repeat("x", 300)} {
		var buf bytes.Buffer
		if _, err := WriteString(&buf, s); err != nil {
			t.Fatalf("write %q: %v", s, err)
		}
		got, err := ReadString(&buf, 0)
		if err != nil || got != s {
			t.Fatalf("round trip %q: got %q err=%v", s, got, err)
		}
	}
}

func TestStringTruncated(t *testing.T) {
	// declares 5 bytes, carries 3
	_, err := ReadString(bytes.NewReader([]byte{0x05, 'a', 'b', 'c'}), 0)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestStringTooLongCheckedBeforeRead(t *testing.T) {
	prefix := AppendVarInt(nil, 17)
	_, err := ReadString(bytes.NewReader(prefix), 16)
	if !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong, got %v", err)
	}

	huge := AppendVarInt(nil, math.MaxInt32)
	_, err = ReadString(bytes.NewReader(huge), 0)
	if !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong for huge prefix, got %v", err)
	}
}

func TestStringNegativeLength(t *testing.T) {
	_, err := ReadString(bytes.NewReader(AppendVarInt(nil, -1)), 0)
	if !errors.Is(err, ErrNegativeLength) {
		t.Fatalf("expected ErrNegativeLength, got %v", err)
	}
}

func TestStringInvalidUTF8(t *testing.T) {
	_, err := ReadString(bytes.NewReader([]byte{0x02, 0xff, 0xfe}), 0)
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	if !IsFormatError(err) {
		t.Fatalf("invalid utf-8 should be a format error")
	}
}

func TestUUIDWireLayout(t *testing.T) {
	u := UUID{Most: 0x0102030405060708, Least: 0x090a0b0c0d0e0f10}
	var buf bytes.Buffer
	if _, err := WriteUUID(&buf, u); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %x want %x", buf.Bytes(), want)
	}
	got, err := ReadUUID(&buf)
	if err != nil || got != u {
		t.Fatalf("round trip got %+v err=%v", got, err)
	}
	if u.String() != "01020304-0506-0708-090a-0b0c0d0e0f10" {
		t.Fatalf("unexpected string form %s", u)
	}
}

func TestOfflinePlayerUUID(t *testing.T) {
	u := OfflinePlayerUUID("Notch")
	g := u.Google()
	if g.Version() != 3 {
		t.Fatalf("expected version 3, got %d", g.Version())
	}
	if g.Variant() != uuid.RFC4122 {
		t.Fatalf("expected RFC4122 variant, got %v", g.Variant())
	}
	if OfflinePlayerUUID("Notch") != u {
		t.Fatalf("offline uuid must be deterministic")
	}
	if OfflinePlayerUUID("notch") == u {
		t.Fatalf("offline uuid must be case sensitive")
	}
	if UUIDFromGoogle(g) != u {
		t.Fatalf("google conversion round trip failed")
	}
}

func TestDecoderStickyError(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.VarInt(758)
	enc.Str("localhost")
	if _, err := enc.Result(); err != nil {
		t.Fatalf("encode: %v", err)
	}

	dec := NewDecoder(bytes.NewReader(buf.Bytes()), 0)
	if v := dec.VarInt(); v != 758 {
		t.Fatalf("varint got %d", v)
	}
	if s := dec.Str(); s != "localhost" {
		t.Fatalf("string got %q", s)
	}
	_ = dec.Uint16()
	_ = dec.VarInt()
	if !errors.Is(dec.Err(), ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", dec.Err())
	}
}

func TestEncoderNBTIsUnnamedRoot(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.NBT(nbt.NewCompound().Set("a", nbt.Byte(1)))
	if _, err := enc.Result(); err != nil {
		t.Fatalf("encode: %v", err)
	}
	// compound tag, empty root name, byte "a"=1, end
	want := []byte{0x0a, 0x00, 0x00, 0x01, 0x00, 0x01, 'a', 0x01, 0x00}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %x want %x", buf.Bytes(), want)
	}
	v := NewDecoder(bytes.NewReader(buf.Bytes()), 0).NBT()
	c, ok := v.(*nbt.Compound)
	if !ok || c.Len() != 1 {
		t.Fatalf("unexpected decoded value %#v", v)
	}
}
