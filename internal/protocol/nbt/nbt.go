// Package nbt implements the tagged binary structured-value format used for
// registry documents: one type-tag byte followed by a type-specific payload,
// with compounds terminated by an end tag.
package nbt

import (
	"errors"
	"fmt"
)

// Tag is the leading type byte of an encoded value.
type Tag byte

// Tag IDs from the structured-value contract.
const (
	TagEnd       Tag = 0
	TagByte      Tag = 1
	TagShort     Tag = 2
	TagInt       Tag = 3
	TagLong      Tag = 4
	TagFloat     Tag = 5
	TagDouble    Tag = 6
	TagByteArray Tag = 7
	TagString    Tag = 8
	TagList      Tag = 9
	TagCompound  Tag = 10
	TagIntArray  Tag = 11
	TagLongArray Tag = 12
)

var tagNames = [...]string{
	"end", "byte", "short", "int", "long", "float", "double",
	"byte_array", "string", "list", "compound", "int_array", "long_array",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", byte(t))
}

func (t Tag) valid() bool {
	return t <= TagLongArray
}

var (
	// ErrMalformed is wrapped by every decode failure.
	ErrMalformed        = errors.New("nbt: malformed value")
	ErrListElemMismatch = errors.New("nbt: list element tag mismatch")
	ErrNameTooLong      = errors.New("nbt: string too long")
	ErrNilValue         = errors.New("nbt: nil value")
)

// Value is any structured value.
type Value interface {
	Tag() Tag
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	ByteArray []byte
	String    string
	IntArray  []int32
	LongArray []int64
)

func (Byte) Tag() Tag      { return TagByte }
func (Short) Tag() Tag     { return TagShort }
func (Int) Tag() Tag       { return TagInt }
func (Long) Tag() Tag      { return TagLong }
func (Float) Tag() Tag     { return TagFloat }
func (Double) Tag() Tag    { return TagDouble }
func (ByteArray) Tag() Tag { return TagByteArray }
func (String) Tag() Tag    { return TagString }
func (IntArray) Tag() Tag  { return TagIntArray }
func (LongArray) Tag() Tag { return TagLongArray }

// Bool is the conventional byte encoding of a flag.
func Bool(v bool) Byte {
	if v {
		return 1
	}
	return 0
}

// List is a homogeneous sequence. Elem is the tag of every item; an empty
// list conventionally carries TagEnd.
type List struct {
	Elem  Tag
	Items []Value
}

func (List) Tag() Tag { return TagList }

// NewList builds a list whose element tag is taken from the first item.
func NewList(items ...Value) List {
	if len(items) == 0 {
		return List{Elem: TagEnd}
	}
	return List{Elem: items[0].Tag(), Items: items}
}

// Entry is one named child of a compound.
type Entry struct {
	Name  string
	Value Value
}

// Compound is a keyed mapping that remembers insertion order, so re-encoding
// a decoded compound reproduces the original bytes.
type Compound struct {
	entries []Entry
	index   map[string]int
}

func (*Compound) Tag() Tag { return TagCompound }

func NewCompound() *Compound {
	return &Compound{index: make(map[string]int)}
}

// Set stores v under name, replacing an existing entry in place.
func (c *Compound) Set(name string, v Value) *Compound {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[name]; ok {
		c.entries[i].Value = v
		return c
	}
	c.index[name] = len(c.entries)
	c.entries = append(c.entries, Entry{Name: name, Value: v})
	return c
}

func (c *Compound) Get(name string) (Value, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.entries[i].Value, true
}

func (c *Compound) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns the children in insertion order.
func (c *Compound) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
