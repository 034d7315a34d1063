package protocol

import (
	"errors"
	"io"

	"github.com/danmuck/mcserve/internal/protocol/nbt"
)

var (
	ErrVarIntTooLong     = errors.New("protocol: varint too long")
	ErrVarLongTooLong    = errors.New("protocol: varlong too long")
	ErrTruncated         = errors.New("protocol: truncated data")
	ErrStringTooLong     = errors.New("protocol: string too long")
	ErrInvalidUTF8       = errors.New("protocol: invalid utf-8")
	ErrInvalidIdentifier = errors.New("protocol: invalid identifier")
	ErrNegativeLength    = errors.New("protocol: negative length")
)

// IsFormatError reports whether err describes malformed wire data rather than
// a transport failure.
func IsFormatError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrVarIntTooLong),
		errors.Is(err, ErrVarLongTooLong),
		errors.Is(err, ErrTruncated),
		errors.Is(err, ErrStringTooLong),
		errors.Is(err, ErrInvalidUTF8),
		errors.Is(err, ErrInvalidIdentifier),
		errors.Is(err, ErrNegativeLength),
		errors.Is(err, nbt.ErrMalformed):
		return true
	}
	return false
}

// truncated maps a short read in the middle of a value to ErrTruncated.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
