package transform

import (
	"bytes"
	"io"

	"github.com/danmuck/mcserve/internal/protocol/frame"
)

// Pipeline composes the compression slot over the encryption slot over one
// transport. It is owned by a single connection goroutine and is not safe
// for concurrent use.
type Pipeline struct {
	conn        io.ReadWriter
	limits      frame.Limits
	compression Transform
	encryption  Transform
	in          *streamReader
	out         bytes.Buffer
}

// NewPipeline starts in the uncompressed, unencrypted configuration.
func NewPipeline(conn io.ReadWriter, limits frame.Limits) *Pipeline {
	p := &Pipeline{
		conn:        conn,
		limits:      limits,
		compression: NewNoCompression(limits),
		encryption:  Passthrough{},
	}
	p.in = &streamReader{p: p}
	return p
}

// ReadFrame recovers the next frame. The returned payload is owned by the
// caller.
func (p *Pipeline) ReadFrame() (frame.Frame, error) {
	body, err := p.compression.ReceivePayload(p.in, nil)
	if err != nil {
		return frame.Frame{}, err
	}
	return frame.Parse(body)
}

// WriteFrame runs f through both slots and returns the bytes that reached the
// transport.
func (p *Pipeline) WriteFrame(f frame.Frame) (int, error) {
	p.out.Reset()
	if _, err := p.compression.SendPayload(&p.out, f.Body()); err != nil {
		return 0, err
	}
	return p.encryption.SendPayload(p.conn, p.out.Bytes())
}

// EnableCompression switches the compression slot. A negative threshold
// restores the uncompressed format.
func (p *Pipeline) EnableCompression(threshold int) {
	if threshold < 0 {
		p.compression = NewNoCompression(p.limits)
		return
	}
	p.compression = NewCompression(threshold, p.limits)
}

// EnableEncryption switches the encryption slot. Bytes already pulled off the
// transport but not yet consumed were read in the clear and are decrypted
// now, so enabling encryption never loses stream position.
func (p *Pipeline) EnableEncryption(secret []byte) error {
	enc, err := NewEncryption(secret)
	if err != nil {
		return err
	}
	enc.Decrypt(p.in.buf[p.in.off:])
	p.encryption = enc
	return nil
}

func (p *Pipeline) Compressed() bool {
	_, ok := p.compression.(*Compression)
	return ok
}

func (p *Pipeline) Encrypted() bool {
	_, ok := p.encryption.(*Encryption)
	return ok
}

// streamReader adapts the encryption slot into an io.Reader for the
// compression slot, holding at most one read's worth of recovered bytes.
type streamReader struct {
	p   *Pipeline
	buf []byte
	off int
	err error
}

func (s *streamReader) fill() error {
	for s.off == len(s.buf) {
		if s.err != nil {
			return s.err
		}
		buf, err := s.p.encryption.ReceivePayload(s.p.conn, s.buf[:0])
		s.buf, s.off, s.err = buf, 0, err
	}
	return nil
}

func (s *streamReader) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if err := s.fill(); err != nil {
		return 0, err
	}
	n := copy(b, s.buf[s.off:])
	s.off += n
	return n, nil
}

func (s *streamReader) ReadByte() (byte, error) {
	if err := s.fill(); err != nil {
		return 0, err
	}
	b := s.buf[s.off]
	s.off++
	return b, nil
}
