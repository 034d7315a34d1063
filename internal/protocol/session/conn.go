package session

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/mcserve/internal/protocol/packet"
	"github.com/danmuck/mcserve/internal/protocol/transform"
)

type deadliner interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Conn drives one accepted transport through its Machine: read a frame,
// dispatch it, let the machine write replies, repeat. It is the only place a
// connection is closed.
type Conn struct {
	rw       io.ReadWriter
	cfg      Config
	pipeline *transform.Pipeline
	machine  *Machine
	log      zerolog.Logger
	now      func() time.Time
}

// NewConn wires a fresh pipeline and machine over rw.
func NewConn(rw io.ReadWriter, opts MachineOptions) (*Conn, error) {
	pipeline := transform.NewPipeline(rw, opts.Config.Limits)
	machine, err := NewMachine(pipeline, opts)
	if err != nil {
		return nil, err
	}
	return &Conn{
		rw:       rw,
		cfg:      opts.Config,
		pipeline: pipeline,
		machine:  machine,
		log:      opts.Logger,
		now:      time.Now,
	}, nil
}

func (c *Conn) Machine() *Machine {
	return c.machine
}

// Run loops until the peer closes, ctx is cancelled, or a step fails. A clean
// close at a frame boundary and cancellation both return nil. The transport
// is closed before Run returns when it implements io.Closer.
func (c *Conn) Run(ctx context.Context) error {
	closer, _ := c.rw.(io.Closer)
	if closer != nil {
		defer closer.Close()
		stop := context.AfterFunc(ctx, func() { _ = closer.Close() })
		defer stop()
	}

	var loginDeadline time.Time
	if c.cfg.LoginTimeout > 0 {
		loginDeadline = c.now().Add(c.cfg.LoginTimeout)
	}

	for {
		c.setReadDeadline(loginDeadline)
		f, err := c.pipeline.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.log.Debug().Str("phase", c.machine.Phase().String()).Msg("peer closed")
				return nil
			}
			if IsFormatError(err) {
				return &DecodeError{Phase: c.machine.Phase(), PacketID: FramingPacketID, Err: err}
			}
			return err
		}

		c.setWriteDeadline()
		if err := c.machine.Handle(f); err != nil {
			if ctx.Err() != nil && isClosed(err) {
				return nil
			}
			return err
		}
	}
}

func (c *Conn) setReadDeadline(loginDeadline time.Time) {
	d, ok := c.rw.(deadliner)
	if !ok {
		return
	}
	var deadline time.Time
	if c.cfg.ReadTimeout > 0 {
		deadline = c.now().Add(c.cfg.ReadTimeout)
	}
	if !loginDeadline.IsZero() && c.machine.Phase() != packet.Play {
		if deadline.IsZero() || loginDeadline.Before(deadline) {
			deadline = loginDeadline
		}
	}
	_ = d.SetReadDeadline(deadline)
}

func (c *Conn) setWriteDeadline() {
	d, ok := c.rw.(deadliner)
	if !ok || c.cfg.WriteTimeout <= 0 {
		return
	}
	_ = d.SetWriteDeadline(c.now().Add(c.cfg.WriteTimeout))
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
