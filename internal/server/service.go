// Package server accepts game connections and runs one session per
// connection, alongside the optional admin HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/danmuck/mcserve/internal/admin"
	"github.com/danmuck/mcserve/internal/observability"
	"github.com/danmuck/mcserve/internal/protocol/session"
	"github.com/danmuck/mcserve/internal/world"
)

// ServiceConfig is the runtime shape built from the server config file.
type ServiceConfig struct {
	ListenAddr string
	// AdminAddr empty disables the admin HTTP surface.
	AdminAddr     string
	AdminToken    string
	CorsOrigins   []string
	FirstEntityID int32
	Session       session.Config
	World         *world.World
	Keys          session.KeyExchange
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ListenAddr:    ":25565",
		FirstEntityID: 1,
		Session:       session.DefaultConfig(),
	}
}

type trackedConn struct {
	info   admin.Connection
	cancel context.CancelFunc
}

// Service owns the game listener and every connection accepted on it.
type Service struct {
	cfg ServiceConfig

	connsMu sync.Mutex
	conns   map[net.Conn]trackedConn

	nextConnID   atomic.Uint64
	nextEntityID atomic.Int32
	listening    atomic.Bool
	wg           sync.WaitGroup
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = DefaultServiceConfig().ListenAddr
	}
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	if cfg.World == nil {
		w, err := world.New(world.DefaultSettings(), world.DefaultDescription())
		if err != nil {
			return nil, err
		}
		cfg.World = w
	}
	if cfg.Session.OnlineMode && cfg.Keys == nil {
		return nil, fmt.Errorf("%w: online mode requires key material", session.ErrInvalidConfig)
	}
	observability.RegisterMetrics()
	s := &Service{
		cfg:   cfg,
		conns: make(map[net.Conn]trackedConn),
	}
	s.nextEntityID.Store(cfg.FirstEntityID)
	return s, nil
}

// Run listens on the configured addresses and blocks until ctx is cancelled
// or either listener fails.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("game listen %s: %w", s.cfg.ListenAddr, err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Serve(gctx, ln)
	})
	if addr := strings.TrimSpace(s.cfg.AdminAddr); addr != "" {
		adminLn, err := net.Listen("tcp", addr)
		if err != nil {
			_ = ln.Close()
			_ = g.Wait()
			return fmt.Errorf("admin listen %s: %w", addr, err)
		}
		srv := admin.New(s, admin.Options{
			CorsOrigins: s.cfg.CorsOrigins,
			Token:       s.cfg.AdminToken,
		})
		g.Go(func() error {
			return srv.Serve(gctx, adminLn)
		})
	}
	return g.Wait()
}

// Serve accepts on ln until ctx is cancelled. On return every connection it
// accepted has been closed and its goroutine has exited.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-done:
		}
	}()

	log.Info().
		Str("addr", ln.Addr().String()).
		Bool("online_mode", s.cfg.Session.OnlineMode).
		Int("compression_threshold", s.cfg.Session.CompressionThreshold).
		Msg("game listening")
	s.listening.Store(true)
	defer s.listening.Store(false)
	defer s.wg.Wait()
	defer s.closeAllConns()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		connCtx, cancel := context.WithCancel(ctx)
		info := admin.Connection{
			ID:       s.nextConnID.Add(1),
			Remote:   conn.RemoteAddr().String(),
			EntityID: s.nextEntityID.Add(1) - 1,
			Accepted: time.Now(),
		}
		s.trackConn(conn, trackedConn{info: info, cancel: cancel})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer cancel()
			defer s.untrackConn(conn)
			s.handleConn(connCtx, conn, info)
		}()
	}
}

func (s *Service) handleConn(ctx context.Context, conn net.Conn, info admin.Connection) {
	logger := log.With().
		Str("remote", info.Remote).
		Uint64("conn_id", info.ID).
		Logger()
	observability.RecordConnectionOpened()

	c, err := session.NewConn(conn, session.MachineOptions{
		Config:   s.cfg.Session,
		World:    s.cfg.World,
		Keys:     s.cfg.Keys,
		EntityID: info.EntityID,
		Observer: observability.SessionObserver{},
		Logger:   logger,
	})
	if err != nil {
		_ = conn.Close()
		observability.RecordConnectionClosed("setup")
		logger.Error().Err(err).Msg("session setup failed")
		return
	}
	logger.Info().Int32("entity_id", info.EntityID).Msg("connection accepted")

	err = c.Run(ctx)
	reason := closeReason(ctx, err)
	observability.RecordConnectionClosed(reason)

	m := c.Machine()
	event := logger.Info()
	if reason == "format" || reason == "protocol" {
		event = logger.Warn()
	}
	event.
		Err(err).
		Str("reason", reason).
		Str("phase", m.Phase().String()).
		Str("username", m.Username()).
		Dur("duration", time.Since(info.Accepted)).
		Msg("connection closed")
}

// closeReason buckets a Conn.Run result for logs and metrics.
func closeReason(ctx context.Context, err error) string {
	switch {
	case err == nil && ctx.Err() != nil:
		return "shutdown"
	case err == nil:
		return "eof"
	case session.IsFormatError(err):
		return "format"
	case errors.Is(err, session.ErrPhaseUnimplemented):
		return "unimplemented"
	case isIOError(err):
		return "io"
	default:
		return "protocol"
	}
}

func isIOError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}

// Ready reports whether the game listener is accepting.
func (s *Service) Ready() bool {
	return s.listening.Load()
}

// Connections returns the tracked connections ordered by accept order.
func (s *Service) Connections() []admin.Connection {
	s.connsMu.Lock()
	out := make([]admin.Connection, 0, len(s.conns))
	for _, tc := range s.conns {
		out = append(out, tc.info)
	}
	s.connsMu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) trackConn(conn net.Conn, tc trackedConn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = tc
}

func (s *Service) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Service) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn, tc := range s.conns {
		tc.cancel()
		_ = conn.Close()
		delete(s.conns, conn)
	}
}
