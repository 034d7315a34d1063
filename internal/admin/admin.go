// Package admin serves the operator HTTP surface next to the game listener:
// liveness, readiness, prometheus metrics and a snapshot of open connections.
package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/mcserve/internal/auth"
	"github.com/danmuck/mcserve/internal/observability"
)

const shutdownGrace = 5 * time.Second

// Connection is one tracked game connection as reported by /connections.
type Connection struct {
	ID       uint64    `json:"id"`
	Remote   string    `json:"remote"`
	EntityID int32     `json:"entity_id"`
	Accepted time.Time `json:"accepted"`
}

// Source is the game service state the admin routes read.
type Source interface {
	Ready() bool
	Connections() []Connection
}

type Options struct {
	CorsOrigins []string
	// Token, when set, is required as a bearer token on /metrics and
	// /connections. Health and readiness stay open.
	Token string
}

type Server struct {
	src     Source
	opts    Options
	router  *gin.Engine
	started time.Time
}

func New(src Source, opts Options) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{src: src, opts: opts, router: r, started: time.Now()}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.started).String(),
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		ready := s.src.Ready()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":  ready,
			"uptime": time.Since(s.started).String(),
		})
	})

	private := s.router.Group("/")
	if s.opts.Token != "" {
		private.Use(auth.Require(auth.StaticToken{Token: s.opts.Token}))
	}

	private.GET("/metrics", gin.WrapH(promhttp.Handler()))

	private.GET("/connections", func(c *gin.Context) {
		conns := s.src.Connections()
		c.JSON(http.StatusOK, gin.H{
			"count":       len(conns),
			"connections": conns,
		})
	})
}

// Serve blocks on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	log.Info().Str("addr", ln.Addr().String()).Msg("admin listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
