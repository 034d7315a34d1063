package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmuck/mcserve/internal/protocol/packet"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mcserve",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mcserve",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mcserve",
			Subsystem: "game",
			Name:      "connections_active",
			Help:      "Game connections currently open.",
		},
	)
	connectionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mcserve",
			Subsystem: "game",
			Name:      "connections_closed_total",
			Help:      "Game connections closed, by reason.",
		},
		[]string{"reason"},
	)
	packets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mcserve",
			Subsystem: "game",
			Name:      "packets_total",
			Help:      "Packets processed, by phase and direction.",
		},
		[]string{"phase", "direction", "known"},
	)
	bytesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mcserve",
			Subsystem: "game",
			Name:      "bytes_sent_total",
			Help:      "Bytes written to game transports after transforms.",
		},
		[]string{"phase"},
	)
	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mcserve",
			Subsystem: "game",
			Name:      "logins_total",
			Help:      "Completed logins.",
		},
		[]string{"encrypted", "compressed"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			connectionsActive, connectionsClosed, packets, bytesSent, logins,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordConnectionOpened() {
	RegisterMetrics()
	connectionsActive.Inc()
}

// RecordConnectionClosed takes one of the server's close reasons (eof,
// shutdown, format, io, protocol, unimplemented).
func RecordConnectionClosed(reason string) {
	RegisterMetrics()
	connectionsActive.Dec()
	connectionsClosed.WithLabelValues(reason).Inc()
}

// SessionObserver feeds per-connection protocol events into the game
// metrics. The zero value is ready to use.
type SessionObserver struct{}

func (SessionObserver) PacketIn(phase packet.Phase, _ byte, known bool) {
	RegisterMetrics()
	packets.WithLabelValues(phase.String(), "in", strconv.FormatBool(known)).Inc()
}

func (SessionObserver) PacketOut(phase packet.Phase, _ byte, n int) {
	RegisterMetrics()
	packets.WithLabelValues(phase.String(), "out", "true").Inc()
	bytesSent.WithLabelValues(phase.String()).Add(float64(n))
}

func (SessionObserver) LoginCompleted(encrypted, compressed bool) {
	RegisterMetrics()
	logins.WithLabelValues(strconv.FormatBool(encrypted), strconv.FormatBool(compressed)).Inc()
}
