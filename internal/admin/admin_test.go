package admin

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/mcserve/internal/observability"
	"github.com/danmuck/mcserve/internal/testutil/testlog"
)

type stubSource struct {
	ready bool
	conns []Connection
}

func (s stubSource) Ready() bool               { return s.ready }
func (s stubSource) Connections() []Connection { return s.conns }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	testlog.Start(t)

	h := New(stubSource{ready: true}, Options{}).Handler()
	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(t, h, "/ready")
	require.Equal(t, http.StatusOK, rec.Code)

	h = New(stubSource{ready: false}, Options{}).Handler()
	rec = get(t, h, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestConnectionsSnapshot(t *testing.T) {
	testlog.Start(t)

	accepted := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	src := stubSource{ready: true, conns: []Connection{
		{ID: 1, Remote: "127.0.0.1:50000", EntityID: 7, Accepted: accepted},
	}}
	rec := get(t, New(src, Options{}).Handler(), "/connections")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count       int          `json:"count"`
		Connections []Connection `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, src.conns, body.Connections)
}

func TestTokenGuardsPrivateRoutes(t *testing.T) {
	testlog.Start(t)

	h := New(stubSource{ready: true}, Options{Token: "s3cret"}).Handler()
	require.Equal(t, http.StatusOK, get(t, h, "/health").Code)
	require.Equal(t, http.StatusOK, get(t, h, "/ready").Code)
	require.Equal(t, http.StatusUnauthorized, get(t, h, "/connections").Code)
	require.Equal(t, http.StatusUnauthorized, get(t, h, "/metrics").Code)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/connections", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointExposesGameCounters(t *testing.T) {
	testlog.Start(t)

	observability.RecordConnectionOpened()
	observability.RecordConnectionClosed("eof")

	rec := get(t, New(stubSource{ready: true}, Options{}).Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "mcserve_game_connections_closed_total"))
}

func TestServeStopsOnCancel(t *testing.T) {
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(stubSource{ready: true}, Options{}).Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("admin server did not stop")
	}
}
