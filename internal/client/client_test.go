package client_test

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/mcserve/internal/client"
	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/frame"
	"github.com/danmuck/mcserve/internal/protocol/packet"
	"github.com/danmuck/mcserve/internal/server"
	"github.com/danmuck/mcserve/internal/testutil/keytest"
	"github.com/danmuck/mcserve/internal/testutil/testlog"
)

func startServer(t *testing.T, mutate func(*server.ServiceConfig)) string {
	t.Helper()
	cfg := server.DefaultServiceConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := server.NewService(cfg)
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

func login(t *testing.T, addr, name string) (*client.Session, error) {
	t.Helper()
	cfg := client.DefaultConfig()
	cfg.Address = addr
	cfg.Username = name
	c, err := client.New(cfg)
	require.NoError(t, err)
	return c.Login(context.Background())
}

func TestOfflineCompressedLogin(t *testing.T) {
	testlog.Start(t)

	addr := startServer(t, func(cfg *server.ServiceConfig) {
		cfg.Session.CompressionThreshold = 256
	})
	s, err := login(t, addr, "alex")
	require.NoError(t, err)
	defer s.Close()

	require.False(t, s.Encrypted)
	require.Equal(t, 256, s.CompressionThreshold)
	require.Equal(t, protocol.OfflinePlayerUUID("alex"), s.UUID)
	require.Equal(t, int32(1), s.JoinGame.EntityID)
	require.NoError(t, s.Send(frame.Frame{ID: packet.IDKeepAlive, Payload: make([]byte, 8)}))
}

func TestOnlineLogin(t *testing.T) {
	testlog.Start(t)

	addr := startServer(t, func(cfg *server.ServiceConfig) {
		cfg.Session.OnlineMode = true
		cfg.Session.CompressionThreshold = -1
		cfg.Keys = keytest.Keyring(t)
	})
	s, err := login(t, addr, "steve")
	require.NoError(t, err)
	defer s.Close()

	require.True(t, s.Encrypted)
	require.Equal(t, -1, s.CompressionThreshold)
	require.Equal(t, "steve", s.Username)
	require.NotNil(t, s.JoinGame)
}

func TestServerDisconnectIsReported(t *testing.T) {
	testlog.Start(t)

	addr := startServer(t, nil)
	_, err := login(t, addr, strings.Repeat("x", packet.MaxUsernameLen+1))
	require.ErrorIs(t, err, client.ErrDisconnected)

	cfg := client.DefaultConfig()
	cfg.Address = addr
	cfg.Username = "alex"
	cfg.ProtocolVersion = 757
	c, err := client.New(cfg)
	require.NoError(t, err)
	_, err = c.Login(context.Background())
	require.ErrorIs(t, err, client.ErrDisconnected)
}

func TestNewValidates(t *testing.T) {
	testlog.Start(t)

	_, err := client.New(client.Config{Username: "alex"})
	require.ErrorIs(t, err, client.ErrAddressRequired)
	_, err = client.New(client.Config{Address: "127.0.0.1:25565"})
	require.ErrorIs(t, err, client.ErrUsernameRequired)
}

func TestLoginHonoursCancel(t *testing.T) {
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
			time.Sleep(5 * time.Second)
		}
	}()

	cfg := client.DefaultConfig()
	cfg.Address = ln.Addr().String()
	cfg.Username = "alex"
	c, err := client.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = c.Login(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
