// Package client is a minimal login client for the game protocol. It drives
// handshake through JoinGame, handling encryption and compression the way a
// vanilla client does, and is used by the probe command and server tests.
package client

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/mcserve/internal/keys"
	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/frame"
	"github.com/danmuck/mcserve/internal/protocol/packet"
	"github.com/danmuck/mcserve/internal/protocol/transform"
)

var (
	ErrAddressRequired  = errors.New("client: address required")
	ErrUsernameRequired = errors.New("client: username required")
	ErrDisconnected     = errors.New("client: disconnected by server")
	ErrUnexpectedPacket = errors.New("client: unexpected packet")
)

type Config struct {
	Address         string
	Username        string
	ProtocolVersion int32
	ConnectTimeout  time.Duration
	// IOTimeout bounds the whole login exchange.
	IOTimeout time.Duration
	Limits    frame.Limits
}

func DefaultConfig() Config {
	return Config{
		ProtocolVersion: packet.ProtocolVersion,
		ConnectTimeout:  5 * time.Second,
		IOTimeout:       10 * time.Second,
		Limits:          frame.DefaultLimits(),
	}
}

// Session is a connection that has reached play.
type Session struct {
	UUID                 protocol.UUID
	Username             string
	Encrypted            bool
	CompressionThreshold int
	JoinGame             *packet.JoinGame

	conn     net.Conn
	pipeline *transform.Pipeline
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// Send writes one serverbound play packet through the negotiated transforms.
func (s *Session) Send(f frame.Frame) error {
	_, err := s.pipeline.WriteFrame(f)
	return err
}

func (s *Session) ReadFrame() (frame.Frame, error) {
	return s.pipeline.ReadFrame()
}

type Client struct {
	cfg Config
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, ErrUsernameRequired
	}
	if cfg.ProtocolVersion == 0 {
		cfg.ProtocolVersion = packet.ProtocolVersion
	}
	if cfg.Limits.MaxPacketBytes == 0 {
		cfg.Limits = frame.DefaultLimits()
	}
	return &Client{cfg: cfg}, nil
}

// Login dials the server and runs the login phase. On error the connection
// is closed.
func (c *Client) Login(ctx context.Context) (*Session, error) {
	host, port, err := splitAddress(c.cfg.Address)
	if err != nil {
		return nil, err
	}
	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Address)
	if err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	if c.cfg.IOTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.cfg.IOTimeout))
	}

	s := &Session{
		Username:             c.cfg.Username,
		CompressionThreshold: -1,
		conn:                 conn,
		pipeline:             transform.NewPipeline(conn, c.cfg.Limits),
	}
	if err := c.login(s, host, port); err != nil {
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	log.Debug().
		Str("addr", c.cfg.Address).
		Str("uuid", s.UUID.String()).
		Int32("entity_id", s.JoinGame.EntityID).
		Bool("encrypted", s.Encrypted).
		Int("compression_threshold", s.CompressionThreshold).
		Msg("client reached play")
	return s, nil
}

func (c *Client) login(s *Session, host string, port uint16) error {
	if err := s.send(&packet.Handshake{
		ProtocolVersion: c.cfg.ProtocolVersion,
		ServerAddress:   host,
		ServerPort:      port,
		NextState:       packet.NextStateLogin,
	}); err != nil {
		return err
	}
	if err := s.send(&packet.LoginStart{Name: c.cfg.Username}); err != nil {
		return err
	}

	loggedIn := false
	for {
		f, err := s.pipeline.ReadFrame()
		if err != nil {
			return err
		}
		if loggedIn {
			if f.ID != packet.IDJoinGame {
				return fmt.Errorf("%w: play id=0x%02x before join", ErrUnexpectedPacket, f.ID)
			}
			var jg packet.JoinGame
			if err := packet.Unmarshal(f, &jg, 0); err != nil {
				return err
			}
			s.JoinGame = &jg
			return nil
		}

		switch f.ID {
		case packet.IDLoginDisconnect:
			var p packet.LoginDisconnect
			if err := packet.Unmarshal(f, &p, 0); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s", ErrDisconnected, reasonText(p.Reason))
		case packet.IDEncryptionRequest:
			var p packet.EncryptionRequest
			if err := packet.Unmarshal(f, &p, 0); err != nil {
				return err
			}
			if err := s.encrypt(&p); err != nil {
				return err
			}
		case packet.IDSetCompression:
			var p packet.SetCompression
			if err := packet.Unmarshal(f, &p, 0); err != nil {
				return err
			}
			s.CompressionThreshold = int(p.Threshold)
			s.pipeline.EnableCompression(s.CompressionThreshold)
		case packet.IDLoginSuccess:
			var p packet.LoginSuccess
			if err := packet.Unmarshal(f, &p, 0); err != nil {
				return err
			}
			s.UUID = p.UUID
			s.Username = p.Username
			loggedIn = true
		default:
			return fmt.Errorf("%w: login id=0x%02x", ErrUnexpectedPacket, f.ID)
		}
	}
}

func (s *Session) send(p packet.Encodable) error {
	f, err := packet.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.pipeline.WriteFrame(f)
	return err
}

// encrypt answers an EncryptionRequest and switches the stream to AES/CFB8.
// The response itself goes out in the clear.
func (s *Session) encrypt(req *packet.EncryptionRequest) error {
	secret := make([]byte, transform.SecretLen)
	if _, err := rand.Read(secret); err != nil {
		return err
	}
	encSecret, err := keys.Encrypt(req.PublicKey, secret)
	if err != nil {
		return err
	}
	encToken, err := keys.Encrypt(req.PublicKey, req.VerifyToken)
	if err != nil {
		return err
	}
	if err := s.send(&packet.EncryptionResponse{SharedSecret: encSecret, VerifyToken: encToken}); err != nil {
		return err
	}
	if err := s.pipeline.EnableEncryption(secret); err != nil {
		return err
	}
	s.Encrypted = true
	return nil
}

func splitAddress(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("client: address %q: %w", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("client: port %q: %w", portStr, err)
	}
	return host, uint16(port), nil
}

// reasonText pulls the plain text out of a chat component, falling back to
// the raw JSON.
func reasonText(raw string) string {
	var chat struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &chat); err != nil || chat.Text == "" {
		return raw
	}
	return chat.Text
}
