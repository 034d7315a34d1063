package session

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/frame"
	"github.com/danmuck/mcserve/internal/protocol/packet"
	"github.com/danmuck/mcserve/internal/world"
)

const verifyTokenLen = 4

// KeyExchange is the key material the login exchange needs.
type KeyExchange interface {
	PublicKey() []byte
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Transport is the outbound side of a connection's transform pipeline.
type Transport interface {
	WriteFrame(f frame.Frame) (int, error)
	EnableCompression(threshold int)
	EnableEncryption(secret []byte) error
}

// Observer receives per-packet notifications. Implementations must be safe
// for concurrent use across connections.
type Observer interface {
	PacketIn(phase packet.Phase, id byte, known bool)
	PacketOut(phase packet.Phase, id byte, n int)
	LoginCompleted(encrypted, compressed bool)
}

type nopObserver struct{}

func (nopObserver) PacketIn(packet.Phase, byte, bool) {}
func (nopObserver) PacketOut(packet.Phase, byte, int) {}
func (nopObserver) LoginCompleted(bool, bool) {}

// Machine is the protocol state machine for one connection. Only the owning
// connection goroutine may call it.
type Machine struct {
	cfg      Config
	world    *world.World
	keys     KeyExchange
	out      Transport
	observer Observer
	log      zerolog.Logger
	random   io.Reader

	phase           packet.Phase
	entityID        int32
	protocolVersion int32
	username        string
	uuid            protocol.UUID
	verifyToken     []byte
	encrypted       bool
	compressed      bool
}

// MachineOptions carries the shared, read-only collaborators.
type MachineOptions struct {
	Config   Config
	World    *world.World
	Keys     KeyExchange
	EntityID int32
	Observer Observer
	Logger   zerolog.Logger
}

func NewMachine(out Transport, opts MachineOptions) (*Machine, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.World == nil {
		return nil, fmt.Errorf("%w: world is required", ErrInvalidConfig)
	}
	if opts.Config.OnlineMode && opts.Keys == nil {
		return nil, fmt.Errorf("%w: online mode requires key material", ErrInvalidConfig)
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Machine{
		cfg:      opts.Config,
		world:    opts.World,
		keys:     opts.Keys,
		out:      out,
		observer: obs,
		log:      opts.Logger,
		random:   rand.Reader,
		phase:    packet.Handshaking,
		entityID: opts.EntityID,
	}, nil
}

func (m *Machine) Phase() packet.Phase { return m.phase }
func (m *Machine) Username() string { return m.username }
func (m *Machine) UUID() protocol.UUID { return m.uuid }
func (m *Machine) EntityID() int32 { return m.entityID }
func (m *Machine) ProtocolVersion() int32 { return m.protocolVersion }

// Handle dispatches one inbound frame on (phase, id). A nil return means the
// connection continues; any error is fatal to it.
func (m *Machine) Handle(f frame.Frame) error {
	known := packet.Known(m.phase, packet.Serverbound, f.ID)
	m.observer.PacketIn(m.phase, f.ID, known)

	switch m.phase {
	case packet.Handshaking:
		if f.ID == packet.IDHandshake {
			return m.handshake(f)
		}
	case packet.Status:
		return fmt.Errorf("%w: status (id=0x%02x)", ErrPhaseUnimplemented, f.ID)
	case packet.Login:
		switch f.ID {
		case packet.IDLoginStart:
			return m.loginStart(f)
		case packet.IDEncryptionResponse:
			return m.encryptionResponse(f)
		case packet.IDLoginPluginResponse:
			return m.loginPluginResponse(f)
		}
	case packet.Play:
		if known {
			m.log.Debug().
				Str("packet", packet.Name(m.phase, packet.Serverbound, f.ID)).
				Int("length", f.Len()).
				Msg("play packet")
			return nil
		}
	}

	m.log.Warn().
		Str("phase", m.phase.String()).
		Str("packet_id", fmt.Sprintf("0x%02x", f.ID)).
		Int("length", f.Len()).
		Msg("unknown packet skipped")
	return nil
}

func (m *Machine) decode(f frame.Frame, p packet.Decodable) error {
	if err := packet.Unmarshal(f, p, m.cfg.MaxStringBytes); err != nil {
		return &DecodeError{Phase: m.phase, PacketID: int(f.ID), Err: err}
	}
	return nil
}

func (m *Machine) send(p packet.Encodable) error {
	f, err := packet.Marshal(p)
	if err != nil {
		return err
	}
	n, err := m.out.WriteFrame(f)
	if err != nil {
		return err
	}
	m.observer.PacketOut(m.phase, f.ID, n)
	m.log.Debug().
		Str("phase", m.phase.String()).
		Str("packet", packet.Name(m.phase, packet.Clientbound, f.ID)).
		Int("bytes", n).
		Msg("sent")
	return nil
}

// disconnect sends a login disconnect and returns cause for the driver.
func (m *Machine) disconnect(reason string, cause error) error {
	if err := m.send(packet.Disconnect(reason)); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (m *Machine) handshake(f frame.Frame) error {
	var h packet.Handshake
	if err := m.decode(f, &h); err != nil {
		return err
	}
	m.protocolVersion = h.ProtocolVersion
	m.log.Info().
		Int32("protocol_version", h.ProtocolVersion).
		Str("server_address", h.ServerAddress).
		Uint16("server_port", h.ServerPort).
		Int32("next_state", h.NextState).
		Msg("handshake")

	switch h.NextState {
	case packet.NextStateStatus:
		m.phase = packet.Status
	case packet.NextStateLogin:
		m.phase = packet.Login
	default:
		return fmt.Errorf("%w: %d", ErrInvalidNextState, h.NextState)
	}
	return nil
}

func (m *Machine) loginStart(f frame.Frame) error {
	if m.username != "" {
		return fmt.Errorf("%w: second login start", ErrUnexpectedPacket)
	}
	var p packet.LoginStart
	if err := m.decode(f, &p); err != nil {
		return err
	}

	if m.protocolVersion != packet.ProtocolVersion {
		reason := "Outdated client! Please use 1.18.2"
		if m.protocolVersion > packet.ProtocolVersion {
			reason = "Outdated server! I'm still on 1.18.2"
		}
		return m.disconnect(reason, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.protocolVersion))
	}
	if n := utf8.RuneCountInString(p.Name); n == 0 || n > packet.MaxUsernameLen {
		return m.disconnect("Invalid username", fmt.Errorf("%w: %d characters", ErrInvalidUsername, n))
	}

	m.username = p.Name
	m.uuid = protocol.OfflinePlayerUUID(p.Name)
	m.log.Info().Str("username", m.username).Str("uuid", m.uuid.String()).Msg("login start")

	if !m.cfg.OnlineMode {
		return m.completeLogin()
	}
	token := make([]byte, verifyTokenLen)
	if _, err := io.ReadFull(m.random, token); err != nil {
		return fmt.Errorf("session: verify token: %w", err)
	}
	m.verifyToken = token
	return m.send(&packet.EncryptionRequest{
		ServerID:    "",
		PublicKey:   m.keys.PublicKey(),
		VerifyToken: token,
	})
}

func (m *Machine) encryptionResponse(f frame.Frame) error {
	if m.verifyToken == nil {
		return fmt.Errorf("%w: encryption response without request", ErrUnexpectedPacket)
	}
	var p packet.EncryptionResponse
	if err := m.decode(f, &p); err != nil {
		return err
	}
	secret, err := m.keys.Decrypt(p.SharedSecret)
	if err != nil {
		return fmt.Errorf("session: decrypt shared secret: %w", err)
	}
	token, err := m.keys.Decrypt(p.VerifyToken)
	if err != nil {
		return fmt.Errorf("session: decrypt verify token: %w", err)
	}
	if !bytes.Equal(token, m.verifyToken) {
		return m.disconnect("Failed to verify encryption", ErrVerifyTokenMismatch)
	}
	m.verifyToken = nil

	if err := m.out.EnableEncryption(secret); err != nil {
		return err
	}
	m.encrypted = true
	m.log.Debug().Msg("encryption enabled")
	return m.completeLogin()
}

func (m *Machine) loginPluginResponse(f frame.Frame) error {
	var p packet.LoginPluginResponse
	if err := m.decode(f, &p); err != nil {
		return err
	}
	m.log.Debug().Int32("message_id", p.MessageID).Bool("successful", p.Successful).Msg("login plugin response")
	return nil
}

// completeLogin runs the tail of login: optional compression switch,
// LoginSuccess, then JoinGame in play.
func (m *Machine) completeLogin() error {
	if t := m.cfg.CompressionThreshold; t >= 0 {
		if err := m.send(&packet.SetCompression{Threshold: int32(t)}); err != nil {
			return err
		}
		m.out.EnableCompression(t)
		m.compressed = true
	}
	if err := m.send(&packet.LoginSuccess{UUID: m.uuid, Username: m.username}); err != nil {
		return err
	}
	m.phase = packet.Play
	m.observer.LoginCompleted(m.encrypted, m.compressed)
	if err := m.send(m.world.JoinGame(m.entityID)); err != nil {
		return err
	}
	m.log.Info().
		Str("username", m.username).
		Int32("entity_id", m.entityID).
		Bool("encrypted", m.encrypted).
		Bool("compressed", m.compressed).
		Msg("joined")
	return nil
}
