package session

import (
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/frame"
	"github.com/danmuck/mcserve/internal/protocol/packet"
	"github.com/danmuck/mcserve/internal/testutil/keytest"
	"github.com/danmuck/mcserve/internal/testutil/testlog"
	"github.com/danmuck/mcserve/internal/world"
)

type recorder struct {
	frames    []frame.Frame
	threshold int
	secret    []byte
}

func (r *recorder) WriteFrame(f frame.Frame) (int, error) {
	r.frames = append(r.frames, f)
	return f.Len(), nil
}

func (r *recorder) EnableCompression(threshold int) { r.threshold = threshold }

func (r *recorder) EnableEncryption(secret []byte) error {
	r.secret = secret
	return nil
}

func testWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(world.DefaultSettings(), nil)
	require.NoError(t, err)
	return w
}

func newTestMachine(t *testing.T, mutate func(*Config)) (*Machine, *recorder) {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	rec := &recorder{threshold: -1}
	m, err := NewMachine(rec, MachineOptions{
		Config:   cfg,
		World:    testWorld(t),
		Keys:     keytest.Keyring(t),
		EntityID: 11,
		Logger:   log.Logger,
	})
	require.NoError(t, err)
	return m, rec
}

func mustFrame(t *testing.T, p packet.Encodable) frame.Frame {
	t.Helper()
	f, err := packet.Marshal(p)
	require.NoError(t, err)
	return f
}

func handshake(nextState int32) *packet.Handshake {
	return &packet.Handshake{
		ProtocolVersion: packet.ProtocolVersion,
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       nextState,
	}
}

func TestHandshakeMovesToLoginWithoutReply(t *testing.T) {
	testlog.Start(t)

	m, rec := newTestMachine(t, nil)
	require.Equal(t, packet.Handshaking, m.Phase())
	require.NoError(t, m.Handle(mustFrame(t, handshake(packet.NextStateLogin))))
	require.Equal(t, packet.Login, m.Phase())
	require.Equal(t, int32(758), m.ProtocolVersion())
	require.Empty(t, rec.frames)
}

func TestHandshakeInvalidNextState(t *testing.T) {
	testlog.Start(t)

	m, _ := newTestMachine(t, nil)
	err := m.Handle(mustFrame(t, handshake(3)))
	require.ErrorIs(t, err, ErrInvalidNextState)
}

func TestStatusIsUnimplemented(t *testing.T) {
	testlog.Start(t)

	m, rec := newTestMachine(t, nil)
	require.NoError(t, m.Handle(mustFrame(t, handshake(packet.NextStateStatus))))
	require.Equal(t, packet.Status, m.Phase())

	err := m.Handle(frame.Frame{ID: 0x00})
	require.ErrorIs(t, err, ErrPhaseUnimplemented)
	require.False(t, IsFormatError(err))
	require.Empty(t, rec.frames)
}

func TestSameIDDependsOnPhase(t *testing.T) {
	testlog.Start(t)

	m, _ := newTestMachine(t, nil)
	// 0x00 is a handshake here; a LoginStart payload would not parse as one
	err := m.Handle(mustFrame(t, &packet.LoginStart{Name: "Steve"}))
	require.Error(t, err)
	require.True(t, IsFormatError(err), "got %v", err)
}

func TestOfflineLoginSendsSuccessThenJoin(t *testing.T) {
	testlog.Start(t)

	m, rec := newTestMachine(t, nil)
	require.NoError(t, m.Handle(mustFrame(t, handshake(packet.NextStateLogin))))
	require.NoError(t, m.Handle(mustFrame(t, &packet.LoginStart{Name: "Steve"})))
	require.Equal(t, packet.Play, m.Phase())
	require.Len(t, rec.frames, 2)
	require.Equal(t, packet.IDLoginSuccess, rec.frames[0].ID)
	require.Equal(t, packet.IDJoinGame, rec.frames[1].ID)

	var ls packet.LoginSuccess
	require.NoError(t, packet.Unmarshal(rec.frames[0], &ls, 0))
	require.Equal(t, "Steve", ls.Username)
	require.Equal(t, protocol.OfflinePlayerUUID("Steve"), ls.UUID)

	var jg packet.JoinGame
	require.NoError(t, packet.Unmarshal(rec.frames[1], &jg, 0))
	require.Equal(t, int32(11), jg.EntityID)
}

func TestDefaultConfigLoginRepliesWithoutCompression(t *testing.T) {
	testlog.Start(t)

	rec := &recorder{threshold: -1}
	m, err := NewMachine(rec, MachineOptions{
		Config:   DefaultConfig(),
		World:    testWorld(t),
		EntityID: 1,
		Logger:   log.Logger,
	})
	require.NoError(t, err)
	require.NoError(t, m.Handle(mustFrame(t, handshake(packet.NextStateLogin))))
	require.NoError(t, m.Handle(mustFrame(t, &packet.LoginStart{Name: "Steve"})))

	ids := []byte{}
	for _, f := range rec.frames {
		ids = append(ids, f.ID)
	}
	require.Equal(t, []byte{packet.IDLoginSuccess, packet.IDJoinGame}, ids)
	require.Equal(t, -1, rec.threshold)
	require.Equal(t, packet.Play, m.Phase())
}

func TestLoginWithCompressionSendsSetCompressionFirst(t *testing.T) {
	testlog.Start(t)

	m, rec := newTestMachine(t, func(c *Config) { c.CompressionThreshold = 64 })
	require.NoError(t, m.Handle(mustFrame(t, handshake(packet.NextStateLogin))))
	require.NoError(t, m.Handle(mustFrame(t, &packet.LoginStart{Name: "Alex"})))
	require.Len(t, rec.frames, 3)
	require.Equal(t, packet.IDSetCompression, rec.frames[0].ID)
	require.Equal(t, 64, rec.threshold)

	var sc packet.SetCompression
	require.NoError(t, packet.Unmarshal(rec.frames[0], &sc, 0))
	require.Equal(t, int32(64), sc.Threshold)
}

func TestLoginRejectsLongUsername(t *testing.T) {
	testlog.Start(t)

	m, rec := newTestMachine(t, nil)
	require.NoError(t, m.Handle(mustFrame(t, handshake(packet.NextStateLogin))))
	err := m.Handle(mustFrame(t, &packet.LoginStart{Name: "ABCDEFGHIJKLMNOPQ"}))
	require.ErrorIs(t, err, ErrInvalidUsername)
	require.Len(t, rec.frames, 1)
	require.Equal(t, packet.IDLoginDisconnect, rec.frames[0].ID)
	require.Equal(t, packet.Login, m.Phase())
}

func TestLoginRejectsOtherProtocolVersion(t *testing.T) {
	testlog.Start(t)

	m, rec := newTestMachine(t, nil)
	h := handshake(packet.NextStateLogin)
	h.ProtocolVersion = 757
	require.NoError(t, m.Handle(mustFrame(t, h)))
	err := m.Handle(mustFrame(t, &packet.LoginStart{Name: "Steve"}))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
	require.Len(t, rec.frames, 1)

	var d packet.LoginDisconnect
	require.NoError(t, packet.Unmarshal(rec.frames[0], &d, 0))
	require.Contains(t, d.Reason, "Outdated client")
}

func TestEncryptionResponseWithoutRequest(t *testing.T) {
	testlog.Start(t)

	m, _ := newTestMachine(t, nil)
	require.NoError(t, m.Handle(mustFrame(t, handshake(packet.NextStateLogin))))
	err := m.Handle(mustFrame(t, &packet.EncryptionResponse{SharedSecret: []byte{1}, VerifyToken: []byte{2}}))
	require.ErrorIs(t, err, ErrUnexpectedPacket)
}

func TestLoginPluginResponseIsNoop(t *testing.T) {
	testlog.Start(t)

	m, rec := newTestMachine(t, nil)
	require.NoError(t, m.Handle(mustFrame(t, handshake(packet.NextStateLogin))))
	require.NoError(t, m.Handle(mustFrame(t, &packet.LoginPluginResponse{MessageID: 1, Successful: true, Data: []byte("x")})))
	require.Equal(t, packet.Login, m.Phase())
	require.Empty(t, rec.frames)
}

func TestUnknownIDsAreSkipped(t *testing.T) {
	testlog.Start(t)

	m, rec := newTestMachine(t, nil)
	require.NoError(t, m.Handle(frame.Frame{ID: 0x42, Payload: []byte{1, 2, 3}}))
	require.Equal(t, packet.Handshaking, m.Phase())
	require.NoError(t, m.Handle(mustFrame(t, handshake(packet.NextStateLogin))))
	require.NoError(t, m.Handle(frame.Frame{ID: 0x42}))
	require.Equal(t, packet.Login, m.Phase())
	require.Empty(t, rec.frames)
}

func TestOnlineModeRequiresKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OnlineMode = true
	_, err := NewMachine(&recorder{}, MachineOptions{Config: cfg, World: testWorld(t)})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
