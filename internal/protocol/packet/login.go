package packet

import (
	"encoding/json"

	"github.com/danmuck/mcserve/internal/protocol"
)

const (
	// MaxUsernameLen is in characters; the wire bound allows 4 bytes each.
	MaxUsernameLen = 16
	// maxUsernameBytes bounds the declared length before allocation.
	maxUsernameBytes = MaxUsernameLen * 4
	maxServerIDBytes = 20 * 4
	// maxCryptoBytes bounds RSA-sized byte arrays in the key exchange.
	maxCryptoBytes = 1024
	maxChatBytes   = 262144
)

// LoginStart carries the client's chosen username.
type LoginStart struct {
	Name string
}

func (*LoginStart) PacketID() byte { return IDLoginStart }

func (p *LoginStart) Decode(dec *protocol.Decoder) {
	p.Name = dec.StrMax(maxUsernameBytes)
}

func (p *LoginStart) Encode(enc *protocol.Encoder) {
	enc.Str(p.Name)
}

// EncryptionResponse carries the RSA-encrypted shared secret and verify
// token.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (*EncryptionResponse) PacketID() byte { return IDEncryptionResponse }

func (p *EncryptionResponse) Decode(dec *protocol.Decoder) {
	p.SharedSecret = dec.ByteArrayMax(maxCryptoBytes)
	p.VerifyToken = dec.ByteArrayMax(maxCryptoBytes)
}

func (p *EncryptionResponse) Encode(enc *protocol.Encoder) {
	enc.ByteArray(p.SharedSecret)
	enc.ByteArray(p.VerifyToken)
}

// LoginPluginResponse answers a plugin request. Data runs to the end of the
// payload and is only present when Successful is set.
type LoginPluginResponse struct {
	MessageID  int32
	Successful bool
	Data       []byte
}

func (*LoginPluginResponse) PacketID() byte { return IDLoginPluginResponse }

func (p *LoginPluginResponse) Decode(dec *protocol.Decoder) {
	p.MessageID = dec.VarInt()
	p.Successful = dec.Bool()
	if p.Successful {
		p.Data = dec.Rest()
	}
}

func (p *LoginPluginResponse) Encode(enc *protocol.Encoder) {
	enc.VarInt(p.MessageID)
	enc.Bool(p.Successful)
	if p.Successful {
		enc.Raw(p.Data)
	}
}

// EncryptionRequest starts the key exchange. ServerID is empty on modern
// servers.
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

func (*EncryptionRequest) PacketID() byte { return IDEncryptionRequest }

func (p *EncryptionRequest) Decode(dec *protocol.Decoder) {
	p.ServerID = dec.StrMax(maxServerIDBytes)
	p.PublicKey = dec.ByteArrayMax(maxCryptoBytes)
	p.VerifyToken = dec.ByteArrayMax(maxCryptoBytes)
}

func (p *EncryptionRequest) Encode(enc *protocol.Encoder) {
	enc.Str(p.ServerID)
	enc.ByteArray(p.PublicKey)
	enc.ByteArray(p.VerifyToken)
}

type LoginSuccess struct {
	UUID     protocol.UUID
	Username string
}

func (*LoginSuccess) PacketID() byte { return IDLoginSuccess }

func (p *LoginSuccess) Decode(dec *protocol.Decoder) {
	p.UUID = dec.UUID()
	p.Username = dec.StrMax(maxUsernameBytes)
}

func (p *LoginSuccess) Encode(enc *protocol.Encoder) {
	enc.UUID(p.UUID)
	enc.Str(p.Username)
}

// SetCompression switches both sides to the compressed packet format once it
// has been written. Threshold is the minimum body size that gets deflated.
type SetCompression struct {
	Threshold int32
}

func (*SetCompression) PacketID() byte { return IDSetCompression }

func (p *SetCompression) Decode(dec *protocol.Decoder) {
	p.Threshold = dec.VarInt()
}

func (p *SetCompression) Encode(enc *protocol.Encoder) {
	enc.VarInt(p.Threshold)
}

// LoginDisconnect closes a login attempt with a JSON chat component reason.
type LoginDisconnect struct {
	Reason string
}

func (*LoginDisconnect) PacketID() byte { return IDLoginDisconnect }

func (p *LoginDisconnect) Decode(dec *protocol.Decoder) {
	p.Reason = dec.StrMax(maxChatBytes)
}

func (p *LoginDisconnect) Encode(enc *protocol.Encoder) {
	enc.Str(p.Reason)
}

type chatText struct {
	Text string `json:"text"`
}

// ChatText renders s as a plain-text chat component.
func ChatText(s string) string {
	b, err := json.Marshal(chatText{Text: s})
	if err != nil {
		return `{"text":""}`
	}
	return string(b)
}

// Disconnect builds a LoginDisconnect with a plain-text reason.
func Disconnect(reason string) *LoginDisconnect {
	return &LoginDisconnect{Reason: ChatText(reason)}
}
