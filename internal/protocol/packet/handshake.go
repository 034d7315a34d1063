package packet

import "github.com/danmuck/mcserve/internal/protocol"

// maxServerAddress is the declared bound on the handshake address string.
const maxServerAddress = 255 * 3

type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

func (*Handshake) PacketID() byte { return IDHandshake }

func (h *Handshake) Decode(dec *protocol.Decoder) {
	h.ProtocolVersion = dec.VarInt()
	h.ServerAddress = dec.StrMax(maxServerAddress)
	h.ServerPort = dec.Uint16()
	h.NextState = dec.VarInt()
}

func (h *Handshake) Encode(enc *protocol.Encoder) {
	enc.VarInt(h.ProtocolVersion)
	enc.Str(h.ServerAddress)
	enc.Uint16(h.ServerPort)
	enc.VarInt(h.NextState)
}
