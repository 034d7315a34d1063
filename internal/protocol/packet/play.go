package packet

import (
	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/nbt"
)

// GameMode values carried by JoinGame.
type GameMode uint8

const (
	Survival  GameMode = 0
	Creative  GameMode = 1
	Adventure GameMode = 2
	Spectator GameMode = 3
)

// NoPreviousGameMode is sent when the player has no previous game mode.
const NoPreviousGameMode int8 = -1

func (g GameMode) String() string {
	switch g {
	case Survival:
		return "survival"
	case Creative:
		return "creative"
	case Adventure:
		return "adventure"
	case Spectator:
		return "spectator"
	}
	return "unknown"
}

// ParseGameMode accepts the lower-case names used in config files.
func ParseGameMode(s string) (GameMode, bool) {
	for g := Survival; g <= Spectator; g++ {
		if g.String() == s {
			return g, true
		}
	}
	return 0, false
}

// JoinGame is the first play packet. DimensionCodec and Dimension are
// shared, read-only documents.
type JoinGame struct {
	EntityID            int32
	Hardcore            bool
	GameMode            GameMode
	PreviousGameMode    int8
	WorldNames          []protocol.Identifier
	DimensionCodec      nbt.Value
	Dimension           nbt.Value
	WorldName           protocol.Identifier
	HashedSeed          int64
	MaxPlayers          int32
	ViewDistance        int32
	SimulationDistance  int32
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	IsDebug             bool
	IsFlat              bool
}

func (*JoinGame) PacketID() byte { return IDJoinGame }

func (p *JoinGame) Encode(enc *protocol.Encoder) {
	enc.Int32(p.EntityID)
	enc.Bool(p.Hardcore)
	enc.Uint8(uint8(p.GameMode))
	enc.Int8(p.PreviousGameMode)
	enc.VarInt(int32(len(p.WorldNames)))
	for _, name := range p.WorldNames {
		enc.Identifier(name)
	}
	enc.NBT(p.DimensionCodec)
	enc.NBT(p.Dimension)
	enc.Identifier(p.WorldName)
	enc.Int64(p.HashedSeed)
	enc.VarInt(p.MaxPlayers)
	enc.VarInt(p.ViewDistance)
	enc.VarInt(p.SimulationDistance)
	enc.Bool(p.ReducedDebugInfo)
	enc.Bool(p.EnableRespawnScreen)
	enc.Bool(p.IsDebug)
	enc.Bool(p.IsFlat)
}

func (p *JoinGame) Decode(dec *protocol.Decoder) {
	p.EntityID = dec.Int32()
	p.Hardcore = dec.Bool()
	p.GameMode = GameMode(dec.Uint8())
	p.PreviousGameMode = dec.Int8()
	n := dec.VarInt()
	if n < 0 || dec.Err() != nil {
		dec.Fail(protocol.ErrNegativeLength)
		return
	}
	p.WorldNames = make([]protocol.Identifier, 0, min(int(n), 64))
	for i := int32(0); i < n && dec.Err() == nil; i++ {
		p.WorldNames = append(p.WorldNames, dec.Identifier())
	}
	p.DimensionCodec = dec.NBT()
	p.Dimension = dec.NBT()
	p.WorldName = dec.Identifier()
	p.HashedSeed = dec.Int64()
	p.MaxPlayers = dec.VarInt()
	p.ViewDistance = dec.VarInt()
	p.SimulationDistance = dec.VarInt()
	p.ReducedDebugInfo = dec.Bool()
	p.EnableRespawnScreen = dec.Bool()
	p.IsDebug = dec.Bool()
	p.IsFlat = dec.Bool()
}
