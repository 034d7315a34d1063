package world

import (
	"errors"
	"fmt"

	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/packet"
)

var (
	ErrInvalidSettings    = errors.New("world: invalid settings")
	ErrUnknownDimension   = errors.New("world: dimension type not in description")
	ErrInvalidDescription = errors.New("world: invalid description")
)

// Settings are the per-server JoinGame values that are not registry data.
type Settings struct {
	GameMode            packet.GameMode
	Hardcore            bool
	WorldName           protocol.Identifier
	DimensionType       protocol.Identifier
	HashedSeed          int64
	MaxPlayers          int32
	ViewDistance        int32
	SimulationDistance  int32
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	IsDebug             bool
	IsFlat              bool
}

func DefaultSettings() Settings {
	return Settings{
		GameMode:            packet.Survival,
		WorldName:           protocol.MustIdentifier("minecraft:overworld"),
		DimensionType:       protocol.MustIdentifier("minecraft:overworld"),
		MaxPlayers:          20,
		ViewDistance:        10,
		SimulationDistance:  10,
		EnableRespawnScreen: true,
	}
}

func (s Settings) Validate() error {
	if s.GameMode > packet.Spectator {
		return fmt.Errorf("%w: game mode %d", ErrInvalidSettings, s.GameMode)
	}
	if err := s.WorldName.Validate(); err != nil {
		return fmt.Errorf("%w: world name: %w", ErrInvalidSettings, err)
	}
	if err := s.DimensionType.Validate(); err != nil {
		return fmt.Errorf("%w: dimension type: %w", ErrInvalidSettings, err)
	}
	if s.MaxPlayers < 0 {
		return fmt.Errorf("%w: max players %d", ErrInvalidSettings, s.MaxPlayers)
	}
	if s.ViewDistance < 2 || s.ViewDistance > 32 {
		return fmt.Errorf("%w: view distance %d not in 2..32", ErrInvalidSettings, s.ViewDistance)
	}
	if s.SimulationDistance < 2 || s.SimulationDistance > 32 {
		return fmt.Errorf("%w: simulation distance %d not in 2..32", ErrInvalidSettings, s.SimulationDistance)
	}
	return nil
}
