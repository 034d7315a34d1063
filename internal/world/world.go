// Package world builds the registry documents and settings a connection needs
// to enter play. A World is constructed once before the listener starts and
// is never mutated, so connections share it without locking.
package world

import (
	"fmt"

	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/nbt"
	"github.com/danmuck/mcserve/internal/protocol/packet"
)

// Entry is one named registry element.
type Entry struct {
	Name    protocol.Identifier
	Element *nbt.Compound
}

// Description lists registry entries in document order; ids are assigned
// from that order.
type Description struct {
	DimensionTypes []Entry
	Biomes         []Entry
}

func (d *Description) Validate() error {
	if len(d.DimensionTypes) == 0 {
		return fmt.Errorf("%w: no dimension types", ErrInvalidDescription)
	}
	if len(d.Biomes) == 0 {
		return fmt.Errorf("%w: no biomes", ErrInvalidDescription)
	}
	return nil
}

// Codec renders the registry compound sent in JoinGame.
func (d *Description) Codec() *nbt.Compound {
	return nbt.NewCompound().
		Set(dimensionTypeRegistry, registry(dimensionTypeRegistry, d.DimensionTypes)).
		Set(biomeRegistry, registry(biomeRegistry, d.Biomes))
}

func registry(kind string, entries []Entry) *nbt.Compound {
	items := make([]nbt.Value, 0, len(entries))
	for i, e := range entries {
		items = append(items, nbt.NewCompound().
			Set("name", nbt.String(e.Name.String())).
			Set("id", nbt.Int(int32(i))).
			Set("element", e.Element))
	}
	return nbt.NewCompound().
		Set("type", nbt.String(kind)).
		Set("value", nbt.List{Elem: nbt.TagCompound, Items: items})
}

func (d *Description) dimensionType(name protocol.Identifier) (*nbt.Compound, bool) {
	for _, e := range d.DimensionTypes {
		if e.Name.Equal(name) {
			return e.Element, true
		}
	}
	return nil, false
}

// World is the immutable JoinGame source shared by all connections.
type World struct {
	settings  Settings
	codec     *nbt.Compound
	dimension *nbt.Compound
}

// New validates settings against desc and freezes the documents.
func New(settings Settings, desc *Description) (*World, error) {
	if desc == nil {
		desc = DefaultDescription()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	dim, ok := desc.dimensionType(settings.DimensionType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDimension, settings.DimensionType)
	}
	return &World{
		settings:  settings,
		codec:     desc.Codec(),
		dimension: dim,
	}, nil
}

func (w *World) Settings() Settings {
	return w.settings
}

// JoinGame builds the play-phase entry packet for one player.
func (w *World) JoinGame(entityID int32) *packet.JoinGame {
	s := w.settings
	return &packet.JoinGame{
		EntityID:            entityID,
		Hardcore:            s.Hardcore,
		GameMode:            s.GameMode,
		PreviousGameMode:    packet.NoPreviousGameMode,
		WorldNames:          []protocol.Identifier{s.WorldName},
		DimensionCodec:      w.codec,
		Dimension:           w.dimension,
		WorldName:           s.WorldName,
		HashedSeed:          s.HashedSeed,
		MaxPlayers:          s.MaxPlayers,
		ViewDistance:        s.ViewDistance,
		SimulationDistance:  s.SimulationDistance,
		ReducedDebugInfo:    s.ReducedDebugInfo,
		EnableRespawnScreen: s.EnableRespawnScreen,
		IsDebug:             s.IsDebug,
		IsFlat:              s.IsFlat,
	}
}
