package world

import (
	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/nbt"
)

const (
	dimensionTypeRegistry = "minecraft:dimension_type"
	biomeRegistry         = "minecraft:worldgen/biome"
)

// DefaultDimensionType is a vanilla-shaped overworld.
func DefaultDimensionType() *nbt.Compound {
	return nbt.NewCompound().
		Set("piglin_safe", nbt.Bool(false)).
		Set("natural", nbt.Bool(true)).
		Set("ambient_light", nbt.Float(0)).
		Set("infiniburn", nbt.String("#minecraft:infiniburn_overworld")).
		Set("respawn_anchor_works", nbt.Bool(false)).
		Set("has_skylight", nbt.Bool(true)).
		Set("bed_works", nbt.Bool(true)).
		Set("effects", nbt.String("minecraft:overworld")).
		Set("has_raids", nbt.Bool(true)).
		Set("min_y", nbt.Int(-64)).
		Set("height", nbt.Int(384)).
		Set("logical_height", nbt.Int(384)).
		Set("coordinate_scale", nbt.Double(1)).
		Set("ultrawarm", nbt.Bool(false)).
		Set("has_ceiling", nbt.Bool(false))
}

// DefaultBiome is a single temperate biome.
func DefaultBiome() *nbt.Compound {
	effects := nbt.NewCompound()
	for _, color := range []string{"sky_color", "water_fog_color", "fog_color", "water_color"} {
		effects.Set(color, nbt.Int(8364543))
	}
	return nbt.NewCompound().
		Set("precipitation", nbt.String("rain")).
		Set("temperature", nbt.Float(0.8)).
		Set("downfall", nbt.Float(0.4)).
		Set("category", nbt.String("plains")).
		Set("effects", effects)
}

// DefaultDescription is the compiled-in registry set used when no description
// file is configured.
func DefaultDescription() *Description {
	return &Description{
		DimensionTypes: []Entry{{
			Name:    protocol.MustIdentifier("minecraft:overworld"),
			Element: DefaultDimensionType(),
		}},
		Biomes: []Entry{{
			Name:    protocol.MustIdentifier("minecraft:plains"),
			Element: DefaultBiome(),
		}},
	}
}
