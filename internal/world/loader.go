package world

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/nbt"
)

const (
	sectionDimensionType = "dimension_type"
	sectionBiome         = "biome"
)

// fieldTags pins the structured-value type of fields whose TOML type is
// ambiguous. Everything else maps ints to Int (Long when out of range) and
// floats to Float.
var fieldTags = map[string]nbt.Tag{
	"coordinate_scale": nbt.TagDouble,
	"fixed_time":       nbt.TagLong,
}

// LoadDescription reads a world description document: one table per
// registry entry, keyed by identifier, entries kept in document order.
//
//	[dimension_type."minecraft:overworld"]
//	natural = true
//	min_y = -64
//
//	[biome."minecraft:plains"]
//	temperature = 0.8
//	[biome."minecraft:plains".effects]
//	sky_color = 7907327
func LoadDescription(path string) (*Description, error) {
	var raw map[string]any
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("world description load failed (%s): %w", path, err)
	}
	desc, err := buildDescription(raw, md)
	if err != nil {
		return nil, fmt.Errorf("world description invalid (%s): %w", path, err)
	}
	log.Info().
		Str("file", path).
		Int("dimension_types", len(desc.DimensionTypes)).
		Int("biomes", len(desc.Biomes)).
		Msg("world description loaded")
	return desc, nil
}

// ParseDescription is LoadDescription over an in-memory document.
func ParseDescription(doc string) (*Description, error) {
	var raw map[string]any
	md, err := toml.Decode(doc, &raw)
	if err != nil {
		return nil, err
	}
	return buildDescription(raw, md)
}

func buildDescription(raw map[string]any, md toml.MetaData) (*Description, error) {
	for section := range raw {
		if section != sectionDimensionType && section != sectionBiome {
			return nil, fmt.Errorf("%w: unknown section %q", ErrInvalidDescription, section)
		}
	}
	order := childOrder(md)
	desc := &Description{}
	var err error
	if desc.DimensionTypes, err = entries(raw, sectionDimensionType, order); err != nil {
		return nil, err
	}
	if desc.Biomes, err = entries(raw, sectionBiome, order); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

func entries(raw map[string]any, section string, order map[string][]string) ([]Entry, error) {
	v, ok := raw[section]
	if !ok {
		return nil, nil
	}
	table, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a table", ErrInvalidDescription, section)
	}
	var out []Entry
	for _, name := range orderedKeys(table, []string{section}, order) {
		id, err := protocol.ParseIdentifier(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s entry %q: %w", ErrInvalidDescription, section, name, err)
		}
		body, ok := table[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s entry %q must be a table", ErrInvalidDescription, section, name)
		}
		element, err := toCompound(body, []string{section, name}, order)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Name: id, Element: element})
	}
	return out, nil
}

func pathKey(path []string) string {
	return strings.Join(path, "\x00")
}

// childOrder maps each table path to its keys in document order.
func childOrder(md toml.MetaData) map[string][]string {
	order := make(map[string][]string)
	for _, key := range md.Keys() {
		if len(key) == 0 {
			continue
		}
		parent := pathKey(key[:len(key)-1])
		order[parent] = append(order[parent], key[len(key)-1])
	}
	return order
}

// orderedKeys returns m's keys in document order; keys the metadata does not
// know about (array-of-table members) follow in sorted order.
func orderedKeys(m map[string]any, path []string, order map[string][]string) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range order[pathKey(path)] {
		if _, ok := m[k]; ok && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func toCompound(m map[string]any, path []string, order map[string][]string) (*nbt.Compound, error) {
	c := nbt.NewCompound()
	for _, k := range orderedKeys(m, path, order) {
		child := append(append([]string(nil), path...), k)
		v, err := toValue(k, m[k], child, order)
		if err != nil {
			return nil, err
		}
		c.Set(k, v)
	}
	return c, nil
}

func toValue(name string, v any, path []string, order map[string][]string) (nbt.Value, error) {
	switch v := v.(type) {
	case bool:
		return nbt.Bool(v), nil
	case int64:
		if fieldTags[name] == nbt.TagLong || v < math.MinInt32 || v > math.MaxInt32 {
			return nbt.Long(v), nil
		}
		if fieldTags[name] == nbt.TagDouble {
			return nbt.Double(v), nil
		}
		return nbt.Int(v), nil
	case float64:
		if fieldTags[name] == nbt.TagDouble {
			return nbt.Double(v), nil
		}
		return nbt.Float(v), nil
	case string:
		return nbt.String(v), nil
	case map[string]any:
		return toCompound(v, path, order)
	case []map[string]any:
		items := make([]nbt.Value, 0, len(v))
		for _, m := range v {
			c, err := toCompound(m, path, order)
			if err != nil {
				return nil, err
			}
			items = append(items, c)
		}
		return nbt.List{Elem: nbt.TagCompound, Items: items}, nil
	case []any:
		items := make([]nbt.Value, 0, len(v))
		for _, item := range v {
			iv, err := toValue(name, item, path, order)
			if err != nil {
				return nil, err
			}
			if len(items) > 0 && iv.Tag() != items[0].Tag() {
				return nil, fmt.Errorf("%w: %s mixes %s and %s", ErrInvalidDescription,
					strings.Join(path, "."), items[0].Tag(), iv.Tag())
			}
			items = append(items, iv)
		}
		return nbt.NewList(items...), nil
	}
	return nil, fmt.Errorf("%w: %s has unsupported type %T", ErrInvalidDescription, strings.Join(path, "."), v)
}
