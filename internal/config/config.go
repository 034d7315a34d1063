package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/mcserve/internal/protocol"
	"github.com/danmuck/mcserve/internal/protocol/frame"
	"github.com/danmuck/mcserve/internal/protocol/packet"
	"github.com/danmuck/mcserve/internal/protocol/session"
	"github.com/danmuck/mcserve/internal/world"
)

var ErrInvalid = errors.New("config: invalid")

// Config is the mcserve.toml file shape. Durations are Go duration strings.
type Config struct {
	ListenAddr           string   `toml:"listen_addr"`
	AdminAddr            string   `toml:"admin_addr"`
	AdminToken           string   `toml:"admin_token"`
	CorsOrigins          []string `toml:"cors_origins"`
	OnlineMode           bool     `toml:"online_mode"`
	PublicKeyFile        string   `toml:"public_key_file"`
	PrivateKeyFile       string   `toml:"private_key_file"`
	CompressionThreshold int      `toml:"compression_threshold"`
	ReadTimeout          string   `toml:"read_timeout"`
	WriteTimeout         string   `toml:"write_timeout"`
	LoginTimeout         string   `toml:"login_timeout"`
	MaxPacketBytes       int      `toml:"max_packet_bytes"`
	MaxStringBytes       int      `toml:"max_string_bytes"`
	WorldFile            string   `toml:"world_file"`
	World                World    `toml:"world"`
}

type World struct {
	GameMode            string `toml:"game_mode"`
	WorldName           string `toml:"world_name"`
	DimensionType       string `toml:"dimension_type"`
	Hardcore            bool   `toml:"hardcore"`
	HashedSeed          int64  `toml:"hashed_seed"`
	MaxPlayers          int32  `toml:"max_players"`
	ViewDistance        int32  `toml:"view_distance"`
	SimulationDistance  int32  `toml:"simulation_distance"`
	ReducedDebugInfo    bool   `toml:"reduced_debug_info"`
	EnableRespawnScreen bool   `toml:"enable_respawn_screen"`
	IsDebug             bool   `toml:"is_debug"`
	IsFlat              bool   `toml:"is_flat"`
	FirstEntityID       int32  `toml:"first_entity_id"`
}

func Default() Config {
	sess := session.DefaultConfig()
	ws := world.DefaultSettings()
	return Config{
		ListenAddr:           ":25565",
		AdminAddr:            "",
		CompressionThreshold: sess.CompressionThreshold,
		ReadTimeout:          sess.ReadTimeout.String(),
		WriteTimeout:         sess.WriteTimeout.String(),
		LoginTimeout:         sess.LoginTimeout.String(),
		MaxPacketBytes:       sess.Limits.MaxPacketBytes,
		MaxStringBytes:       sess.MaxStringBytes,
		World: World{
			GameMode:            ws.GameMode.String(),
			WorldName:           ws.WorldName.String(),
			DimensionType:       ws.DimensionType.String(),
			MaxPlayers:          ws.MaxPlayers,
			ViewDistance:        ws.ViewDistance,
			SimulationDistance:  ws.SimulationDistance,
			EnableRespawnScreen: ws.EnableRespawnScreen,
			FirstEntityID:       1,
		},
	}
}

// Load reads path over Default; keys absent from the file keep their default
// and unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	cfg.AdminAddr = strings.TrimSpace(cfg.AdminAddr)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen_addr is required", ErrInvalid)
	}
	if c.PublicKeyFile != "" && c.PrivateKeyFile == "" {
		return fmt.Errorf("%w: public_key_file requires private_key_file", ErrInvalid)
	}
	if _, err := c.Session(); err != nil {
		return err
	}
	if _, err := c.WorldSettings(); err != nil {
		return err
	}
	return nil
}

// Session converts the connection keys into a session.Config.
func (c Config) Session() (session.Config, error) {
	cfg := session.DefaultConfig()
	var err error
	if cfg.ReadTimeout, err = duration("read_timeout", c.ReadTimeout); err != nil {
		return session.Config{}, err
	}
	if cfg.WriteTimeout, err = duration("write_timeout", c.WriteTimeout); err != nil {
		return session.Config{}, err
	}
	if cfg.LoginTimeout, err = duration("login_timeout", c.LoginTimeout); err != nil {
		return session.Config{}, err
	}
	cfg.Limits = frame.Limits{MaxPacketBytes: c.MaxPacketBytes}
	cfg.MaxStringBytes = c.MaxStringBytes
	cfg.CompressionThreshold = c.CompressionThreshold
	cfg.OnlineMode = c.OnlineMode
	if err := cfg.Validate(); err != nil {
		return session.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// WorldSettings converts the [world] table into world.Settings.
func (c Config) WorldSettings() (world.Settings, error) {
	w := c.World
	mode, ok := packet.ParseGameMode(w.GameMode)
	if !ok {
		return world.Settings{}, fmt.Errorf("%w: unknown game_mode %q", ErrInvalid, w.GameMode)
	}
	name, err := protocol.ParseIdentifier(w.WorldName)
	if err != nil {
		return world.Settings{}, fmt.Errorf("%w: world_name: %w", ErrInvalid, err)
	}
	dim, err := protocol.ParseIdentifier(w.DimensionType)
	if err != nil {
		return world.Settings{}, fmt.Errorf("%w: dimension_type: %w", ErrInvalid, err)
	}
	s := world.Settings{
		GameMode:            mode,
		Hardcore:            w.Hardcore,
		WorldName:           name,
		DimensionType:       dim,
		HashedSeed:          w.HashedSeed,
		MaxPlayers:          w.MaxPlayers,
		ViewDistance:        w.ViewDistance,
		SimulationDistance:  w.SimulationDistance,
		ReducedDebugInfo:    w.ReducedDebugInfo,
		EnableRespawnScreen: w.EnableRespawnScreen,
		IsDebug:             w.IsDebug,
		IsFlat:              w.IsFlat,
	}
	if err := s.Validate(); err != nil {
		return world.Settings{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return s, nil
}

func duration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
	}
	return d, nil
}
