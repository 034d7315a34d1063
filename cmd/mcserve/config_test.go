package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/mcserve/internal/config"
	"github.com/danmuck/mcserve/internal/protocol/nbt"
	"github.com/danmuck/mcserve/internal/protocol/packet"
	"github.com/danmuck/mcserve/internal/testutil/keytest"
	"github.com/danmuck/mcserve/internal/testutil/testlog"
)

func TestLoadServiceConfigDefaults(t *testing.T) {
	testlog.Start(t)

	cfg, err := loadServiceConfig("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.ListenAddr != ":25565" || cfg.AdminAddr != "" {
		t.Fatalf("unexpected addrs: listen=%q admin=%q", cfg.ListenAddr, cfg.AdminAddr)
	}
	if cfg.Keys != nil {
		t.Fatalf("offline defaults should not load keys")
	}
	if cfg.World == nil || cfg.World.Settings().GameMode != packet.Survival {
		t.Fatalf("unexpected world: %+v", cfg.World)
	}
}

func TestLoadServiceConfigOverridesWithKeysAndWorld(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	pub, priv := keytest.WriteFiles(t, dir)
	worldPath := filepath.Join(dir, "world.toml")
	if err := config.WriteTemplate(worldPath, "world", false); err != nil {
		t.Fatalf("write world: %v", err)
	}
	path := filepath.Join(dir, "mcserve.toml")
	content := fmt.Sprintf(`
listen_addr = "127.0.0.1:25570"
admin_addr = "127.0.0.1:25580"
online_mode = true
public_key_file = %q
private_key_file = %q
world_file = %q

[world]
game_mode = "creative"
first_entity_id = 42
`, pub, priv, worldPath)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:25570" || cfg.AdminAddr != "127.0.0.1:25580" {
		t.Fatalf("unexpected addrs: listen=%q admin=%q", cfg.ListenAddr, cfg.AdminAddr)
	}
	if !cfg.Session.OnlineMode || cfg.Keys == nil {
		t.Fatalf("expected online mode with keys")
	}
	if !bytes.Equal(cfg.Keys.PublicKey(), keytest.Keyring(t).PublicKey()) {
		t.Fatalf("loaded key does not match fixture")
	}
	if cfg.FirstEntityID != 42 {
		t.Fatalf("unexpected first entity id: %d", cfg.FirstEntityID)
	}
	jg := cfg.World.JoinGame(42)
	if jg.GameMode != packet.Creative {
		t.Fatalf("unexpected game mode: %s", jg.GameMode)
	}
	height, _ := jg.Dimension.(*nbt.Compound).Get("height")
	if height != nbt.Int(384) {
		t.Fatalf("unexpected dimension height: %v", height)
	}
}

func TestLoadServiceConfigErrors(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	if _, err := loadServiceConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatalf("expected missing file error")
	}

	path := filepath.Join(dir, "bad-world.toml")
	content := fmt.Sprintf("world_file = %q\n", filepath.Join(dir, "nope.toml"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadServiceConfig(path); err == nil {
		t.Fatalf("expected world file error")
	}
}

func TestConfigCommands(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "mcserve.toml")

	var out bytes.Buffer
	cmd := configCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init", "server", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}

	cmd = configCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"validate", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("validated")) {
		t.Fatalf("unexpected output: %q", out.String())
	}

	cmd = versionCmd()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("758")) {
		t.Fatalf("version output missing protocol: %q", out.String())
	}
}
