package main

import (
	"strings"

	"github.com/danmuck/mcserve/internal/config"
	"github.com/danmuck/mcserve/internal/keys"
	"github.com/danmuck/mcserve/internal/server"
	"github.com/danmuck/mcserve/internal/world"
)

// loadServiceConfig maps mcserve.toml onto server runtime settings. An empty
// path serves with defaults.
func loadServiceConfig(path string) (server.ServiceConfig, error) {
	cfg := config.Default()
	if strings.TrimSpace(path) != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return server.ServiceConfig{}, err
		}
		cfg = loaded
	}

	sess, err := cfg.Session()
	if err != nil {
		return server.ServiceConfig{}, err
	}
	w, err := buildWorld(cfg)
	if err != nil {
		return server.ServiceConfig{}, err
	}

	svc := server.DefaultServiceConfig()
	svc.ListenAddr = cfg.ListenAddr
	svc.AdminAddr = cfg.AdminAddr
	svc.AdminToken = cfg.AdminToken
	svc.CorsOrigins = cfg.CorsOrigins
	svc.FirstEntityID = cfg.World.FirstEntityID
	svc.Session = sess
	svc.World = w

	if sess.OnlineMode {
		kr, err := keys.LoadOrGenerate(cfg.PublicKeyFile, cfg.PrivateKeyFile)
		if err != nil {
			return server.ServiceConfig{}, err
		}
		svc.Keys = kr
	}
	return svc, nil
}

func buildWorld(cfg config.Config) (*world.World, error) {
	settings, err := cfg.WorldSettings()
	if err != nil {
		return nil, err
	}
	desc := world.DefaultDescription()
	if file := strings.TrimSpace(cfg.WorldFile); file != "" {
		if desc, err = world.LoadDescription(file); err != nil {
			return nil, err
		}
	}
	return world.New(settings, desc)
}
