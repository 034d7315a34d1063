package config

import (
	"fmt"
	"os"
	"strings"
)

// Template returns the commented starter document for kind (server|world).
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "world":
		return worldTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `listen_addr = ":25565"
# empty disables the admin HTTP surface
admin_addr = "127.0.0.1:25580"
# bearer token for /metrics and /connections; empty leaves them open
admin_token = ""
cors_origins = ["http://localhost:3000"]

# online_mode runs the encryption handshake; keys are generated when
# private_key_file is empty
online_mode = false
public_key_file = ""
private_key_file = ""

# -1 skips SetCompression; vanilla servers compress from 256 bytes
compression_threshold = -1
# compression_threshold = 256
read_timeout = "30s"
write_timeout = "10s"
login_timeout = "30s"
max_packet_bytes = 2097151
max_string_bytes = 98301

# optional registry description; the built-in overworld is used when empty
world_file = ""

[world]
game_mode = "creative"
world_name = "minecraft:overworld"
dimension_type = "minecraft:overworld"
hardcore = false
hashed_seed = 0
max_players = 20
view_distance = 10
simulation_distance = 10
reduced_debug_info = false
enable_respawn_screen = true
is_debug = false
is_flat = true
first_entity_id = 1
`

const worldTemplate = `[dimension_type."minecraft:overworld"]
piglin_safe = false
natural = true
ambient_light = 0.0
infiniburn = "#minecraft:infiniburn_overworld"
respawn_anchor_works = false
has_skylight = true
bed_works = true
effects = "minecraft:overworld"
has_raids = true
min_y = -64
height = 384
logical_height = 384
coordinate_scale = 1.0
ultrawarm = false
has_ceiling = false

[biome."minecraft:plains"]
precipitation = "rain"
temperature = 0.8
downfall = 0.4
category = "plains"

[biome."minecraft:plains".effects]
sky_color = 7907327
water_fog_color = 329011
fog_color = 12638463
water_color = 4159204
`
