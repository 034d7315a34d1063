package packet

import "fmt"

// Phase selects which packet table an id is interpreted against.
type Phase uint8

const (
	Handshaking Phase = iota
	Status
	Login
	Play
)

func (p Phase) String() string {
	switch p {
	case Handshaking:
		return "handshaking"
	case Status:
		return "status"
	case Login:
		return "login"
	case Play:
		return "play"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Direction is relative to the server.
type Direction uint8

const (
	Serverbound Direction = iota
	Clientbound
)

// ProtocolVersion is the only wire format this server speaks (1.18.2).
const ProtocolVersion = 758

// Handshake next-state selectors.
const (
	NextStateStatus int32 = 1
	NextStateLogin  int32 = 2
)

// Handshaking, serverbound.
const (
	IDHandshake byte = 0x00
)

// Login, serverbound.
const (
	IDLoginStart          byte = 0x00
	IDEncryptionResponse  byte = 0x01
	IDLoginPluginResponse byte = 0x02
)

// Login, clientbound.
const (
	IDLoginDisconnect    byte = 0x00
	IDEncryptionRequest  byte = 0x01
	IDLoginSuccess       byte = 0x02
	IDSetCompression     byte = 0x03
	IDLoginPluginRequest byte = 0x04
)

// Play.
const (
	IDJoinGame byte = 0x26

	IDTeleportConfirm   byte = 0x00
	IDChatMessage       byte = 0x03
	IDClientStatus      byte = 0x04
	IDClientSettings    byte = 0x05
	IDPluginMessage     byte = 0x0A
	IDKeepAlive         byte = 0x0F
	IDPlayerPosition    byte = 0x11
	IDPlayerPositionRot byte = 0x12
	IDPlayerRotation    byte = 0x13
	IDPlayerMovement    byte = 0x14
	IDPlayerAbilities   byte = 0x19
	IDPlayerDigging     byte = 0x1A
	IDEntityAction      byte = 0x1B
	IDPong              byte = 0x1D
	IDHeldItemChange    byte = 0x25
	IDAnimation         byte = 0x2C
	IDBlockPlacement    byte = 0x2E
	IDUseItem           byte = 0x2F
)

type key struct {
	phase Phase
	dir   Direction
	id    byte
}

var names = map[key]string{
	{Handshaking, Serverbound, IDHandshake}: "handshake",

	{Login, Serverbound, IDLoginStart}:          "login_start",
	{Login, Serverbound, IDEncryptionResponse}:  "encryption_response",
	{Login, Serverbound, IDLoginPluginResponse}: "login_plugin_response",
	{Login, Clientbound, IDLoginDisconnect}:     "login_disconnect",
	{Login, Clientbound, IDEncryptionRequest}:   "encryption_request",
	{Login, Clientbound, IDLoginSuccess}:        "login_success",
	{Login, Clientbound, IDSetCompression}:      "set_compression",
	{Login, Clientbound, IDLoginPluginRequest}:  "login_plugin_request",

	{Play, Clientbound, IDJoinGame}:          "join_game",
	{Play, Serverbound, IDTeleportConfirm}:   "teleport_confirm",
	{Play, Serverbound, IDChatMessage}:       "chat_message",
	{Play, Serverbound, IDClientStatus}:      "client_status",
	{Play, Serverbound, IDClientSettings}:    "client_settings",
	{Play, Serverbound, IDPluginMessage}:     "plugin_message",
	{Play, Serverbound, IDKeepAlive}:         "keep_alive",
	{Play, Serverbound, IDPlayerPosition}:    "player_position",
	{Play, Serverbound, IDPlayerPositionRot}: "player_position_rotation",
	{Play, Serverbound, IDPlayerRotation}:    "player_rotation",
	{Play, Serverbound, IDPlayerMovement}:    "player_movement",
	{Play, Serverbound, IDPlayerAbilities}:   "player_abilities",
	{Play, Serverbound, IDPlayerDigging}:     "player_digging",
	{Play, Serverbound, IDEntityAction}:      "entity_action",
	{Play, Serverbound, IDPong}:              "pong",
	{Play, Serverbound, IDHeldItemChange}:    "held_item_change",
	{Play, Serverbound, IDAnimation}:         "animation",
	{Play, Serverbound, IDBlockPlacement}:    "block_placement",
	{Play, Serverbound, IDUseItem}:           "use_item",
}

// Name returns a log-friendly name for id in the given phase and direction.
// The same id means different things in different phases, so lookups are
// always keyed by all three.
func Name(phase Phase, dir Direction, id byte) string {
	if n, ok := names[key{phase, dir, id}]; ok {
		return n
	}
	return fmt.Sprintf("unknown(0x%02x)", id)
}

// Known reports whether id has a name in the given phase and direction.
func Known(phase Phase, dir Direction, id byte) bool {
	_, ok := names[key{phase, dir, id}]
	return ok
}
