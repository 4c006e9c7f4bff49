package protocol

// Message is a server -> client world message.
type Message interface {
	PacketType() byte
}

// WORLD_INFO (server -> client), first message of every snapshot.
type WorldInfo struct {
	Type   string `json:"type"`
	Width  uint8  `json:"width"`
	Height uint8  `json:"height"`
}

func NewWorldInfo(w, h int) WorldInfo {
	return WorldInfo{Type: TypeWorldInfo, Width: uint8(w), Height: uint8(h)}
}

func (WorldInfo) PacketType() byte { return PacketWorldInfo }

// WORLD_UPDATE (server -> client), one tile.
type WorldUpdate struct {
	Type   string `json:"type"`
	X      uint8  `json:"x"`
	Y      uint8  `json:"y"`
	Sprite uint8  `json:"sprite"`
	Food   uint8  `json:"food"`
}

func NewWorldUpdate(x, y int, sprite, food uint8) WorldUpdate {
	return WorldUpdate{Type: TypeWorldUpdate, X: uint8(x), Y: uint8(y), Sprite: sprite, Food: food}
}

func (WorldUpdate) PacketType() byte { return PacketWorldUpdate }

// Empty reports whether the tile carries no food.
func (u WorldUpdate) Empty() bool { return u.Food == FoodEmpty }

// RawPacket is a binary packet of a type this package does not decode.
type RawPacket struct {
	Type    byte
	Payload []byte
}

func (p RawPacket) PacketType() byte { return p.Type }

// SUBSCRIBE (spectator -> server). First message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name,omitempty"`
}
