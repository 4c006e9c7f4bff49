package protocol

import "encoding/json"

const Version = "1.0"

// JSON message types.
const (
	TypeSubscribe   = "SUBSCRIBE"
	TypeWorldInfo   = "WORLD_INFO"
	TypeWorldUpdate = "WORLD_UPDATE"
)

// Packet type codes on the binary stream.
const (
	PacketWorldUpdate byte = 1
	PacketWorldInfo   byte = 6
)

// FoodEmpty is the quantized food value of a tile without food.
const FoodEmpty = 0xFF

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
