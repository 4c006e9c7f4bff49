package protocol

// Close reasons sent to spectators before the server drops a connection.
const (
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	ErrWorldBusy     = "E_WORLD_BUSY"
	ErrWorldNotReady = "E_WORLD_NOT_READY"

	ErrClientLagging = "E_CLIENT_LAGGING"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrForbidden     = "E_FORBIDDEN"
)
