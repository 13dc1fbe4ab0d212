package gateway

import "encoding/json"

// Op codes for gateway payloads.
const (
	OpDispatch     = 0
	OpHeartbeat    = 1
	OpIdentify     = 2
	OpReconnect    = 7
	OpHello        = 10
	OpHeartbeatAck = 11
)

// Event names for DISPATCH payloads.
const (
	EventReady        = "READY"
	EventAvatarUpdate = "AVATAR_UPDATE"
	EventAvatarDelete = "AVATAR_DELETE"
	EventAvatarResize = "AVATAR_RESIZE"
)

// GatewayPayload is the envelope for all gateway messages.
type GatewayPayload struct {
	Op       int             `json:"op"`
	Data     json.RawMessage `json:"d,omitempty"`
	Sequence *int64          `json:"s,omitempty"`
	Event    *string         `json:"t,omitempty"`
}

// IdentifyData is sent by the client in an Op 2 IDENTIFY.
type IdentifyData struct {
	Token string `json:"token"`
}

// HelloData is sent by the server after WebSocket connect.
type HelloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

// ReadyData is sent by the server after successful IDENTIFY.
type ReadyData struct {
	SessionID string `json:"session_id"`
	UserID    int64  `json:"user_id,string"`
}

// AvatarUpdateData is the payload for AVATAR_UPDATE and AVATAR_DELETE events,
// telling clients to drop any cached rendering for the user.
type AvatarUpdateData struct {
	UserID       int64 `json:"user_id,string"`
	AttachmentID int64 `json:"attachment_id,string,omitempty"`
}

// AvatarResizeData is the payload for AVATAR_RESIZE events.
type AvatarResizeData struct {
	AttachmentID int64 `json:"attachment_id,string"`
	Size         int   `json:"size"`
}
