package event

import "encoding/json"

const (
	// EventNewMessage is pushed to the single receiver of a freshly
	// persisted message.
	EventNewMessage = "newMessage"
	// EventOnlineUsers is broadcast to every open connection whenever
	// the presence table changes. The payload is the full snapshot,
	// not a delta - clients must treat it as authoritative.
	EventOnlineUsers = "getOnlineUsers"
	// EventTyping is relayed from one client to the peer it names.
	EventTyping = "typing"
)

type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// TypingPayload signals typing start/stop to a single peer. From is
// always overwritten by the server with the sender's verified identity.
type TypingPayload struct {
	To       string `json:"to"`
	From     string `json:"from"`
	IsTyping bool   `json:"isTyping"`
}
