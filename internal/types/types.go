package types

import "encoding/json"

// ClientMessage is the inbound wire envelope. Payload stays raw; the
// engine decodes it per message type.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage is the outbound wire envelope.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}
