package ws

import (
	"encoding/json"
	"errors"
)

// Client message types.
const (
	MsgAuthenticate = "authenticate"
	MsgInput        = "input"
	MsgResize       = "resize"
)

// Server message types.
const (
	MsgReady  = "ready"
	MsgOutput = "output"
	MsgError  = "error"
)

var errMalformed = errors.New("malformed message")

// ClientMessage is the envelope for every client-to-server payload. Type
// selects which fields are meaningful.
type ClientMessage struct {
	Type          string `json:"type"`
	Token         string `json:"token,omitempty"`
	SessionID     string `json:"sessionId,omitempty"`
	EnvironmentID string `json:"environmentId,omitempty"`
	Data          string `json:"data,omitempty"`
	Cols          int    `json:"cols,omitempty"`
	Rows          int    `json:"rows,omitempty"`
}

// ServerMessage is the envelope for every server-to-client payload.
type ServerMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      string `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
}

// decodeClientMessage parses and validates a payload against the closed
// message set. Unknown types and missing required fields are rejected here,
// before dispatch; callers drop rejected messages without state changes.
func decodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, errMalformed
	}

	switch msg.Type {
	case MsgAuthenticate:
		if msg.Token == "" || msg.SessionID == "" || msg.EnvironmentID == "" {
			return ClientMessage{}, errMalformed
		}
	case MsgInput:
		// Empty data is legal; it just writes nothing.
	case MsgResize:
		if msg.Cols <= 0 || msg.Rows <= 0 || msg.Cols > 0xffff || msg.Rows > 0xffff {
			return ClientMessage{}, errMalformed
		}
	default:
		return ClientMessage{}, errMalformed
	}

	return msg, nil
}

func readyMessage(sessionID string) ServerMessage {
	return ServerMessage{Type: MsgReady, SessionID: sessionID}
}

func outputMessage(data []byte) ServerMessage {
	return ServerMessage{Type: MsgOutput, Data: string(data)}
}

func errorMessage(message string) ServerMessage {
	return ServerMessage{Type: MsgError, Message: message}
}
