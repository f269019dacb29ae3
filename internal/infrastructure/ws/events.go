package ws

import (
	"encoding/json"

	"github.com/sketchrelay/server/internal/domain"
)

// Event names carried in the envelope's type field, mirroring the client
// protocol.
const (
	EventJoinRoom      = "join-room"
	EventInitialState  = "initial-state"
	EventDrawingUpdate = "drawing-update"
	EventPointerUpdate = "pointer-update"
	EventUserJoined    = "user-joined"
	EventUserLeft      = "user-left"
)

// Envelope is the inbound framing: a type tag plus an undecoded payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Message is the outbound framing.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Payload structs
type JoinPayload struct {
	RoomID    string `json:"roomId"`
	UserName  string `json:"userName,omitempty"`
	UserColor string `json:"userColor,omitempty"`
}

type InitialStatePayload struct {
	RoomID   string           `json:"roomId"`
	Elements []domain.Element `json:"elements"`
}

type DrawingUpdatePayload struct {
	RoomID   string           `json:"roomId"`
	Elements []domain.Element `json:"elements"`
	UserID   string           `json:"userId,omitempty"`
}

// PointerUpdatePayload carries transient cursor state. The pointer and
// button fields pass through unparsed; the server only fills in the sender's
// identity.
type PointerUpdatePayload struct {
	RoomID    string          `json:"roomId"`
	Pointer   json.RawMessage `json:"pointer,omitempty"`
	Button    json.RawMessage `json:"button,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	UserName  string          `json:"userName,omitempty"`
	UserColor string          `json:"userColor,omitempty"`
}

type UserJoinedPayload struct {
	UserID    string `json:"userId"`
	RoomID    string `json:"roomId"`
	UserName  string `json:"userName"`
	UserColor string `json:"userColor"`
}

type UserLeftPayload struct {
	UserID   string `json:"userId"`
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

func NewInitialState(roomID string, elements []domain.Element) *Message {
	return &Message{
		Type: EventInitialState,
		Data: InitialStatePayload{
			RoomID:   roomID,
			Elements: elements,
		},
	}
}

func NewDrawingUpdate(roomID string, elements []domain.Element, senderID string) *Message {
	return &Message{
		Type: EventDrawingUpdate,
		Data: DrawingUpdatePayload{
			RoomID:   roomID,
			Elements: elements,
			UserID:   senderID,
		},
	}
}

func NewPointerUpdate(payload PointerUpdatePayload) *Message {
	return &Message{
		Type: EventPointerUpdate,
		Data: payload,
	}
}

func NewUserJoined(roomID string, member domain.Member) *Message {
	return &Message{
		Type: EventUserJoined,
		Data: UserJoinedPayload{
			UserID:    member.ConnID,
			RoomID:    roomID,
			UserName:  member.Name,
			UserColor: member.Color,
		},
	}
}

func NewUserLeft(roomID string, member domain.Member) *Message {
	return &Message{
		Type: EventUserLeft,
		Data: UserLeftPayload{
			UserID:   member.ConnID,
			RoomID:   roomID,
			UserName: member.Name,
		},
	}
}
