package ws

import (
	"encoding/json"

	"github.com/stelliform/sketchsphere/internal/domain"
)

// WSMessage is the outbound wire envelope. Origin carries the session id of
// the sender for broadcast events so receivers can suppress their own echo.
type WSMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
	Origin string `json:"originSessionId,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Envelope is the inbound wire envelope. Data stays raw until the event type
// is known.
type Envelope struct {
	Type   string          `json:"type"`
	RoomID string          `json:"roomId,omitempty"`
	Origin string          `json:"originSessionId,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Payload structs

type SessionPayload struct {
	SessionID string `json:"sessionId"`
}

type JoinRoomPayload struct {
	User domain.User `json:"user"`
}

type UserJoinedPayload struct {
	User domain.User `json:"user"`
}

type UserLeftPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name,omitempty"`
}

type RoomUsersPayload struct {
	Users []domain.User `json:"users"`
}

type BoardStatePayload struct {
	Elements []domain.Element `json:"elements"`
}

type DrawStartPayload struct {
	Element domain.Element `json:"element"`
}

type DrawMovePayload struct {
	ElementID string       `json:"elementId"`
	Point     domain.Point `json:"point"`
}

type DrawEndPayload struct {
	ElementID string `json:"elementId"`
}

type ShapeUpdatePayload struct {
	ElementID    string       `json:"elementId"`
	UpdatedAttrs domain.Patch `json:"updatedAttrs"`
}

type CursorPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ChatPayload struct {
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Timestamp string `json:"timestamp"`
}

// SignalPayload relays opaque WebRTC signaling between two sessions. The
// signal blob is never interpreted.
type SignalPayload struct {
	To     string          `json:"to,omitempty"`
	From   string          `json:"from,omitempty"`
	Signal json.RawMessage `json:"signal"`
}

func NewSession(sessionID string) *WSMessage {
	return &WSMessage{
		Type: Session,
		Data: SessionPayload{SessionID: sessionID},
	}
}

func NewUserJoined(roomID string, user domain.User) *WSMessage {
	return &WSMessage{
		Type:   UserJoined,
		RoomID: roomID,
		Origin: user.SessionID,
		Data:   UserJoinedPayload{User: user},
	}
}

func NewUserLeft(roomID, sessionID, name string) *WSMessage {
	return &WSMessage{
		Type:   UserLeft,
		RoomID: roomID,
		Origin: sessionID,
		Data:   UserLeftPayload{SessionID: sessionID, Name: name},
	}
}

func NewRoomUsers(roomID string, users []domain.User) *WSMessage {
	return &WSMessage{
		Type:   RoomUsers,
		RoomID: roomID,
		Data:   RoomUsersPayload{Users: users},
	}
}

func NewBoardState(roomID string, elements []domain.Element) *WSMessage {
	return &WSMessage{
		Type:   BoardState,
		RoomID: roomID,
		Data:   BoardStatePayload{Elements: elements},
	}
}

func NewMessageReceive(roomID, origin string, p ChatPayload) *WSMessage {
	return &WSMessage{
		Type:   MessageReceive,
		RoomID: roomID,
		Origin: origin,
		Data:   p,
	}
}

// relay re-wraps an inbound payload under a new (or identical) event type,
// stamped with the sender's session id.
func relay(eventType string, env Envelope, origin string) *WSMessage {
	msg := &WSMessage{
		Type:   eventType,
		RoomID: env.RoomID,
		Origin: origin,
	}
	if len(env.Data) > 0 {
		msg.Data = json.RawMessage(env.Data)
	}
	return msg
}
