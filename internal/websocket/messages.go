package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeSurfacesReload MessageType = "surfaces.reload"
	TypeDayBoundary    MessageType = "day.boundary_crossed"
	TypeWeekUpdated    MessageType = "week.updated"
	TypeWeekSyncError  MessageType = "week.sync_error"
	TypeNotification   MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// SurfacesReloadPayload is the payload for surfaces.reload events: every
// display surface should drop its rendered state and re-read the store.
type SurfacesReloadPayload struct {
	Reason string `json:"reason"`
}

// WeekUpdatedPayload is the payload for week.updated events.
type WeekUpdatedPayload struct {
	WeekOffset int `json:"week_offset"`
}

// WeekSyncErrorPayload is the payload for week.sync_error events.
type WeekSyncErrorPayload struct {
	WeekOffset int    `json:"week_offset"`
	Message    string `json:"message"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
