package websocket

import (
	"encoding/json"
	"time"

	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
)

// ClientMessage is sent from the client to the server.
type ClientMessage struct {
	Type      string        `json:"type"`             // "ping", "filter", "retry"
	Filter    *notice.Query `json:"filter,omitempty"` // for "filter"
	Timestamp int64         `json:"timestamp"`        // unix timestamp
}

// FromBytes parses JSON bytes to ClientMessage
func (m *ClientMessage) FromBytes(data []byte) error {
	return json.Unmarshal(data, m)
}

// IsValidMessageType checks if message type is valid
func (m *ClientMessage) IsValidMessageType() bool {
	switch m.Type {
	case "ping", "retry":
		return true
	case "filter":
		return m.Filter != nil
	default:
		return false
	}
}

// Feed is the realtime notice feed state.
type Feed struct {
	Notices notice.Notices `json:"notices"`
	Loading bool           `json:"loading"`
	Error   string         `json:"error,omitempty"`
}

// Toasts carries a toast queue change.
type Toasts struct {
	Kind          string                     `json:"kind"`
	Toasts        []notification.Toast       `json:"toasts"`
	Notifications notification.Notifications `json:"notifications,omitempty"`
	UnreadCount   int                        `json:"unreadCount"`
}

// ServerMessage is sent from the server to the client.
type ServerMessage struct {
	Type      string  `json:"type"`              // "status", "feed", "toasts", "error", "pong"
	Content   string  `json:"content,omitempty"` // status or error text
	Feed      *Feed   `json:"feed,omitempty"`
	Toasts    *Toasts `json:"toasts,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// ToBytes converts ServerMessage to JSON bytes
func (r *ServerMessage) ToBytes() ([]byte, error) {
	return json.Marshal(r)
}

func newServerMessage(msgType string) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Timestamp: time.Now().Unix(),
	}
}

func NewStatusMessage(content string) *ServerMessage {
	msg := newServerMessage("status")
	msg.Content = content
	return msg
}

func NewErrorMessage(content string) *ServerMessage {
	msg := newServerMessage("error")
	msg.Content = content
	return msg
}

func NewPongMessage() *ServerMessage {
	return newServerMessage("pong")
}

func NewFeedMessage(feed Feed) *ServerMessage {
	msg := newServerMessage("feed")
	msg.Feed = &feed
	return msg
}

func NewToastsMessage(toasts Toasts) *ServerMessage {
	msg := newServerMessage("toasts")
	msg.Toasts = &toasts
	return msg
}

// IsValidResponseType checks if response type is valid
func (r *ServerMessage) IsValidResponseType() bool {
	switch r.Type {
	case "status", "feed", "toasts", "error", "pong":
		return true
	default:
		return false
	}
}
