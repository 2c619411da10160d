package websocket

import (
	"time"

	"github.com/filipexyz/compass/internal/domain"
)

// Client to Server messages

type ClientMessage struct {
	Action string `json:"action"`
	// Keys limits the feed to these config keys. Empty means every key.
	Keys []string `json:"keys,omitempty"`
}

// Server to Client messages

type ChangeMessage struct {
	Type      string              `json:"type"`
	ID        string              `json:"id"`
	Action    domain.ConfigAction `json:"action"`
	ConfigID  int64               `json:"configId"`
	ConfigKey string              `json:"configKey"`
	Origin    string              `json:"origin,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type SubscribedMessage struct {
	Type string   `json:"type"`
	Keys []string `json:"keys"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PongMessage struct {
	Type string `json:"type"`
}

// NewChangeMessage creates a change message from a config event.
func NewChangeMessage(event *domain.ConfigEvent) *ChangeMessage {
	return &ChangeMessage{
		Type:      "change",
		ID:        event.ID,
		Action:    event.Action,
		ConfigID:  event.ConfigID,
		ConfigKey: event.ConfigKey,
		Origin:    event.Origin,
		Timestamp: event.Timestamp,
	}
}

// NewSubscribedMessage creates a subscription confirmation.
func NewSubscribedMessage(keys []string) *SubscribedMessage {
	if keys == nil {
		keys = []string{}
	}
	return &SubscribedMessage{Type: "subscribed", Keys: keys}
}

// NewErrorMessage creates an error message.
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{Type: "error", Code: code, Message: message}
}

// NewPongMessage creates a pong message.
func NewPongMessage() *PongMessage {
	return &PongMessage{Type: "pong"}
}
