package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ConfigAction is the kind of change applied to a config record.
type ConfigAction string

const (
	ConfigCreated ConfigAction = "created"
	ConfigUpdated ConfigAction = "updated"
	ConfigDeleted ConfigAction = "deleted"
)

// ConfigEvent announces a change to a config record.
type ConfigEvent struct {
	ID        string       `json:"id"`
	Action    ConfigAction `json:"action"`
	ConfigID  int64        `json:"configId"`
	ConfigKey string       `json:"configKey"`
	// Origin identifies the process that made the change.
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewConfigEvent creates a new event with a generated ID.
func NewConfigEvent(action ConfigAction, cfg *MonitorConfig) *ConfigEvent {
	return &ConfigEvent{
		ID:        generateEventID(),
		Action:    action,
		ConfigID:  cfg.ID,
		ConfigKey: cfg.Key,
		Timestamp: time.Now().UTC(),
	}
}

// generateEventID creates a unique event ID with "evt_" prefix.
func generateEventID() string {
	b := make([]byte, 12)
	rand.Read(b)
	return "evt_" + hex.EncodeToString(b)
}
