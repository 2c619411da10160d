package server

import (
	"context"
	"log/slog"

	"github.com/filipexyz/compass/internal/domain"
)

// Invalidator drops cached page data of a config key.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// EventPublisher sends config events to peer processes.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.ConfigEvent) error
}

// ChangeRecorder counts config changes.
type ChangeRecorder interface {
	ConfigChanged(action, origin string)
}

// Broadcaster pushes config events to watching clients.
type Broadcaster interface {
	Broadcast(event *domain.ConfigEvent)
}

// Changes fans config writes out. Local writes drop the cached data, are
// counted, are published to peers and reach watching clients. Events from
// peers are not published again.
type Changes struct {
	cache       Invalidator
	publisher   EventPublisher
	recorder    ChangeRecorder
	broadcaster Broadcaster
}

// NewChanges creates a Changes. publisher, recorder and broadcaster may be nil.
func NewChanges(cache Invalidator, publisher EventPublisher, recorder ChangeRecorder, broadcaster Broadcaster) *Changes {
	return &Changes{cache: cache, publisher: publisher, recorder: recorder, broadcaster: broadcaster}
}

// ConfigChanged handles a write committed by this process.
func (c *Changes) ConfigChanged(ctx context.Context, action domain.ConfigAction, cfg *domain.MonitorConfig) {
	c.invalidate(ctx, cfg.Key)
	c.record(action, "local")

	event := domain.NewConfigEvent(action, cfg)
	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, event); err != nil {
			// Peers keep serving their cache until the TTL expires.
			slog.Error("failed to publish config event",
				"action", action,
				"config_key", cfg.Key,
				"error", err,
			)
		}
	}
	c.broadcast(event)
}

// Remote handles an event published by a peer.
func (c *Changes) Remote(ctx context.Context, event *domain.ConfigEvent) {
	c.invalidate(ctx, event.ConfigKey)
	c.record(event.Action, "remote")
	c.broadcast(event)
}

func (c *Changes) broadcast(event *domain.ConfigEvent) {
	if c.broadcaster != nil {
		c.broadcaster.Broadcast(event)
	}
}

func (c *Changes) invalidate(ctx context.Context, key string) {
	if err := c.cache.Invalidate(ctx, key); err != nil {
		slog.Error("failed to invalidate cached data", "config_key", key, "error", err)
	}
}

func (c *Changes) record(action domain.ConfigAction, origin string) {
	if c.recorder != nil {
		c.recorder.ConfigChanged(string(action), origin)
	}
}
