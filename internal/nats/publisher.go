package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/filipexyz/compass/internal/domain"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher publishes config events to JetStream.
type Publisher struct {
	js     jetstream.JetStream
	origin string
}

// NewPublisher creates a Publisher that stamps events with origin.
func NewPublisher(js jetstream.JetStream, origin string) *Publisher {
	return &Publisher{js: js, origin: origin}
}

// Origin returns the origin stamped on published events.
func (p *Publisher) Origin() string {
	return p.origin
}

// Publish sends an event to JetStream.
func (p *Publisher) Publish(ctx context.Context, event *domain.ConfigEvent) error {
	if event.Origin == "" {
		event.Origin = p.origin
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// Synchronous publish with ack from JetStream
	ack, err := p.js.Publish(ctx, Subject(event.ConfigKey), data,
		jetstream.WithMsgID(event.ID),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	slog.Debug("config event published",
		"event_id", event.ID,
		"action", event.Action,
		"config_key", event.ConfigKey,
		"stream", ack.Stream,
		"seq", ack.Sequence,
	)

	return nil
}

// Subject maps a config key to its event subject. Characters that are not
// valid in a subject token are replaced with "_".
func Subject(configKey string) string {
	return SubjectPrefix + subjectToken(configKey)
}

func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
