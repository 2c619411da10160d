package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/filipexyz/compass/internal/domain"
	"github.com/nats-io/nats.go/jetstream"
)

// EventReader reads the config event history from the stream.
type EventReader struct {
	stream jetstream.Stream
}

// NewEventReader creates a new EventReader.
func NewEventReader(stream jetstream.Stream) *EventReader {
	return &EventReader{stream: stream}
}

// QueryOptions configures event queries.
type QueryOptions struct {
	ConfigKey string
	From      time.Time // start time (inclusive), zero means the beginning
	Limit     int
}

// StoredEvent is an event with its stream metadata.
type StoredEvent struct {
	Seq       uint64              `json:"seq"`
	Event     *domain.ConfigEvent `json:"event"`
	Timestamp time.Time           `json:"timestamp"`
}

// Query returns events matching the options, oldest first.
func (r *EventReader) Query(ctx context.Context, opts QueryOptions) ([]StoredEvent, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	filterSubject := SubjectPrefix + ">"
	if opts.ConfigKey != "" {
		filterSubject = Subject(opts.ConfigKey)
	}

	consumerCfg := jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{filterSubject},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	}
	if !opts.From.IsZero() {
		consumerCfg.DeliverPolicy = jetstream.DeliverByStartTimePolicy
		consumerCfg.OptStartTime = &opts.From
	}

	events := make([]StoredEvent, 0, opts.Limit)

	info, err := r.stream.Info(ctx)
	if err != nil {
		return nil, err
	}
	if info.State.Msgs == 0 {
		return events, nil
	}

	consumer, err := r.stream.OrderedConsumer(ctx, consumerCfg)
	if err != nil {
		return nil, err
	}

	msgs, err := consumer.Fetch(opts.Limit, jetstream.FetchMaxWait(time.Second))
	if err != nil {
		return events, nil // no messages or timeout
	}

	for msg := range msgs.Messages() {
		var event domain.ConfigEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			continue
		}
		// Keys sharing a sanitized subject are told apart by the payload.
		if opts.ConfigKey != "" && event.ConfigKey != opts.ConfigKey {
			continue
		}

		stored := StoredEvent{Event: &event, Timestamp: event.Timestamp}
		if meta, err := msg.Metadata(); err == nil {
			stored.Seq = meta.Sequence.Stream
			stored.Timestamp = meta.Timestamp
		}
		events = append(events, stored)
	}

	return events, nil
}
