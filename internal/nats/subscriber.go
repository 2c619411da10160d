package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/filipexyz/compass/internal/domain"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler reacts to a config event received from another process.
type EventHandler func(ctx context.Context, event *domain.ConfigEvent)

// Subscriber delivers new config events published by other processes.
// Every subscriber sees every event, so each server instance can drop its
// own cached state.
type Subscriber struct {
	stream  jetstream.Stream
	origin  string
	handler EventHandler
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSubscriber creates a Subscriber that ignores events stamped with origin.
func NewSubscriber(stream jetstream.Stream, origin string, handler EventHandler) *Subscriber {
	return &Subscriber{
		stream:  stream,
		origin:  origin,
		handler: handler,
		logger:  slog.Default().With("component", "config-subscriber"),
	}
}

// Start begins consuming events published from now on.
func (s *Subscriber) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	consumer, err := s.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{SubjectPrefix + ">"},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		s.cancel()
		return fmt.Errorf("create ordered consumer: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) { s.handleMessage(ctx, msg) })
	if err != nil {
		s.cancel()
		return fmt.Errorf("start consume: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		cons.Stop()
	}()

	s.logger.Info("config subscriber started", "origin", s.origin)
	return nil
}

// Stop stops consuming and waits for the consumer to exit.
func (s *Subscriber) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Subscriber) handleMessage(ctx context.Context, msg jetstream.Msg) {
	var event domain.ConfigEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		s.logger.Error("unmarshal config event", "error", err, "subject", msg.Subject())
		return
	}
	if event.Origin != "" && event.Origin == s.origin {
		return
	}

	s.logger.Debug("config event received",
		"event_id", event.ID,
		"action", event.Action,
		"config_key", event.ConfigKey,
		"origin", event.Origin,
	)
	s.handler(ctx, &event)
}
