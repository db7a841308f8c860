package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/FleetWatch/internal/broker/messages"
	"github.com/BearBump/FleetWatch/internal/models"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// EventSink receives the transitions of one cycle.
type EventSink interface {
	HandleEvents(ctx context.Context, events []models.TransitionEvent) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

const publishAttempts = 10

// PublishSink writes every transition as a messages.FleetTransition keyed by registration.
type PublishSink struct {
	producer Producer
	topic    string
	source   func() string
	sleep    func(time.Duration)
}

func NewPublishSink(p Producer, topic string, source func() string) *PublishSink {
	if source == nil {
		source = func() string { return "" }
	}
	return &PublishSink{producer: p, topic: topic, source: source, sleep: time.Sleep}
}

func (s *PublishSink) HandleEvents(ctx context.Context, events []models.TransitionEvent) error {
	for _, ev := range events {
		b, err := json.Marshal(messages.NewFleetTransition(ev, s.source()))
		if err != nil {
			return errors.Wrap(err, "marshal transition")
		}
		if err := s.publish(ctx, []byte(ev.Registration), b); err != nil {
			return err
		}
	}
	return nil
}

func (s *PublishSink) publish(ctx context.Context, key, value []byte) error {
	// The broker may not be reachable right after startup.
	var pubErr error
	for i := 0; i < publishAttempts; i++ {
		if err := s.producer.Publish(ctx, s.topic, key, value); err == nil {
			return nil
		} else {
			pubErr = err
		}
		if ctx.Err() != nil {
			break
		}
		s.sleep(time.Duration(150*(i+1)) * time.Millisecond)
	}
	return pubErr
}

// MultiSink hands events to every sink in order. A failing sink does not stop the others.
type MultiSink []EventSink

func (m MultiSink) HandleEvents(ctx context.Context, events []models.TransitionEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.HandleEvents(ctx, events); err != nil {
			slog.Error("event sink", "error", err.Error())
			if first == nil {
				first = err
			}
		}
	}
	return first
}
