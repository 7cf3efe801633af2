// Package ledger records every completed order exactly once in the served-orders table.
package ledger

import (
	"context"

	kafkax "github.com/ariefcatur/go-barista-dispatch/internal/kafka"
	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

type Recorder interface {
	RecordServed(ctx context.Context, p orders.OrderCompletedPayload) (bool, error)
}

type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type Service struct {
	Repo  Recorder
	Dedup Deduper
	Log   zerolog.Logger
}

// HandleOrderCompleted is the consumer handler for cafe.order.completed.
func (s *Service) HandleOrderCompleted(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		s.Log.Warn().Err(err).Int64("offset", m.Offset).Msg("skipping undecodable message")
		return nil
	}
	if env.EventType != orders.EventOrderCompleted {
		return nil
	}

	// 2) dedup by event id; a Redis outage only costs an extra idempotent insert
	if seen, err := s.Dedup.Seen(ctx, env.EventID); err != nil {
		s.Log.Warn().Err(err).Str("event", env.EventID).Msg("dedup lookup failed")
	} else if seen {
		return nil
	}

	// 3) decode payload
	p, err := kafkax.UnwrapPayload[orders.OrderCompletedPayload](env.Payload)
	if err != nil {
		s.Log.Warn().Err(err).Str("event", env.EventID).Msg("skipping bad payload")
		return nil
	}

	// 4) insert, idempotent on order id
	inserted, err := s.Repo.RecordServed(ctx, p)
	if err != nil {
		return err
	}
	if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
		s.Log.Warn().Err(err).Str("event", env.EventID).Msg("dedup mark failed")
	}
	s.Log.Info().
		Str("order", p.OrderID).
		Int("barista", p.BaristaID).
		Float64("wait_s", p.WaitSeconds).
		Bool("inserted", inserted).
		Msg("served order recorded")
	return nil
}
