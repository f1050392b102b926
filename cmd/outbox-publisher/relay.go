package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox/registry"
)

// processBatch locks one batch of rows and settles each inside the same
// transaction. It reports whether the batch held any rows.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	var seen int
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize)
		if err != nil {
			return err
		}
		seen = len(events)
		for _, event := range events {
			if err := s.relay(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return seen > 0, err
}

// relay publishes one row and records the outcome. Only bookkeeping
// failures are returned; publish failures are written to the row.
func (s *Service) relay(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"attempt_count":  event.AttemptCount,
	})

	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return s.giveUp(ctx, tx, event, err)
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id": resolved.Envelope.EventID,
		"topic":    resolved.Descriptor.Topic,
	})

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	serverID, err := s.pubsub.Publish(publishCtx, resolved.Descriptor.Topic, message(event, resolved))
	cancel()

	switch {
	case err == nil:
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.logg.Info(s.logg.WithField(ctx, "message_id", serverID), "outbox event published")
		return nil
	case isNonRetryable(err):
		return s.giveUp(ctx, tx, event, err)
	case event.AttemptCount+1 >= s.maxAttempts:
		return s.giveUp(ctx, tx, event, fmt.Errorf("max publish attempts reached: %w", err))
	}

	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"attempt_count": event.AttemptCount + 1,
		"error":         err.Error(),
	}), "outbox publish failed")
	if err := s.repo.MarkFailedTx(tx, event.ID, err); err != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return nil
}

func (s *Service) giveUp(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, cause error) error {
	s.logg.Warn(s.logg.WithField(ctx, "error", cause.Error()), "outbox event will not be retried")
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

// message carries the stored envelope as-is. The aggregate id is the
// ordering key so consumers see an order's events in sequence.
func message(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data:        event.Payload,
		OrderingKey: event.AggregateID,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID,
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

func isNonRetryable(err error) bool {
	var nonRetry registry.NonRetryableError
	return errors.As(err, &nonRetry)
}
