// Package audit reports lifecycle events to a Redis list for downstream
// consumers. Reporting is fire-and-forget: a sink failure is logged and
// never fails the operation that produced the event.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/assohub/backend/internal/models"
)

// StreamTerminations is the Redis list key for membership termination events.
const StreamTerminations = "audit:terminations"

// Event is the envelope pushed to the audit stream.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	MemberID   uuid.UUID `json:"member_id"`
	Reason     string    `json:"reason"`
	EndDate    time.Time `json:"end_date"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink publishes audit events via Redis.
type Sink struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSink creates an audit sink. A nil client produces a sink that only logs.
func NewSink(client *redis.Client, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{client: client, logger: logger}
}

// PeriodClosed reports a membership termination.
func (s *Sink) PeriodClosed(ctx context.Context, memberID uuid.UUID, reason models.EndReason, endDate time.Time) {
	event := Event{
		ID:         uuid.New().String(),
		Type:       "membership_period_closed",
		MemberID:   memberID,
		Reason:     string(reason),
		EndDate:    endDate,
		OccurredAt: time.Now(),
	}
	if s.client == nil {
		s.logger.Info("audit event (no sink configured)",
			zap.String("type", event.Type), zap.String("member_id", memberID.String()))
		return
	}
	raw, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("audit event marshal failed", zap.Error(err))
		return
	}
	if err := s.client.RPush(ctx, StreamTerminations, raw).Err(); err != nil {
		s.logger.Warn("audit event publish failed",
			zap.String("event_id", event.ID), zap.Error(err))
	}
}
