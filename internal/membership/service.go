package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/apperr"
	"github.com/assohub/backend/pkg/clock"
)

// PeriodStore is the persistence surface the service needs. Implemented by
// *Repository; narrowed to an interface so tests can substitute a fake.
type PeriodStore interface {
	CurrentPeriod(ctx context.Context, memberID uuid.UUID) (*models.MembershipPeriod, error)
	OpenPeriod(ctx context.Context, memberID uuid.UUID, startDate time.Time) (*models.MembershipPeriod, error)
	ClosePeriod(ctx context.Context, periodID uuid.UUID, endDate time.Time, reason models.EndReason) error
	CloseIfOpen(ctx context.Context, memberID uuid.UUID, endDate time.Time, reason models.EndReason) (bool, error)
	History(ctx context.Context, memberID uuid.UUID) ([]models.MembershipPeriod, error)
	Details(ctx context.Context, memberID uuid.UUID) (*models.MembershipDetails, error)
}

// AuditRecorder receives termination events, fire-and-forget.
type AuditRecorder interface {
	PeriodClosed(ctx context.Context, memberID uuid.UUID, reason models.EndReason, endDate time.Time)
}

// Service drives the membership lifecycle: status evaluation, activation,
// and termination.
type Service struct {
	store  PeriodStore
	audit  AuditRecorder
	clock  clock.Clock
	logger *zap.Logger
}

// NewService creates a membership service.
func NewService(store PeriodStore, audit AuditRecorder, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, audit: audit, clock: clk, logger: logger}
}

// Status evaluates the eligibility gate for a member from stored facts and
// the clock's current year.
func (s *Service) Status(ctx context.Context, memberID uuid.UUID) (StatusResult, error) {
	details, err := s.store.Details(ctx, memberID)
	if err != nil {
		return StatusResult{}, err
	}
	current, err := s.store.CurrentPeriod(ctx, memberID)
	if err != nil {
		return StatusResult{}, err
	}

	in := StatusInput{
		HasOpenPeriod: current != nil,
		CurrentYear:   s.clock.Now().Year(),
	}
	if details != nil {
		in.FeePaymentYear = details.FeePaymentYear
		in.FeePaymentDate = details.FeePaymentDate
		in.CardStampIssued = details.CardStampIssued
	}
	return ComputeStatus(in), nil
}

// Activate opens a new membership period for the member. startDate zero
// means "today". Conflicts when a period is already open.
func (s *Service) Activate(ctx context.Context, memberID uuid.UUID, startDate time.Time) (*models.MembershipPeriod, error) {
	if startDate.IsZero() {
		startDate = s.clock.Now()
	}
	p, err := s.store.OpenPeriod(ctx, memberID, startDate)
	if err != nil {
		return nil, err
	}
	s.logger.Info("membership period opened",
		zap.String("member_id", memberID.String()),
		zap.String("period_id", p.ID.String()))
	return p, nil
}

// Terminate closes a period explicitly, on user request. Closing an
// already-closed period is a hard error surfaced to the caller.
func (s *Service) Terminate(ctx context.Context, periodID uuid.UUID, memberID uuid.UUID, reason models.EndReason) error {
	if !reason.Valid() {
		return apperr.Validation("unknown end reason: " + string(reason))
	}
	endDate := s.clock.Now()
	if err := s.store.ClosePeriod(ctx, periodID, endDate, reason); err != nil {
		return err
	}
	s.logger.Info("membership period closed",
		zap.String("period_id", periodID.String()),
		zap.String("reason", string(reason)))
	if s.audit != nil {
		s.audit.PeriodClosed(ctx, memberID, reason, endDate)
	}
	return nil
}

// HistoryResult is a member's period history with the total tenure.
type HistoryResult struct {
	Periods       []models.MembershipPeriod `json:"periods"`
	TotalDays     int                       `json:"total_days"`
	TotalDuration string                    `json:"total_duration"`
}

// History returns all periods for the member, ordered, with the summed
// tenure formatted using the documented 365/30 approximation.
func (s *Service) History(ctx context.Context, memberID uuid.UUID) (*HistoryResult, error) {
	periods, err := s.store.History(ctx, memberID)
	if err != nil {
		return nil, err
	}
	days := TotalDays(periods, s.clock.Now())
	return &HistoryResult{
		Periods:       periods,
		TotalDays:     days,
		TotalDuration: FormatDuration(days),
	}, nil
}
