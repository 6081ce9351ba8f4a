// Package scheduler runs the daily auto-termination sweep: it closes open
// membership periods whose payment grace window has expired.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assohub/backend/internal/membership"
	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/clock"
)

// OrgSource lists the organizations to sweep.
// Implemented by *organizations.Repository.
type OrgSource interface {
	List(ctx context.Context) ([]models.Organization, error)
}

// MemberSource supplies gate facts for open-period members and the
// idempotent close operation. Implemented by *membership.Repository.
type MemberSource interface {
	ListOpenPeriodMembers(ctx context.Context, orgID uuid.UUID) ([]membership.MemberFacts, error)
	CloseIfOpen(ctx context.Context, memberID uuid.UUID, endDate time.Time, reason models.EndReason) (bool, error)
}

// SettingsSource supplies the per-organization grace window.
// Implemented by *recognition.SettingsCache.
type SettingsSource interface {
	Settings(ctx context.Context, orgID uuid.UUID) models.OrganizationSettings
}

// AuditRecorder receives termination events, fire-and-forget.
type AuditRecorder interface {
	PeriodClosed(ctx context.Context, memberID uuid.UUID, reason models.EndReason, endDate time.Time)
}

// Sweeper is the auto-termination scheduler. It polls the injected clock and
// executes the sweep when local time crosses midnight, at most once per
// calendar day regardless of poll granularity.
type Sweeper struct {
	orgs     OrgSource
	members  MemberSource
	settings SettingsSource
	audit    AuditRecorder
	clock    clock.Clock
	poll     time.Duration
	logger   *zap.Logger

	mu           sync.Mutex
	lastSweptDay string // YYYY-MM-DD of the last executed sweep

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a sweeper polling at the given interval
// (1s if poll <= 0).
func NewSweeper(orgs OrgSource, members MemberSource, settings SettingsSource, audit AuditRecorder, clk clock.Clock, poll time.Duration, logger *zap.Logger) *Sweeper {
	if poll <= 0 {
		poll = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		orgs:     orgs,
		members:  members,
		settings: settings,
		audit:    audit,
		clock:    clk,
		poll:     poll,
		logger:   logger,
	}
}

// Start launches the polling loop in the background.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
	s.logger.Info("termination sweeper started", zap.Duration("poll", s.poll))
}

// Stop halts the polling loop and waits for it to exit.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("termination sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick checks the clock and executes the sweep when due. Exported so tests
// can drive the loop without real waiting.
func (s *Sweeper) Tick(ctx context.Context) {
	now := s.clock.Now()
	if now.Hour() != 0 || now.Minute() != 0 || now.Second() != 0 {
		return
	}
	day := now.Format("2006-01-02")
	s.mu.Lock()
	if s.lastSweptDay == day {
		// Sub-second polling can land on the matching second repeatedly;
		// the sweep runs at most once per calendar day.
		s.mu.Unlock()
		return
	}
	s.lastSweptDay = day
	s.mu.Unlock()

	s.RunOnce(ctx)
}

// RunOnce executes one full sweep across all organizations immediately.
// Safe to run concurrently with ordinary writes: closing is "close if open",
// so a period closed by a racing user action is skipped silently. A failure
// on one member or organization never halts the rest.
func (s *Sweeper) RunOnce(ctx context.Context) {
	now := s.clock.Now()
	orgs, err := s.orgs.List(ctx)
	if err != nil {
		s.logger.Error("sweep: list organizations failed", zap.Error(err))
		return
	}

	total := 0
	for _, org := range orgs {
		closed, err := s.sweepOrganization(ctx, org.ID, now)
		if err != nil {
			s.logger.Error("sweep: organization failed",
				zap.String("organization_id", org.ID.String()), zap.Error(err))
			continue
		}
		total += closed
	}
	s.logger.Info("termination sweep finished",
		zap.Int("organizations", len(orgs)), zap.Int("periods_closed", total))
}

func (s *Sweeper) sweepOrganization(ctx context.Context, orgID uuid.UUID, now time.Time) (int, error) {
	settings := s.settings.Settings(ctx, orgID)
	cutoff := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, settings.GracePeriodDays)
	if now.Before(cutoff) {
		return 0, nil
	}

	facts, err := s.members.ListOpenPeriodMembers(ctx, orgID)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, f := range facts {
		if !s.shouldTerminate(f, now.Year()) {
			continue
		}
		ok, err := s.members.CloseIfOpen(ctx, f.MemberID, now, models.EndReasonNonPayment)
		if err != nil {
			s.logger.Error("sweep: close period failed",
				zap.String("member_id", f.MemberID.String()), zap.Error(err))
			continue
		}
		if !ok {
			continue // closed by a concurrent write since the listing
		}
		closed++
		s.logger.Info("membership auto-terminated",
			zap.String("member_id", f.MemberID.String()),
			zap.String("organization_id", orgID.String()))
		if s.audit != nil {
			s.audit.PeriodClosed(ctx, f.MemberID, models.EndReasonNonPayment, now)
		}
	}
	return closed, nil
}

// shouldTerminate applies the gate: only members whose status is pending
// because payment is missing or lapsed for the current cycle are swept.
// Pending for a missing stamp means the fee was paid, so the member is kept.
func (s *Sweeper) shouldTerminate(f membership.MemberFacts, currentYear int) bool {
	result := membership.ComputeStatus(membership.StatusInput{
		FeePaymentYear:  f.FeePaymentYear,
		FeePaymentDate:  f.FeePaymentDate,
		CardStampIssued: f.CardStampIssued,
		HasOpenPeriod:   true,
		CurrentYear:     currentYear,
	})
	if result.Status != models.StatusPending {
		return false
	}
	return result.Reason == membership.ReasonPaymentNotRecorded ||
		result.Reason == membership.ReasonPaymentLapsed
}
