package statistics

import (
	"context"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/internal/recognition"
	"github.com/assohub/backend/pkg/apperr"
	"github.com/assohub/backend/pkg/clock"
)

// ParticipationRow is one participation joined to its completed activity.
type ParticipationRow struct {
	Participation models.ActivityParticipation
	Activity      models.Activity
}

// Tx is the transactional surface one recompute runs against.
type Tx interface {
	// LockMemberYear takes a transaction-scoped lock on the (member, year)
	// key so concurrent recomputes of the same key serialize.
	LockMemberYear(ctx context.Context, memberID uuid.UUID, year int) error
	CompletedParticipations(ctx context.Context, memberID uuid.UUID, year int) ([]ParticipationRow, error)
	Upsert(ctx context.Context, stats *models.AnnualStatistics) error
	Delete(ctx context.Context, memberID uuid.UUID, year int) error
}

// Store opens transactions and serves non-transactional reads.
// Implemented by *Repository.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	ListYears(ctx context.Context, memberID uuid.UUID) ([]int, error)
}

// SettingsSource supplies the role-recognition table for an organization.
// Implemented by *recognition.SettingsCache.
type SettingsSource interface {
	Settings(ctx context.Context, orgID uuid.UUID) models.OrganizationSettings
}

// Aggregator recomputes and persists per-(member, year) recognized-hour
// totals. Recomputation is a pure function of the stored participations, so
// repeating it is always safe.
type Aggregator struct {
	store    Store
	settings SettingsSource
	clock    clock.Clock
	logger   *zap.Logger
}

// NewAggregator creates an annual statistics aggregator.
func NewAggregator(store Store, settings SettingsSource, clk clock.Clock, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: store, settings: settings, clock: clk, logger: logger}
}

// Recompute rebuilds the member's totals for one year from all
// participations in COMPLETED activities dated in that year. Zero qualifying
// participations delete the row (a zero row is never stored); otherwise the
// row is upserted with fresh values. Runs in a single transaction under a
// (member, year) lock; a failure rolls back and leaves the previous row
// untouched. Returns the stored row, or nil when the year emptied out.
func (a *Aggregator) Recompute(ctx context.Context, memberID uuid.UUID, year int) (*models.AnnualStatistics, error) {
	if year <= 0 {
		return nil, apperr.Validation("year must be positive")
	}

	var result *models.AnnualStatistics
	err := a.store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockMemberYear(ctx, memberID, year); err != nil {
			return err
		}
		rows, err := tx.CompletedParticipations(ctx, memberID, year)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			// Idempotent: deleting an absent row is fine.
			return tx.Delete(ctx, memberID, year)
		}

		settings := a.settings.Settings(ctx, rows[0].Activity.OrganizationID)
		var minutes float64
		for _, row := range rows {
			minutes += recognition.RecognizedMinutes(row.Participation, row.Activity, settings)
		}
		stats := &models.AnnualStatistics{
			MemberID:        memberID,
			Year:            year,
			TotalHours:      math.Round(minutes/60*100) / 100,
			TotalActivities: len(rows),
			CalculatedAt:    a.clock.Now(),
		}
		result = stats
		return tx.Upsert(ctx, stats)
	})
	if err != nil {
		return nil, err
	}

	if result == nil {
		a.logger.Debug("annual statistics cleared",
			zap.String("member_id", memberID.String()), zap.Int("year", year))
	} else {
		a.logger.Debug("annual statistics recomputed",
			zap.String("member_id", memberID.String()), zap.Int("year", year),
			zap.Float64("total_hours", result.TotalHours),
			zap.Int("total_activities", result.TotalActivities))
	}
	return result, nil
}

// CleanupZeroYears recomputes every year the member has rows for, removing
// those that went to zero. Used after bulk activity deletion. Years are
// processed independently; one failing year does not stop the rest, and the
// first failure is reported after all years were attempted.
func (a *Aggregator) CleanupZeroYears(ctx context.Context, memberID uuid.UUID) error {
	years, err := a.store.ListYears(ctx, memberID)
	if err != nil {
		return err
	}
	var firstErr error
	for _, year := range years {
		if _, err := a.Recompute(ctx, memberID, year); err != nil {
			a.logger.Error("cleanup recompute failed",
				zap.String("member_id", memberID.String()), zap.Int("year", year), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
