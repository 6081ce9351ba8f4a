package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/apperr"
	"github.com/assohub/backend/pkg/clock"
)

type yearKey struct {
	memberID uuid.UUID
	year     int
}

// fakeStore runs transactions against in-memory state. Rows are keyed by
// (member, year); locks are recorded, not enforced.
type fakeStore struct {
	rows        map[yearKey][]ParticipationRow
	stats       map[yearKey]models.AnnualStatistics
	locked      []yearKey
	failYears   map[int]error
	listYearsOf []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:  make(map[yearKey][]ParticipationRow),
		stats: make(map[yearKey]models.AnnualStatistics),
	}
}

func (f *fakeStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	return fn(&fakeTx{store: f})
}

func (f *fakeStore) ListYears(_ context.Context, _ uuid.UUID) ([]int, error) {
	return f.listYearsOf, nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) LockMemberYear(_ context.Context, memberID uuid.UUID, year int) error {
	t.store.locked = append(t.store.locked, yearKey{memberID, year})
	return nil
}

func (t *fakeTx) CompletedParticipations(_ context.Context, memberID uuid.UUID, year int) ([]ParticipationRow, error) {
	if err := t.store.failYears[year]; err != nil {
		return nil, err
	}
	return t.store.rows[yearKey{memberID, year}], nil
}

func (t *fakeTx) Upsert(_ context.Context, stats *models.AnnualStatistics) error {
	t.store.stats[yearKey{stats.MemberID, stats.Year}] = *stats
	return nil
}

func (t *fakeTx) Delete(_ context.Context, memberID uuid.UUID, year int) error {
	delete(t.store.stats, yearKey{memberID, year})
	return nil
}

// staticSettings serves one settings value for every organization.
type staticSettings struct {
	settings models.OrganizationSettings
}

func (s *staticSettings) Settings(_ context.Context, _ uuid.UUID) models.OrganizationSettings {
	return s.settings
}

func completedRow(orgID uuid.UUID, memberID uuid.UUID, start time.Time, hours time.Duration, role models.ParticipationRole) ParticipationRow {
	end := start.Add(hours)
	return ParticipationRow{
		Participation: models.ActivityParticipation{MemberID: memberID, Role: &role},
		Activity: models.Activity{
			OrganizationID:  orgID,
			Status:          models.ActivityCompleted,
			StartDate:       start,
			ActualStartTime: &start,
			ActualEndTime:   &end,
		},
	}
}

func newTestAggregator(store *fakeStore) *Aggregator {
	settings := &staticSettings{settings: models.DefaultOrganizationSettings(uuid.New())}
	clk := clock.NewManual(time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC))
	return NewAggregator(store, settings, clk, zap.NewNop())
}

func TestAggregator_Recompute_SumsWeightedMinutes(t *testing.T) {
	orgID := uuid.New()
	memberID := uuid.New()
	store := newFakeStore()
	key := yearKey{memberID, 2024}
	store.rows[key] = []ParticipationRow{
		// 2h at GUIDE 100% = 120 weighted minutes.
		completedRow(orgID, memberID, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), 2*time.Hour, models.RoleGuide),
		// 3h at ASSISTANT_GUIDE 50% = 90 weighted minutes.
		completedRow(orgID, memberID, time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC), 3*time.Hour, models.RoleAssistantGuide),
	}

	agg := newTestAggregator(store)
	stats, err := agg.Recompute(context.Background(), memberID, 2024)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 3.5, stats.TotalHours)
	assert.Equal(t, 2, stats.TotalActivities)
	assert.Equal(t, time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC), stats.CalculatedAt)
	assert.Equal(t, *stats, store.stats[key])
	assert.Contains(t, store.locked, key)
}

func TestAggregator_Recompute_RoundsToTwoDecimals(t *testing.T) {
	orgID := uuid.New()
	memberID := uuid.New()
	store := newFakeStore()
	// 50 minutes at REGULAR 10% = 5 weighted minutes = 0.0833... hours.
	store.rows[yearKey{memberID, 2024}] = []ParticipationRow{
		completedRow(orgID, memberID, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), 50*time.Minute, models.RoleRegular),
	}

	agg := newTestAggregator(store)
	stats, err := agg.Recompute(context.Background(), memberID, 2024)
	require.NoError(t, err)
	assert.Equal(t, 0.08, stats.TotalHours)
}

func TestAggregator_Recompute_Idempotent(t *testing.T) {
	orgID := uuid.New()
	memberID := uuid.New()
	store := newFakeStore()
	store.rows[yearKey{memberID, 2024}] = []ParticipationRow{
		completedRow(orgID, memberID, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Hour, models.RoleGuide),
	}

	agg := newTestAggregator(store)
	first, err := agg.Recompute(context.Background(), memberID, 2024)
	require.NoError(t, err)
	second, err := agg.Recompute(context.Background(), memberID, 2024)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, store.stats, 1)
}

func TestAggregator_Recompute_ZeroRowsDeletes(t *testing.T) {
	memberID := uuid.New()
	store := newFakeStore()
	key := yearKey{memberID, 2023}
	store.stats[key] = models.AnnualStatistics{MemberID: memberID, Year: 2023, TotalHours: 12}

	agg := newTestAggregator(store)
	stats, err := agg.Recompute(context.Background(), memberID, 2023)
	require.NoError(t, err)
	assert.Nil(t, stats)
	_, exists := store.stats[key]
	assert.False(t, exists)
}

func TestAggregator_Recompute_ZeroRowsAbsentRowIsNoop(t *testing.T) {
	agg := newTestAggregator(newFakeStore())
	stats, err := agg.Recompute(context.Background(), uuid.New(), 2023)
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestAggregator_Recompute_RejectsNonPositiveYear(t *testing.T) {
	agg := newTestAggregator(newFakeStore())
	_, err := agg.Recompute(context.Background(), uuid.New(), 0)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestAggregator_CleanupZeroYears_ContinuesPastFailures(t *testing.T) {
	orgID := uuid.New()
	memberID := uuid.New()
	store := newFakeStore()
	store.listYearsOf = []int{2022, 2023, 2024}
	store.failYears = map[int]error{2023: errors.New("query timeout")}
	store.stats[yearKey{memberID, 2022}] = models.AnnualStatistics{MemberID: memberID, Year: 2022}
	store.rows[yearKey{memberID, 2024}] = []ParticipationRow{
		completedRow(orgID, memberID, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Hour, models.RoleGuide),
	}

	agg := newTestAggregator(store)
	err := agg.CleanupZeroYears(context.Background(), memberID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query timeout")

	// 2022 emptied out and was deleted; 2024 was still recomputed after the
	// 2023 failure.
	_, has2022 := store.stats[yearKey{memberID, 2022}]
	assert.False(t, has2022)
	_, has2024 := store.stats[yearKey{memberID, 2024}]
	assert.True(t, has2024)
}
