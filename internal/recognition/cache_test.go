package recognition

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/clock"
)

// fakeSettingsStore counts loads and can fail or block on demand.
type fakeSettingsStore struct {
	mu       sync.Mutex
	settings map[uuid.UUID]*models.OrganizationSettings
	err      error
	gate     chan struct{} // when non-nil, GetSettings blocks until closed
	calls    int
}

func (f *fakeSettingsStore) GetSettings(_ context.Context, orgID uuid.UUID) (*models.OrganizationSettings, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	err := f.err
	s := f.settings[orgID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (f *fakeSettingsStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func storedSettings(orgID uuid.UUID) *models.OrganizationSettings {
	return &models.OrganizationSettings{
		OrganizationID:    orgID,
		GracePeriodDays:   90,
		GuidePct:          80,
		AssistantGuidePct: 40,
		DriverPct:         60,
		RegularPct:        20,
	}
}

func TestSettingsCache_LoadsOncePerTTL(t *testing.T) {
	orgID := uuid.New()
	store := &fakeSettingsStore{settings: map[uuid.UUID]*models.OrganizationSettings{orgID: storedSettings(orgID)}}
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewSettingsCache(store, clk, DefaultTTL, zap.NewNop())

	ctx := context.Background()
	first := cache.Settings(ctx, orgID)
	assert.Equal(t, 90, first.GracePeriodDays)

	clk.Advance(4 * time.Minute)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, cache.Settings(ctx, orgID))
	}
	assert.Equal(t, 1, store.callCount())
}

func TestSettingsCache_ReloadsAfterTTL(t *testing.T) {
	orgID := uuid.New()
	store := &fakeSettingsStore{settings: map[uuid.UUID]*models.OrganizationSettings{orgID: storedSettings(orgID)}}
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewSettingsCache(store, clk, DefaultTTL, zap.NewNop())

	ctx := context.Background()
	cache.Settings(ctx, orgID)

	store.mu.Lock()
	store.settings[orgID].GuidePct = 55
	store.mu.Unlock()

	clk.Advance(5*time.Minute + time.Second)
	got := cache.Settings(ctx, orgID)
	assert.Equal(t, 55, got.GuidePct)
	assert.Equal(t, 2, store.callCount())
}

func TestSettingsCache_InvalidateForcesReload(t *testing.T) {
	orgID := uuid.New()
	store := &fakeSettingsStore{settings: map[uuid.UUID]*models.OrganizationSettings{orgID: storedSettings(orgID)}}
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewSettingsCache(store, clk, DefaultTTL, zap.NewNop())

	ctx := context.Background()
	cache.Settings(ctx, orgID)

	store.mu.Lock()
	store.settings[orgID].RegularPct = 33
	store.mu.Unlock()

	cache.Invalidate(orgID)
	got := cache.Settings(ctx, orgID)
	assert.Equal(t, 33, got.RegularPct)
	assert.Equal(t, 2, store.callCount())
}

func TestSettingsCache_StorageErrorServesDefaults(t *testing.T) {
	orgID := uuid.New()
	store := &fakeSettingsStore{err: errors.New("connection refused")}
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewSettingsCache(store, clk, DefaultTTL, zap.NewNop())

	got := cache.Settings(context.Background(), orgID)
	assert.Equal(t, models.DefaultOrganizationSettings(orgID), got)

	// The failure is cached; no retry storm within the TTL.
	cache.Settings(context.Background(), orgID)
	assert.Equal(t, 1, store.callCount())
}

func TestSettingsCache_UnsetOrganizationServesDefaults(t *testing.T) {
	orgID := uuid.New()
	store := &fakeSettingsStore{}
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewSettingsCache(store, clk, DefaultTTL, zap.NewNop())

	got := cache.Settings(context.Background(), orgID)
	assert.Equal(t, models.DefaultGracePeriodDays, got.GracePeriodDays)
	assert.Equal(t, models.DefaultRegularPct, got.RegularPct)
}

func TestSettingsCache_ServesStaleDuringRefresh(t *testing.T) {
	orgID := uuid.New()
	store := &fakeSettingsStore{settings: map[uuid.UUID]*models.OrganizationSettings{orgID: storedSettings(orgID)}}
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewSettingsCache(store, clk, DefaultTTL, zap.NewNop())

	ctx := context.Background()
	cache.Settings(ctx, orgID)
	clk.Advance(6 * time.Minute)

	gate := make(chan struct{})
	store.mu.Lock()
	store.gate = gate
	store.mu.Unlock()

	// First reader past the TTL starts the refresh and blocks in storage.
	refreshed := make(chan models.OrganizationSettings, 1)
	go func() { refreshed <- cache.Settings(ctx, orgID) }()

	require.Eventually(t, func() bool { return store.callCount() == 2 }, time.Second, time.Millisecond)

	// A second reader must not block; it gets the expired value.
	done := make(chan models.OrganizationSettings, 1)
	go func() { done <- cache.Settings(ctx, orgID) }()
	select {
	case got := <-done:
		assert.Equal(t, 90, got.GracePeriodDays)
	case <-time.After(time.Second):
		t.Fatal("reader blocked behind an in-flight refresh")
	}

	close(gate)
	got := <-refreshed
	assert.Equal(t, 90, got.GracePeriodDays)
	assert.Equal(t, 2, store.callCount())
}

func TestSettingsCache_FirstLoadWaitersShareOneCall(t *testing.T) {
	orgID := uuid.New()
	store := &fakeSettingsStore{settings: map[uuid.UUID]*models.OrganizationSettings{orgID: storedSettings(orgID)}}
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewSettingsCache(store, clk, DefaultTTL, zap.NewNop())

	gate := make(chan struct{})
	store.gate = gate

	ctx := context.Background()
	results := make(chan models.OrganizationSettings, 3)
	go func() { results <- cache.Settings(ctx, orgID) }()
	require.Eventually(t, func() bool { return store.callCount() == 1 }, time.Second, time.Millisecond)
	go func() { results <- cache.Settings(ctx, orgID) }()
	go func() { results <- cache.Settings(ctx, orgID) }()

	close(gate)
	for i := 0; i < 3; i++ {
		got := <-results
		assert.Equal(t, 90, got.GracePeriodDays)
	}
	assert.Equal(t, 1, store.callCount())
}

func TestSettingsCache_FirstLoadWaiterHonorsContext(t *testing.T) {
	orgID := uuid.New()
	store := &fakeSettingsStore{gate: make(chan struct{})}
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewSettingsCache(store, clk, DefaultTTL, zap.NewNop())

	go cache.Settings(context.Background(), orgID)
	require.Eventually(t, func() bool { return store.callCount() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan models.OrganizationSettings, 1)
	go func() { done <- cache.Settings(ctx, orgID) }()
	cancel()

	select {
	case got := <-done:
		assert.Equal(t, models.DefaultOrganizationSettings(orgID), got)
	case <-time.After(time.Second):
		t.Fatal("waiter ignored context cancellation")
	}
	close(store.gate)
}
