package recognition

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/clock"
)

// DefaultTTL bounds how long cached settings may be served without a reload.
// TTL expiry is the ultimate staleness guarantee when a settings update path
// forgets to invalidate.
const DefaultTTL = 5 * time.Minute

// SettingsStore loads per-organization settings. Implemented by *Repository.
type SettingsStore interface {
	GetSettings(ctx context.Context, orgID uuid.UUID) (*models.OrganizationSettings, error)
}

type cacheEntry struct {
	settings  models.OrganizationSettings
	fetchedAt time.Time
	loaded    bool
	loading   chan struct{} // non-nil while a load is in flight
}

// SettingsCache is a time-bounded in-memory cache of per-organization
// settings (role-recognition percentages and the grace window). Shared
// across requests; all state is guarded by mu. During a refresh, readers
// holding an existing entry serve it without blocking; only readers with no
// entry at all wait for the in-flight load.
type SettingsCache struct {
	store  SettingsStore
	clock  clock.Clock
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	entries map[uuid.UUID]*cacheEntry
}

// NewSettingsCache creates a settings cache with the given TTL
// (DefaultTTL if ttl <= 0).
func NewSettingsCache(store SettingsStore, clk clock.Clock, ttl time.Duration, logger *zap.Logger) *SettingsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsCache{
		store:   store,
		clock:   clk,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[uuid.UUID]*cacheEntry),
	}
}

// Settings returns the organization's settings, loading from storage on miss
// or TTL expiry and falling back to hard-coded defaults when storage is
// unreachable or unset. Never returns an error: recognition math must keep
// working over whatever configuration is reachable.
func (c *SettingsCache) Settings(ctx context.Context, orgID uuid.UUID) models.OrganizationSettings {
	c.mu.Lock()
	e, ok := c.entries[orgID]
	if !ok {
		e = &cacheEntry{loading: make(chan struct{})}
		c.entries[orgID] = e
		c.mu.Unlock()
		return c.refresh(ctx, orgID, e)
	}

	if e.loaded {
		if c.clock.Now().Sub(e.fetchedAt) < c.ttl {
			s := e.settings
			c.mu.Unlock()
			return s
		}
		if e.loading == nil {
			e.loading = make(chan struct{})
			c.mu.Unlock()
			return c.refresh(ctx, orgID, e)
		}
		// Another goroutine is refreshing; serve the expired value rather
		// than block. Staleness is bounded by one storage round-trip.
		s := e.settings
		c.mu.Unlock()
		return s
	}

	// First load still in flight: wait for it.
	ch := e.loading
	c.mu.Unlock()
	select {
	case <-ch:
		c.mu.Lock()
		s := e.settings
		c.mu.Unlock()
		return s
	case <-ctx.Done():
		return models.DefaultOrganizationSettings(orgID)
	}
}

// refresh loads from storage and publishes the result to waiters. Storage
// errors and absent rows both resolve to defaults; the error case is cached
// too so a flapping store is retried at most once per TTL.
func (c *SettingsCache) refresh(ctx context.Context, orgID uuid.UUID, e *cacheEntry) models.OrganizationSettings {
	settings := models.DefaultOrganizationSettings(orgID)
	stored, err := c.store.GetSettings(ctx, orgID)
	if err != nil {
		c.logger.Warn("settings load failed, serving defaults",
			zap.String("organization_id", orgID.String()), zap.Error(err))
	} else if stored != nil {
		settings = *stored
	}

	c.mu.Lock()
	e.settings = settings
	e.loaded = true
	e.fetchedAt = c.clock.Now()
	if e.loading != nil {
		close(e.loading)
		e.loading = nil
	}
	c.mu.Unlock()
	return settings
}

// Invalidate evicts the organization's entry. Called by the settings-update
// path; the next read reloads from storage.
func (c *SettingsCache) Invalidate(orgID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, orgID)
	c.mu.Unlock()
}
