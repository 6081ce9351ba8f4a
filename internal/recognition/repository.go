package recognition

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/apperr"
)

// Repository reads and writes per-organization settings rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a settings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetSettings returns the organization's stored settings, or nil when unset.
func (r *Repository) GetSettings(ctx context.Context, orgID uuid.UUID) (*models.OrganizationSettings, error) {
	const q = `SELECT organization_id, grace_period_days, guide_pct,
		assistant_guide_pct, driver_pct, regular_pct, updated_at
		FROM organization_settings WHERE organization_id = $1`
	var s models.OrganizationSettings
	err := r.pool.QueryRow(ctx, q, orgID).Scan(
		&s.OrganizationID, &s.GracePeriodDays, &s.GuidePct,
		&s.AssistantGuidePct, &s.DriverPct, &s.RegularPct, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Database("query organization settings", err)
	}
	return &s, nil
}

// UpsertSettings writes the organization's settings row.
func (r *Repository) UpsertSettings(ctx context.Context, s *models.OrganizationSettings) error {
	const q = `INSERT INTO organization_settings
		(organization_id, grace_period_days, guide_pct, assistant_guide_pct, driver_pct, regular_pct, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (organization_id) DO UPDATE SET
			grace_period_days = EXCLUDED.grace_period_days,
			guide_pct = EXCLUDED.guide_pct,
			assistant_guide_pct = EXCLUDED.assistant_guide_pct,
			driver_pct = EXCLUDED.driver_pct,
			regular_pct = EXCLUDED.regular_pct,
			updated_at = NOW()
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, s.OrganizationID, s.GracePeriodDays,
		s.GuidePct, s.AssistantGuidePct, s.DriverPct, s.RegularPct).Scan(&s.UpdatedAt)
	if err != nil {
		return apperr.Database("upsert organization settings", err)
	}
	return nil
}
