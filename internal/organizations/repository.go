package organizations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/apperr"
)

const uniqueViolation = "23505"

// Repository persists organizations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an organization.
func (r *Repository) Create(ctx context.Context, org *models.Organization) error {
	const q = `INSERT INTO organizations (name, slug)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, org.Name, org.Slug).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.Conflict("an organization with this slug already exists")
		}
		return apperr.Database("create organization", err)
	}
	return nil
}

// GetByID returns an organization by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const q = `SELECT id, name, slug, created_at, updated_at FROM organizations WHERE id = $1`
	var org models.Organization
	err := r.pool.QueryRow(ctx, q, id).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("organization not found")
		}
		return nil, apperr.Database("query organization", err)
	}
	return &org, nil
}

// List returns all organizations. Drives the termination sweep across tenants.
func (r *Repository) List(ctx context.Context) ([]models.Organization, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM organizations ORDER BY created_at`)
	if err != nil {
		return nil, apperr.Database("query organizations", err)
	}
	defer rows.Close()
	var list []models.Organization
	for rows.Next() {
		var org models.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, apperr.Database("scan organization", err)
		}
		list = append(list, org)
	}
	return list, rows.Err()
}
