package activities

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

// Repository persists activities and participations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an activities repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const activityColumns = `id, organization_id, title, status, start_date,
	actual_start_time, actual_end_time, manual_hours, recognition_percentage,
	created_at, updated_at`

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var a models.Activity
	err := row.Scan(&a.ID, &a.OrganizationID, &a.Title, &a.Status, &a.StartDate,
		&a.ActualStartTime, &a.ActualEndTime, &a.ManualHours, &a.RecognitionPercentage,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateActivity inserts an activity.
func (r *Repository) CreateActivity(ctx context.Context, a *models.Activity) error {
	const q = `INSERT INTO activities
		(organization_id, title, status, start_date, actual_start_time, actual_end_time, manual_hours, recognition_percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, a.OrganizationID, a.Title, a.Status, a.StartDate,
		a.ActualStartTime, a.ActualEndTime, a.ManualHours, a.RecognitionPercentage).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return apperr.Database("create activity", err)
	}
	return nil
}

// GetActivity returns an activity by id.
func (r *Repository) GetActivity(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	const q = `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`
	a, err := scanActivity(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("activity not found")
		}
		return nil, apperr.Database("query activity", err)
	}
	return a, nil
}

// UpdateActivity overwrites the mutable fields of an activity.
func (r *Repository) UpdateActivity(ctx context.Context, a *models.Activity) error {
	const q = `UPDATE activities SET
			title = $2, status = $3, start_date = $4, actual_start_time = $5,
			actual_end_time = $6, manual_hours = $7, recognition_percentage = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, a.ID, a.Title, a.Status, a.StartDate,
		a.ActualStartTime, a.ActualEndTime, a.ManualHours, a.RecognitionPercentage).
		Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("activity not found")
		}
		return apperr.Database("update activity", err)
	}
	return nil
}

// ListParticipantIDs returns the member ids participating in an activity.
func (r *Repository) ListParticipantIDs(ctx context.Context, activityID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT member_id FROM activity_participations WHERE activity_id = $1`, activityID)
	if err != nil {
		return nil, apperr.Database("query participant ids", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Database("scan participant id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const participationColumns = `id, activity_id, member_id, role, manual_hours,
	recognition_override, created_at, updated_at`

func scanParticipation(row pgx.Row) (*models.ActivityParticipation, error) {
	var p models.ActivityParticipation
	err := row.Scan(&p.ID, &p.ActivityID, &p.MemberID, &p.Role, &p.ManualHours,
		&p.RecognitionOverride, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateParticipation links a member to an activity. Duplicate links conflict.
func (r *Repository) CreateParticipation(ctx context.Context, p *models.ActivityParticipation) error {
	const q = `INSERT INTO activity_participations
		(activity_id, member_id, role, manual_hours, recognition_override)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, p.ActivityID, p.MemberID, p.Role, p.ManualHours, p.RecognitionOverride).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.Conflict("member already participates in this activity")
		}
		return apperr.Database("create participation", err)
	}
	return nil
}

// GetParticipation returns a participation by id.
func (r *Repository) GetParticipation(ctx context.Context, id uuid.UUID) (*models.ActivityParticipation, error) {
	const q = `SELECT ` + participationColumns + ` FROM activity_participations WHERE id = $1`
	p, err := scanParticipation(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("participation not found")
		}
		return nil, apperr.Database("query participation", err)
	}
	return p, nil
}

// UpdateParticipation overwrites the override fields of a participation.
func (r *Repository) UpdateParticipation(ctx context.Context, p *models.ActivityParticipation) error {
	const q = `UPDATE activity_participations SET
			role = $2, manual_hours = $3, recognition_override = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, p.ID, p.Role, p.ManualHours, p.RecognitionOverride).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("participation not found")
		}
		return apperr.Database("update participation", err)
	}
	return nil
}

// DeleteParticipation removes a participation.
func (r *Repository) DeleteParticipation(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_participations WHERE id = $1`, id)
	if err != nil {
		return apperr.Database("delete participation", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("participation not found")
	}
	return nil
}
