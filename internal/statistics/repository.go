package statistics

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/apperr"
)

// Repository persists annual statistics and serves the aggregator's
// transactional reads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a statistics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InTx runs fn inside one transaction, rolling back on error.
func (r *Repository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Database("begin transaction", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Database("commit transaction", err)
	}
	return nil
}

// pgTx implements Tx over a pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

// LockMemberYear takes a transaction-scoped advisory lock keyed on the
// (member, year) pair. Released automatically at commit/rollback.
func (t *pgTx) LockMemberYear(ctx context.Context, memberID uuid.UUID, year int) error {
	const q = `SELECT pg_advisory_xact_lock(hashtext($1::text), $2)`
	if _, err := t.tx.Exec(ctx, q, memberID.String(), year); err != nil {
		return apperr.Database("lock member-year", err)
	}
	return nil
}

// CompletedParticipations loads the member's participations joined to
// COMPLETED activities whose start date falls in the given year.
func (t *pgTx) CompletedParticipations(ctx context.Context, memberID uuid.UUID, year int) ([]ParticipationRow, error) {
	const q = `SELECT
			p.id, p.activity_id, p.member_id, p.role, p.manual_hours, p.recognition_override,
			p.created_at, p.updated_at,
			a.id, a.organization_id, a.title, a.status, a.start_date,
			a.actual_start_time, a.actual_end_time, a.manual_hours, a.recognition_percentage,
			a.created_at, a.updated_at
		FROM activity_participations p
		JOIN activities a ON a.id = p.activity_id
		WHERE p.member_id = $1
			AND a.status = 'COMPLETED'
			AND a.start_date >= make_date($2, 1, 1)
			AND a.start_date < make_date($2 + 1, 1, 1)`
	rows, err := t.tx.Query(ctx, q, memberID, year)
	if err != nil {
		return nil, apperr.Database("query completed participations", err)
	}
	defer rows.Close()
	var list []ParticipationRow
	for rows.Next() {
		var row ParticipationRow
		err := rows.Scan(
			&row.Participation.ID, &row.Participation.ActivityID, &row.Participation.MemberID,
			&row.Participation.Role, &row.Participation.ManualHours, &row.Participation.RecognitionOverride,
			&row.Participation.CreatedAt, &row.Participation.UpdatedAt,
			&row.Activity.ID, &row.Activity.OrganizationID, &row.Activity.Title,
			&row.Activity.Status, &row.Activity.StartDate,
			&row.Activity.ActualStartTime, &row.Activity.ActualEndTime,
			&row.Activity.ManualHours, &row.Activity.RecognitionPercentage,
			&row.Activity.CreatedAt, &row.Activity.UpdatedAt,
		)
		if err != nil {
			return nil, apperr.Database("scan participation row", err)
		}
		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database("iterate participation rows", err)
	}
	return list, nil
}

// Upsert writes the statistics row for (member, year).
func (t *pgTx) Upsert(ctx context.Context, stats *models.AnnualStatistics) error {
	const q = `INSERT INTO annual_statistics (member_id, year, total_hours, total_activities, calculated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (member_id, year) DO UPDATE SET
			total_hours = EXCLUDED.total_hours,
			total_activities = EXCLUDED.total_activities,
			calculated_at = EXCLUDED.calculated_at`
	if _, err := t.tx.Exec(ctx, q, stats.MemberID, stats.Year, stats.TotalHours, stats.TotalActivities, stats.CalculatedAt); err != nil {
		return apperr.Database("upsert annual statistics", err)
	}
	return nil
}

// Delete removes the statistics row for (member, year) if present.
func (t *pgTx) Delete(ctx context.Context, memberID uuid.UUID, year int) error {
	const q = `DELETE FROM annual_statistics WHERE member_id = $1 AND year = $2`
	if _, err := t.tx.Exec(ctx, q, memberID, year); err != nil {
		return apperr.Database("delete annual statistics", err)
	}
	return nil
}

// ListYears returns every year the member currently has a statistics row for.
func (r *Repository) ListYears(ctx context.Context, memberID uuid.UUID) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT year FROM annual_statistics WHERE member_id = $1 ORDER BY year`, memberID)
	if err != nil {
		return nil, apperr.Database("query statistics years", err)
	}
	defer rows.Close()
	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, apperr.Database("scan year", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// Get returns the statistics row for (member, year).
func (r *Repository) Get(ctx context.Context, memberID uuid.UUID, year int) (*models.AnnualStatistics, error) {
	const q = `SELECT member_id, year, total_hours, total_activities, calculated_at
		FROM annual_statistics WHERE member_id = $1 AND year = $2`
	var s models.AnnualStatistics
	err := r.pool.QueryRow(ctx, q, memberID, year).Scan(
		&s.MemberID, &s.Year, &s.TotalHours, &s.TotalActivities, &s.CalculatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("no statistics for this member and year")
		}
		return nil, apperr.Database("query annual statistics", err)
	}
	return &s, nil
}

// ListByMember returns all statistics rows for a member, newest year first.
func (r *Repository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.AnnualStatistics, error) {
	const q = `SELECT member_id, year, total_hours, total_activities, calculated_at
		FROM annual_statistics WHERE member_id = $1 ORDER BY year DESC`
	rows, err := r.pool.Query(ctx, q, memberID)
	if err != nil {
		return nil, apperr.Database("query member statistics", err)
	}
	defer rows.Close()
	var list []models.AnnualStatistics
	for rows.Next() {
		var s models.AnnualStatistics
		if err := rows.Scan(&s.MemberID, &s.Year, &s.TotalHours, &s.TotalActivities, &s.CalculatedAt); err != nil {
			return nil, apperr.Database("scan statistics row", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
