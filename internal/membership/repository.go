package membership

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/apperr"
)

// uniqueViolation is the PostgreSQL error code raised by the partial unique
// index when a second open period is inserted for the same member.
const uniqueViolation = "23505"

// Repository persists membership periods and reads membership details.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a membership repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const periodColumns = `id, member_id, start_date, end_date, end_reason, created_at`

func scanPeriod(row pgx.Row) (*models.MembershipPeriod, error) {
	var p models.MembershipPeriod
	err := row.Scan(&p.ID, &p.MemberID, &p.StartDate, &p.EndDate, &p.EndReason, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CurrentPeriod returns the member's open period, or nil if none.
// The partial unique index guarantees at most one row can match.
func (r *Repository) CurrentPeriod(ctx context.Context, memberID uuid.UUID) (*models.MembershipPeriod, error) {
	const q = `SELECT ` + periodColumns + ` FROM membership_periods
		WHERE member_id = $1 AND end_date IS NULL`
	p, err := scanPeriod(r.pool.QueryRow(ctx, q, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Database("query current period", err)
	}
	return p, nil
}

// OpenPeriod creates a new open period for the member. Returns a conflict
// error if the member already has an open period; the check-and-insert is
// atomic via the partial unique index, so concurrent reactivation flows
// cannot race past it.
func (r *Repository) OpenPeriod(ctx context.Context, memberID uuid.UUID, startDate time.Time) (*models.MembershipPeriod, error) {
	const q = `INSERT INTO membership_periods (member_id, start_date)
		VALUES ($1, $2)
		RETURNING ` + periodColumns
	p, err := scanPeriod(r.pool.QueryRow(ctx, q, memberID, startDate))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperr.Conflict("member already has an open membership period")
		}
		return nil, apperr.Database("open period", err)
	}
	return p, nil
}

// GetPeriod returns a period by id.
func (r *Repository) GetPeriod(ctx context.Context, periodID uuid.UUID) (*models.MembershipPeriod, error) {
	const q = `SELECT ` + periodColumns + ` FROM membership_periods WHERE id = $1`
	p, err := scanPeriod(r.pool.QueryRow(ctx, q, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("period not found")
		}
		return nil, apperr.Database("query period", err)
	}
	return p, nil
}

// ClosePeriod closes an open period. Explicit user-driven closure: a missing
// period is not-found, an already-closed one is a conflict surfaced to the
// caller (409-equivalent).
func (r *Repository) ClosePeriod(ctx context.Context, periodID uuid.UUID, endDate time.Time, reason models.EndReason) error {
	const q = `UPDATE membership_periods SET end_date = $2, end_reason = $3
		WHERE id = $1 AND end_date IS NULL`
	tag, err := r.pool.Exec(ctx, q, periodID, endDate, reason)
	if err != nil {
		return apperr.Database("close period", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetPeriod(ctx, periodID); err != nil {
			return err
		}
		return apperr.Conflict("period already closed")
	}
	return nil
}

// CloseIfOpen closes the member's open period if one exists. Scheduler
// variant of ClosePeriod: a missing or already-closed period is a no-op,
// reported as false, so the sweep stays idempotent against concurrent writes.
func (r *Repository) CloseIfOpen(ctx context.Context, memberID uuid.UUID, endDate time.Time, reason models.EndReason) (bool, error) {
	const q = `UPDATE membership_periods SET end_date = $2, end_reason = $3
		WHERE member_id = $1 AND end_date IS NULL`
	tag, err := r.pool.Exec(ctx, q, memberID, endDate, reason)
	if err != nil {
		return false, apperr.Database("close if open", err)
	}
	return tag.RowsAffected() > 0, nil
}

// History returns the member's periods ordered by start date.
func (r *Repository) History(ctx context.Context, memberID uuid.UUID) ([]models.MembershipPeriod, error) {
	const q = `SELECT ` + periodColumns + ` FROM membership_periods
		WHERE member_id = $1 ORDER BY start_date, created_at`
	rows, err := r.pool.Query(ctx, q, memberID)
	if err != nil {
		return nil, apperr.Database("query period history", err)
	}
	defer rows.Close()
	var list []models.MembershipPeriod
	for rows.Next() {
		var p models.MembershipPeriod
		if err := rows.Scan(&p.ID, &p.MemberID, &p.StartDate, &p.EndDate, &p.EndReason, &p.CreatedAt); err != nil {
			return nil, apperr.Database("scan period", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database("iterate periods", err)
	}
	return list, nil
}

// Details returns the member's membership details, or nil when none are
// recorded yet (freshly pre-registered member).
func (r *Repository) Details(ctx context.Context, memberID uuid.UUID) (*models.MembershipDetails, error) {
	const q = `SELECT member_id, fee_payment_year, fee_payment_date, card_number,
		card_stamp_issued, next_year_stamp_issued, active_until, updated_at
		FROM membership_details WHERE member_id = $1`
	var d models.MembershipDetails
	err := r.pool.QueryRow(ctx, q, memberID).Scan(
		&d.MemberID, &d.FeePaymentYear, &d.FeePaymentDate, &d.CardNumber,
		&d.CardStampIssued, &d.NextYearStampIssued, &d.ActiveUntil, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Database("query membership details", err)
	}
	return &d, nil
}

// MemberFacts is the per-member input the termination sweep needs: the open
// period plus the financial facts feeding the eligibility gate.
type MemberFacts struct {
	MemberID        uuid.UUID
	FeePaymentYear  *int
	FeePaymentDate  *time.Time
	CardStampIssued bool
}

// ListOpenPeriodMembers returns gate facts for every member of the
// organization that currently has an open period.
func (r *Repository) ListOpenPeriodMembers(ctx context.Context, orgID uuid.UUID) ([]MemberFacts, error) {
	const q = `SELECT m.id, d.fee_payment_year, d.fee_payment_date,
		COALESCE(d.card_stamp_issued, FALSE)
		FROM members m
		JOIN membership_periods p ON p.member_id = m.id AND p.end_date IS NULL
		LEFT JOIN membership_details d ON d.member_id = m.id
		WHERE m.organization_id = $1`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, apperr.Database("query open-period members", err)
	}
	defer rows.Close()
	var list []MemberFacts
	for rows.Next() {
		var f MemberFacts
		if err := rows.Scan(&f.MemberID, &f.FeePaymentYear, &f.FeePaymentDate, &f.CardStampIssued); err != nil {
			return nil, apperr.Database("scan member facts", err)
		}
		list = append(list, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database("iterate member facts", err)
	}
	return list, nil
}
