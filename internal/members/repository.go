package members

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

// Repository persists members and their membership details.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a members repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a member.
func (r *Repository) Create(ctx context.Context, m *models.Member) error {
	const q = `INSERT INTO members (organization_id, email, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, m.OrganizationID, m.Email, m.FullName).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.Conflict("a member with this email already exists in the organization")
		}
		return apperr.Database("create member", err)
	}
	return nil
}

// GetByID returns a member by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	const q = `SELECT id, organization_id, email, full_name, created_at, updated_at
		FROM members WHERE id = $1`
	var m models.Member
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&m.ID, &m.OrganizationID, &m.Email, &m.FullName, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("member not found")
		}
		return nil, apperr.Database("query member", err)
	}
	return &m, nil
}

// ListByOrganization returns all members of an organization.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Member, error) {
	const q = `SELECT id, organization_id, email, full_name, created_at, updated_at
		FROM members WHERE organization_id = $1 ORDER BY full_name`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, apperr.Database("query members", err)
	}
	defer rows.Close()
	var list []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.Email, &m.FullName, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, apperr.Database("scan member", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// UpsertDetails writes a member's financial/stamp facts. Called by the
// payment and stamp-issuance flows; the lifecycle engine only reads these.
func (r *Repository) UpsertDetails(ctx context.Context, d *models.MembershipDetails) error {
	const q = `INSERT INTO membership_details
		(member_id, fee_payment_year, fee_payment_date, card_number,
		 card_stamp_issued, next_year_stamp_issued, active_until, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (member_id) DO UPDATE SET
			fee_payment_year = EXCLUDED.fee_payment_year,
			fee_payment_date = EXCLUDED.fee_payment_date,
			card_number = EXCLUDED.card_number,
			card_stamp_issued = EXCLUDED.card_stamp_issued,
			next_year_stamp_issued = EXCLUDED.next_year_stamp_issued,
			active_until = EXCLUDED.active_until,
			updated_at = NOW()
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, d.MemberID, d.FeePaymentYear, d.FeePaymentDate,
		d.CardNumber, d.CardStampIssued, d.NextYearStampIssued, d.ActiveUntil).
		Scan(&d.UpdatedAt)
	if err != nil {
		return apperr.Database("upsert membership details", err)
	}
	return nil
}
