package models

import (
	"time"

	"github.com/google/uuid"
)

// Member represents an association member. Members belong to exactly one
// organization and are never hard-deleted.
type Member struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MembershipDetails holds the financial and stamp facts for a member.
// Payment and stamp-issuance flows mutate these; the lifecycle engine only
// reads them.
type MembershipDetails struct {
	MemberID            uuid.UUID  `json:"member_id"`
	FeePaymentYear      *int       `json:"fee_payment_year"`
	FeePaymentDate      *time.Time `json:"fee_payment_date"`
	CardNumber          *string    `json:"card_number"`
	CardStampIssued     bool       `json:"card_stamp_issued"`
	NextYearStampIssued bool       `json:"next_year_stamp_issued"`
	ActiveUntil         *time.Time `json:"active_until"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
