package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipStatus is the derived eligibility status of a member.
type MembershipStatus string

const (
	// StatusPending: payment or stamp missing for the current cycle, or the
	// payment lapsed but the open period has not yet been swept.
	StatusPending MembershipStatus = "pending"
	// StatusInactive: no open membership period.
	StatusInactive MembershipStatus = "inactive"
	// StatusRegistered: paid, stamped, and an open period exists.
	StatusRegistered MembershipStatus = "registered"
)

// EndReason explains why a membership period was closed.
type EndReason string

const (
	EndReasonWithdrawal EndReason = "withdrawal"
	EndReasonNonPayment EndReason = "non_payment"
	EndReasonExpulsion  EndReason = "expulsion"
	EndReasonDeath      EndReason = "death"
	EndReasonInactivity EndReason = "inactivity"
	EndReasonOther      EndReason = "other"
)

// Valid reports whether r is a known end reason.
func (r EndReason) Valid() bool {
	switch r {
	case EndReasonWithdrawal, EndReasonNonPayment, EndReasonExpulsion,
		EndReasonDeath, EndReasonInactivity, EndReasonOther:
		return true
	}
	return false
}

// MembershipPeriod is one contiguous span of active membership.
// A nil EndDate means the period is open (membership currently active).
// Periods are closed, never deleted.
type MembershipPeriod struct {
	ID        uuid.UUID  `json:"id"`
	MemberID  uuid.UUID  `json:"member_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	EndReason *EndReason `json:"end_reason"`
	CreatedAt time.Time  `json:"created_at"`
}

// Open reports whether the period is still open.
func (p MembershipPeriod) Open() bool { return p.EndDate == nil }
