package membership

import (
	"time"

	"github.com/assohub/backend/internal/models"
)

// StatusInput is the set of stored facts the eligibility gate evaluates.
type StatusInput struct {
	FeePaymentYear  *int
	FeePaymentDate  *time.Time
	CardStampIssued bool
	HasOpenPeriod   bool
	CurrentYear     int
}

// StatusResult is the derived membership status.
type StatusResult struct {
	IsValid bool                    `json:"is_valid"`
	Status  models.MembershipStatus `json:"status"`
	Reason  string                  `json:"reason,omitempty"`
}

// Gate reasons, stable strings surfaced to callers and the sweep.
const (
	ReasonPaymentNotRecorded = "payment not recorded"
	ReasonNoOpenPeriod       = "no active membership period"
	ReasonPaymentLapsed      = "payment lapsed, in grace period until termination"
	ReasonStampNotIssued     = "stamp not issued for current year"
)

// ComputeStatus derives a membership status from stored financial and stamp
// facts. Pure and deterministic; performs no I/O. Rules are evaluated in
// order, first match wins:
//
//  1. No payment year or date recorded: pending (newly pre-registered).
//  2. No open period: inactive (former member, not reactivated).
//  3. Payment year is neither the current year nor next year (early
//     renewal): pending with a grace-period reason. Deliberately pending
//     rather than inactive, to distinguish "about to lapse" from "already
//     lapsed" before the daily sweep closes the period.
//  4. Card stamp not issued: pending.
//  5. Otherwise: registered and valid.
func ComputeStatus(in StatusInput) StatusResult {
	if in.FeePaymentYear == nil || in.FeePaymentDate == nil {
		return StatusResult{Status: models.StatusPending, Reason: ReasonPaymentNotRecorded}
	}
	if !in.HasOpenPeriod {
		return StatusResult{Status: models.StatusInactive, Reason: ReasonNoOpenPeriod}
	}
	year := *in.FeePaymentYear
	if year != in.CurrentYear && year != in.CurrentYear+1 {
		return StatusResult{Status: models.StatusPending, Reason: ReasonPaymentLapsed}
	}
	if !in.CardStampIssued {
		return StatusResult{Status: models.StatusPending, Reason: ReasonStampNotIssued}
	}
	return StatusResult{IsValid: true, Status: models.StatusRegistered}
}
