package models

import (
	"time"

	"github.com/google/uuid"
)

// AnnualStatistics is the cached per-member-per-year total of recognized
// hours and activity count. Fully reconstructible from participations;
// a member-year with zero qualifying activities has no row at all.
type AnnualStatistics struct {
	MemberID        uuid.UUID `json:"member_id"`
	Year            int       `json:"year"`
	TotalHours      float64   `json:"total_hours"`
	TotalActivities int       `json:"total_activities"`
	CalculatedAt    time.Time `json:"calculated_at"`
}
