package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityStatus is the lifecycle state of an activity. Only COMPLETED
// activities count toward recognized hours.
type ActivityStatus string

const (
	ActivityPlanned   ActivityStatus = "PLANNED"
	ActivityCompleted ActivityStatus = "COMPLETED"
	ActivityCancelled ActivityStatus = "CANCELLED"
)

// ParticipationRole weights a member's recognized hours for an activity.
type ParticipationRole string

const (
	RoleGuide          ParticipationRole = "GUIDE"
	RoleAssistantGuide ParticipationRole = "ASSISTANT_GUIDE"
	RoleDriver         ParticipationRole = "DRIVER"
	RoleRegular        ParticipationRole = "REGULAR"
)

// Activity is an organized event members participate in. StartDate determines
// which statistics year the activity counts toward.
type Activity struct {
	ID                    uuid.UUID      `json:"id"`
	OrganizationID        uuid.UUID      `json:"organization_id"`
	Title                 string         `json:"title"`
	Status                ActivityStatus `json:"status"`
	StartDate             time.Time      `json:"start_date"`
	ActualStartTime       *time.Time     `json:"actual_start_time"`
	ActualEndTime         *time.Time     `json:"actual_end_time"`
	ManualHours           *float64       `json:"manual_hours"`
	RecognitionPercentage *int           `json:"recognition_percentage"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// ActivityParticipation links a member to one activity, with optional
// per-participation overrides for hours and recognition percentage.
type ActivityParticipation struct {
	ID                  uuid.UUID          `json:"id"`
	ActivityID          uuid.UUID          `json:"activity_id"`
	MemberID            uuid.UUID          `json:"member_id"`
	Role                *ParticipationRole `json:"role"`
	ManualHours         *float64           `json:"manual_hours"`
	RecognitionOverride *int               `json:"recognition_override"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}
