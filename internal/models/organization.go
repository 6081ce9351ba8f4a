package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant association.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganizationSettings holds per-organization lifecycle configuration:
// the payment grace window and the role-recognition percentage table.
type OrganizationSettings struct {
	OrganizationID    uuid.UUID `json:"organization_id"`
	GracePeriodDays   int       `json:"grace_period_days"`
	GuidePct          int       `json:"guide_pct"`
	AssistantGuidePct int       `json:"assistant_guide_pct"`
	DriverPct         int       `json:"driver_pct"`
	RegularPct        int       `json:"regular_pct"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Default role-recognition percentages, used when an organization has no
// stored settings or the settings store is unreachable.
const (
	DefaultGracePeriodDays   = 60
	DefaultGuidePct          = 100
	DefaultAssistantGuidePct = 50
	DefaultDriverPct         = 100
	DefaultRegularPct        = 10
)

// DefaultOrganizationSettings returns the hard-coded fallback settings.
func DefaultOrganizationSettings(orgID uuid.UUID) OrganizationSettings {
	return OrganizationSettings{
		OrganizationID:    orgID,
		GracePeriodDays:   DefaultGracePeriodDays,
		GuidePct:          DefaultGuidePct,
		AssistantGuidePct: DefaultAssistantGuidePct,
		DriverPct:         DefaultDriverPct,
		RegularPct:        DefaultRegularPct,
	}
}

// RolePercentage returns the recognition percentage for role, or 100 for an
// unknown role so historical data with retired role names keeps full credit.
func (s OrganizationSettings) RolePercentage(role ParticipationRole) int {
	switch role {
	case RoleGuide:
		return s.GuidePct
	case RoleAssistantGuide:
		return s.AssistantGuidePct
	case RoleDriver:
		return s.DriverPct
	case RoleRegular:
		return s.RegularPct
	default:
		return 100
	}
}
