package recognition

import (
	"github.com/assohub/backend/internal/models"
)

// minutesStrategy extracts base minutes from a participation/activity pair,
// reporting whether it applies. Strategies run in a fixed order; the first
// match wins, keeping the override precedence auditable.
type minutesStrategy func(p models.ActivityParticipation, a models.Activity) (float64, bool)

// fromParticipationOverride: a positive per-participation manual-hours
// override beats everything else.
func fromParticipationOverride(p models.ActivityParticipation, _ models.Activity) (float64, bool) {
	if p.ManualHours != nil && *p.ManualHours > 0 {
		return *p.ManualHours * 60, true
	}
	return 0, false
}

// fromActivityOverride: a positive activity-level manual-hours value.
func fromActivityOverride(_ models.ActivityParticipation, a models.Activity) (float64, bool) {
	if a.ManualHours != nil && *a.ManualHours > 0 {
		return *a.ManualHours * 60, true
	}
	return 0, false
}

// fromActualTimes: recorded start/end span, floored at zero so inverted
// timestamps in historical data never produce negative minutes.
func fromActualTimes(_ models.ActivityParticipation, a models.Activity) (float64, bool) {
	if a.ActualStartTime == nil || a.ActualEndTime == nil {
		return 0, false
	}
	minutes := a.ActualEndTime.Sub(*a.ActualStartTime).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	return minutes, true
}

// fallbackZero always applies.
func fallbackZero(_ models.ActivityParticipation, _ models.Activity) (float64, bool) {
	return 0, true
}

var baseMinutesPipeline = []minutesStrategy{
	fromParticipationOverride,
	fromActivityOverride,
	fromActualTimes,
	fallbackZero,
}

// BaseMinutes computes the unweighted minutes for a participation.
func BaseMinutes(p models.ActivityParticipation, a models.Activity) float64 {
	for _, strategy := range baseMinutesPipeline {
		if minutes, ok := strategy(p, a); ok {
			return minutes
		}
	}
	return 0
}

// Percentage resolves the recognition percentage. Precedence: participation
// override, then activity percentage, then the role table when the
// participation carries an explicit role, then 100. Missing fields degrade
// to defaults; this function never errors, because it is evaluated over
// possibly-incomplete historical data.
func Percentage(p models.ActivityParticipation, a models.Activity, settings models.OrganizationSettings) int {
	if p.RecognitionOverride != nil {
		return *p.RecognitionOverride
	}
	if a.RecognitionPercentage != nil {
		return *a.RecognitionPercentage
	}
	if p.Role != nil {
		return settings.RolePercentage(*p.Role)
	}
	return 100
}

// RecognizedMinutes computes the weighted minutes one participation is worth.
// Filtering by activity status and year happens upstream in the aggregator.
func RecognizedMinutes(p models.ActivityParticipation, a models.Activity, settings models.OrganizationSettings) float64 {
	return BaseMinutes(p, a) * float64(Percentage(p, a, settings)) / 100
}
