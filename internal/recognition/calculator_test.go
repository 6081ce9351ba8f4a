package recognition

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/assohub/backend/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func rolePtr(r models.ParticipationRole) *models.ParticipationRole { return &r }

func timePtr(t time.Time) *time.Time { return &t }

func TestBaseMinutes_ParticipationOverrideWins(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	p := models.ActivityParticipation{ManualHours: floatPtr(3)}
	a := models.Activity{
		ManualHours:     floatPtr(5),
		ActualStartTime: timePtr(start),
		ActualEndTime:   timePtr(end),
	}
	assert.Equal(t, 180.0, BaseMinutes(p, a))
}

func TestBaseMinutes_ActivityOverrideBeatsActualTimes(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := models.Activity{
		ManualHours:     floatPtr(5),
		ActualStartTime: timePtr(start),
		ActualEndTime:   timePtr(start.Add(2 * time.Hour)),
	}
	assert.Equal(t, 300.0, BaseMinutes(models.ActivityParticipation{}, a))
}

func TestBaseMinutes_ActualTimes(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := models.Activity{
		ActualStartTime: timePtr(start),
		ActualEndTime:   timePtr(start.Add(90 * time.Minute)),
	}
	assert.Equal(t, 90.0, BaseMinutes(models.ActivityParticipation{}, a))
}

func TestBaseMinutes_InvertedSpanFloorsToZero(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := models.Activity{
		ActualStartTime: timePtr(start),
		ActualEndTime:   timePtr(start.Add(-time.Hour)),
	}
	assert.Equal(t, 0.0, BaseMinutes(models.ActivityParticipation{}, a))
}

func TestBaseMinutes_ZeroOverrideIgnored(t *testing.T) {
	// A zero or negative manual-hours value is not an override; the pipeline
	// falls through to the next source.
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	p := models.ActivityParticipation{ManualHours: floatPtr(0)}
	a := models.Activity{
		ManualHours:     floatPtr(-1),
		ActualStartTime: timePtr(start),
		ActualEndTime:   timePtr(start.Add(time.Hour)),
	}
	assert.Equal(t, 60.0, BaseMinutes(p, a))
}

func TestBaseMinutes_NothingRecorded(t *testing.T) {
	assert.Equal(t, 0.0, BaseMinutes(models.ActivityParticipation{}, models.Activity{}))
}

func TestBaseMinutes_HalfOpenTimesSkipped(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := models.Activity{ActualStartTime: timePtr(start)}
	assert.Equal(t, 0.0, BaseMinutes(models.ActivityParticipation{}, a))
}

func TestPercentage_ParticipationOverrideWins(t *testing.T) {
	settings := models.DefaultOrganizationSettings(uuid.New())
	p := models.ActivityParticipation{
		RecognitionOverride: intPtr(50),
		Role:                rolePtr(models.RoleGuide),
	}
	a := models.Activity{RecognitionPercentage: intPtr(100)}
	assert.Equal(t, 50, Percentage(p, a, settings))
}

func TestPercentage_ActivityBeatsRoleTable(t *testing.T) {
	settings := models.DefaultOrganizationSettings(uuid.New())
	p := models.ActivityParticipation{Role: rolePtr(models.RoleRegular)}
	a := models.Activity{RecognitionPercentage: intPtr(75)}
	assert.Equal(t, 75, Percentage(p, a, settings))
}

func TestPercentage_RoleTable(t *testing.T) {
	settings := models.DefaultOrganizationSettings(uuid.New())
	tests := []struct {
		role models.ParticipationRole
		want int
	}{
		{models.RoleGuide, 100},
		{models.RoleAssistantGuide, 50},
		{models.RoleDriver, 100},
		{models.RoleRegular, 10},
		{"RETIRED_ROLE", 100},
	}
	for _, tt := range tests {
		p := models.ActivityParticipation{Role: rolePtr(tt.role)}
		assert.Equal(t, tt.want, Percentage(p, models.Activity{}, settings), "role=%s", tt.role)
	}
}

func TestPercentage_NoRoleDefaultsToFull(t *testing.T) {
	settings := models.DefaultOrganizationSettings(uuid.New())
	assert.Equal(t, 100, Percentage(models.ActivityParticipation{}, models.Activity{}, settings))
}

func TestRecognizedMinutes_WeightsBaseByPercentage(t *testing.T) {
	settings := models.DefaultOrganizationSettings(uuid.New())
	p := models.ActivityParticipation{Role: rolePtr(models.RoleAssistantGuide)}
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := models.Activity{
		ActualStartTime: timePtr(start),
		ActualEndTime:   timePtr(start.Add(2 * time.Hour)),
	}
	// 120 base minutes at 50%.
	assert.Equal(t, 60.0, RecognizedMinutes(p, a, settings))
}

func TestRecognizedMinutes_ZeroOverrideZeroesOut(t *testing.T) {
	settings := models.DefaultOrganizationSettings(uuid.New())
	p := models.ActivityParticipation{RecognitionOverride: intPtr(0), ManualHours: floatPtr(4)}
	assert.Equal(t, 0.0, RecognizedMinutes(p, models.Activity{}, settings))
}
