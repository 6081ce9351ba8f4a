package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/assohub/backend/internal/models"
)

func intPtr(v int) *int { return &v }

func datePtr(year, month, day int) *time.Time {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestComputeStatus_NoPaymentRecorded(t *testing.T) {
	result := ComputeStatus(StatusInput{
		FeePaymentYear: nil,
		FeePaymentDate: nil,
		HasOpenPeriod:  true,
		CurrentYear:    2024,
	})
	assert.False(t, result.IsValid)
	assert.Equal(t, models.StatusPending, result.Status)
	assert.Equal(t, ReasonPaymentNotRecorded, result.Reason)
}

func TestComputeStatus_YearWithoutDateIsPending(t *testing.T) {
	result := ComputeStatus(StatusInput{
		FeePaymentYear: intPtr(2024),
		FeePaymentDate: nil,
		HasOpenPeriod:  true,
		CurrentYear:    2024,
	})
	assert.False(t, result.IsValid)
	assert.Equal(t, models.StatusPending, result.Status)
}

func TestComputeStatus_NoOpenPeriodIsInactive(t *testing.T) {
	// A former member who has paid but was never reactivated.
	result := ComputeStatus(StatusInput{
		FeePaymentYear:  intPtr(2024),
		FeePaymentDate:  datePtr(2024, 1, 15),
		CardStampIssued: true,
		HasOpenPeriod:   false,
		CurrentYear:     2024,
	})
	assert.False(t, result.IsValid)
	assert.Equal(t, models.StatusInactive, result.Status)
	assert.Equal(t, ReasonNoOpenPeriod, result.Reason)
}

func TestComputeStatus_LapsedPaymentIsGracePending(t *testing.T) {
	// Payment two years old with the period still open: pending, not
	// inactive, until the sweep closes the period.
	result := ComputeStatus(StatusInput{
		FeePaymentYear:  intPtr(2022),
		FeePaymentDate:  datePtr(2022, 1, 15),
		CardStampIssued: true,
		HasOpenPeriod:   true,
		CurrentYear:     2024,
	})
	assert.False(t, result.IsValid)
	assert.Equal(t, models.StatusPending, result.Status)
	assert.Equal(t, ReasonPaymentLapsed, result.Reason)
}

func TestComputeStatus_LapsedPaymentNoPeriodIsInactive(t *testing.T) {
	result := ComputeStatus(StatusInput{
		FeePaymentYear:  intPtr(2022),
		FeePaymentDate:  datePtr(2022, 1, 15),
		CardStampIssued: true,
		HasOpenPeriod:   false,
		CurrentYear:     2024,
	})
	assert.False(t, result.IsValid)
	assert.Equal(t, models.StatusInactive, result.Status)
}

func TestComputeStatus_MissingStampIsPending(t *testing.T) {
	result := ComputeStatus(StatusInput{
		FeePaymentYear:  intPtr(2024),
		FeePaymentDate:  datePtr(2024, 1, 15),
		CardStampIssued: false,
		HasOpenPeriod:   true,
		CurrentYear:     2024,
	})
	assert.False(t, result.IsValid)
	assert.Equal(t, models.StatusPending, result.Status)
	assert.Equal(t, ReasonStampNotIssued, result.Reason)
}

func TestComputeStatus_PaidAndStampedIsRegistered(t *testing.T) {
	result := ComputeStatus(StatusInput{
		FeePaymentYear:  intPtr(2024),
		FeePaymentDate:  datePtr(2024, 1, 15),
		CardStampIssued: true,
		HasOpenPeriod:   true,
		CurrentYear:     2024,
	})
	assert.True(t, result.IsValid)
	assert.Equal(t, models.StatusRegistered, result.Status)
	assert.Empty(t, result.Reason)
}

func TestComputeStatus_EarlyRenewalCountsAsPaid(t *testing.T) {
	// Paying for next year in December keeps the member registered.
	result := ComputeStatus(StatusInput{
		FeePaymentYear:  intPtr(2025),
		FeePaymentDate:  datePtr(2024, 12, 10),
		CardStampIssued: true,
		HasOpenPeriod:   true,
		CurrentYear:     2024,
	})
	assert.True(t, result.IsValid)
	assert.Equal(t, models.StatusRegistered, result.Status)
}

func TestComputeStatus_Deterministic(t *testing.T) {
	in := StatusInput{
		FeePaymentYear:  intPtr(2023),
		FeePaymentDate:  datePtr(2023, 3, 1),
		CardStampIssued: true,
		HasOpenPeriod:   true,
		CurrentYear:     2024,
	}
	first := ComputeStatus(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeStatus(in))
	}
}

func TestComputeStatus_BoundaryTable(t *testing.T) {
	tests := []struct {
		name       string
		in         StatusInput
		wantValid  bool
		wantStatus models.MembershipStatus
	}{
		{"nil year", StatusInput{HasOpenPeriod: true, CurrentYear: 2024}, false, models.StatusPending},
		{"current year no stamp", StatusInput{FeePaymentYear: intPtr(2024), FeePaymentDate: datePtr(2024, 2, 1), HasOpenPeriod: true, CurrentYear: 2024}, false, models.StatusPending},
		{"current year stamped", StatusInput{FeePaymentYear: intPtr(2024), FeePaymentDate: datePtr(2024, 2, 1), CardStampIssued: true, HasOpenPeriod: true, CurrentYear: 2024}, true, models.StatusRegistered},
		{"two years stale, open", StatusInput{FeePaymentYear: intPtr(2022), FeePaymentDate: datePtr(2022, 2, 1), CardStampIssued: true, HasOpenPeriod: true, CurrentYear: 2024}, false, models.StatusPending},
		{"two years stale, closed", StatusInput{FeePaymentYear: intPtr(2022), FeePaymentDate: datePtr(2022, 2, 1), CardStampIssued: true, HasOpenPeriod: false, CurrentYear: 2024}, false, models.StatusInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatus(tt.in)
			assert.Equal(t, tt.wantValid, got.IsValid)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}
