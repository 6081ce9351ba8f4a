package membership

import (
	"fmt"
	"strings"
	"time"

	"github.com/assohub/backend/internal/models"
)

// TotalDays sums the day spans of the given periods. Closed periods count
// start to end; an open period counts start to now.
func TotalDays(periods []models.MembershipPeriod, now time.Time) int {
	total := 0
	for _, p := range periods {
		end := now
		if p.EndDate != nil {
			end = *p.EndDate
		}
		days := int(end.Sub(p.StartDate).Hours() / 24)
		if days > 0 {
			total += days
		}
	}
	return total
}

// FormatDuration renders a day count as years/months/days using the 365/30
// approximation. Calendar-naive on purpose: this matches how membership
// tenure has always been reported and changing it would shift historical
// figures.
func FormatDuration(days int) string {
	if days <= 0 {
		return "0 days"
	}
	years := days / 365
	rem := days % 365
	months := rem / 30
	rem = rem % 30

	var parts []string
	if years > 0 {
		parts = append(parts, plural(years, "year"))
	}
	if months > 0 {
		parts = append(parts, plural(months, "month"))
	}
	if rem > 0 || len(parts) == 0 {
		parts = append(parts, plural(rem, "day"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
