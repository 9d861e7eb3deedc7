package schedule

import (
	"fmt"
	"time"

	"github.com/fairview/review-cycle-service/internal/domain"
)

// CycleAnchor returns the start of the half-year containing today:
// January 1 for January through June, July 1 otherwise.
func CycleAnchor(today time.Time) time.Time {
	if today.Month() < time.July {
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(today.Year(), time.July, 1, 0, 0, 0, 0, time.UTC)
}

// NextCycleAnchor returns the start of the half-year after today's.
func NextCycleAnchor(today time.Time) time.Time {
	if today.Month() < time.July {
		return time.Date(today.Year(), time.July, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(today.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// PeriodLabel names the half-year being reviewed, which is the one
// preceding the cycle anchor: a January anchor reviews the second half of
// the previous year ("2H-2024"), a July anchor the first half of the
// current year ("1H-2025").
func PeriodLabel(anchor time.Time) string {
	if anchor.Month() == time.January {
		return fmt.Sprintf("2H-%d", anchor.Year()-1)
	}
	return fmt.Sprintf("1H-%d", anchor.Year())
}

// FlavorFor picks the drop-dead flavor for today: formal in the first
// half of the year, informal in the second. A non-empty manual override
// wins.
func FlavorFor(today time.Time, manual domain.Flavor) domain.Flavor {
	if manual != "" {
		return manual
	}
	if today.Month() < time.July {
		return domain.FlavorFormal
	}
	return domain.FlavorInformal
}
