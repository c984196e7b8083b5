package types

import (
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/samber/lo"
)

// ProrationStrategy defines the day count a lead-in amount is divided by
type ProrationStrategy string

const (
	// ProrationStrategyCalendarYear divides the regular amount by the number
	// of days in the calendar year the phase starts in (365 or 366).
	ProrationStrategyCalendarYear ProrationStrategy = "calendar_year"
	// ProrationStrategyPeriod divides the regular amount by the number of
	// days in one regular period starting on the phase start.
	ProrationStrategyPeriod ProrationStrategy = "period"
)

func (s ProrationStrategy) String() string {
	return string(s)
}

func (s ProrationStrategy) Validate() error {
	allowed := []ProrationStrategy{
		ProrationStrategyCalendarYear,
		ProrationStrategyPeriod,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid proration strategy").
			WithHint("Invalid proration strategy").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
