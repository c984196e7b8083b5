package subscription

import (
	"time"

	"github.com/flexprice/payschedule/internal/domain/proration"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/samber/lo"
)

// AlignPhase splits phase into a single-period lead-in phase covering
// [phase.StartDate, anchor) and a regular phase starting on anchor.
// With prorate set the lead-in amount is spread over the days of the
// calendar year the phase starts in.
//
// The input phase is not modified; callers swap the pair in with
// Subscription.ReplacePhase.
func AlignPhase(phase *Phase, anchor time.Time, prorate bool) (leadIn *Phase, regular *Phase, err error) {
	return AlignPhaseWith(phase, anchor, prorate, types.ProrationStrategyCalendarYear)
}

// AlignPhaseToRule aligns phase to the first anchor rule yields after the
// phase start. With prorate set the lead-in amount is spread over the days
// of one regular period.
func AlignPhaseToRule(phase *Phase, rule types.AlignmentRule, prorate bool) (leadIn *Phase, regular *Phase, err error) {
	return AlignPhaseWith(phase, rule.Date(phase.StartDate), prorate, types.ProrationStrategyPeriod)
}

// AlignPhaseWith is AlignPhase with an explicit proration strategy
func AlignPhaseWith(phase *Phase, anchor time.Time, prorate bool, strategy types.ProrationStrategy) (*Phase, *Phase, error) {
	if err := phase.Validate(); err != nil {
		return nil, nil, err
	}
	if phase.PeriodsCreated > 0 {
		return nil, nil, ierr.NewErrorf("phase %d already created %d periods", phase.SequenceNumber, phase.PeriodsCreated).
			WithHint("Only phases that have not started billing can be aligned").
			Mark(ierr.ErrInvalidOperation)
	}
	if err := strategy.Validate(); err != nil {
		return nil, nil, err
	}

	anchor = onClockOf(anchor, phase.StartDate)
	days := types.DaysBetween(phase.StartDate, anchor)
	if days < 1 {
		return nil, nil, ierr.NewErrorf("anchor %s is not after phase start %s", anchor.Format(time.DateOnly), phase.StartDate.Format(time.DateOnly)).
			WithHint("Alignment date must be after the phase start").
			WithReportableDetails(map[string]any{
				"start_date":  phase.StartDate,
				"anchor_date": anchor,
			}).
			Mark(ierr.ErrInvalidArgument)
	}

	amount := phase.Amount
	if prorate {
		result, err := proration.NewCalculator(strategy).Calculate(proration.ProrationParams{
			Amount:      phase.Amount,
			Interval:    phase.Interval,
			PeriodStart: phase.StartDate,
			AnchorDate:  anchor,
		})
		if err != nil {
			return nil, nil, err
		}
		amount = result.Amount
	}

	leadIn := &Phase{
		SequenceNumber: phase.SequenceNumber,
		StartDate:      phase.StartDate,
		Interval:       types.Interval{Days: days},
		Amount:         amount,
		Trial:          phase.Trial,
		Prorated:       true,
		TotalPeriods:   lo.ToPtr(1),
	}

	regular := phase.Copy()
	regular.SequenceNumber = phase.SequenceNumber + 1
	regular.StartDate = anchor

	return leadIn, regular, nil
}

// onClockOf keeps the calendar date of anchor with the clock and location of ref
func onClockOf(anchor, ref time.Time) time.Time {
	h, m, s := ref.Clock()
	return time.Date(anchor.Year(), anchor.Month(), anchor.Day(), h, m, s, ref.Nanosecond(), ref.Location())
}
