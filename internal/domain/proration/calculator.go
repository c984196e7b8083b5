// Package proration computes prorated lead-in amounts used when aligning a
// subscription phase to a fixed billing anchor.
package proration

import (
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/shopspring/decimal"
)

// Calculator computes the prorated amount of a lead-in period
type Calculator interface {
	Calculate(params ProrationParams) (*ProrationResult, error)
	Strategy() types.ProrationStrategy
}

// NewCalculator creates a proration calculator for the given strategy.
// Unknown strategies fall back to the calendar year calculator.
func NewCalculator(strategy types.ProrationStrategy) Calculator {
	switch strategy {
	case types.ProrationStrategyPeriod:
		return &periodCalculator{}
	default:
		return &calendarYearCalculator{}
	}
}

// calendarYearCalculator spreads the amount over the days of the calendar
// year the lead-in starts in.
type calendarYearCalculator struct{}

func (c *calendarYearCalculator) Strategy() types.ProrationStrategy {
	return types.ProrationStrategyCalendarYear
}

func (c *calendarYearCalculator) Calculate(params ProrationParams) (*ProrationResult, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	return calculate(params, types.DaysInYear(params.PeriodStart.Year()), c.Strategy())
}

// periodCalculator spreads the amount over one regular period starting on
// the lead-in start.
type periodCalculator struct{}

func (c *periodCalculator) Strategy() types.ProrationStrategy {
	return types.ProrationStrategyPeriod
}

func (c *periodCalculator) Calculate(params ProrationParams) (*ProrationResult, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	if !params.Interval.IsPositive() {
		return nil, ierr.NewError("period proration needs a positive interval").
			WithHintf("interval %s does not move forward", params.Interval).
			Mark(ierr.ErrValidation)
	}
	base := types.DaysBetween(params.PeriodStart, params.Interval.AddTo(params.PeriodStart))
	return calculate(params, base, c.Strategy())
}

// calculate applies amount / baseDays * days, rounded to the currency precision
func calculate(params ProrationParams, baseDays int, strategy types.ProrationStrategy) (*ProrationResult, error) {
	days := types.DaysBetween(params.PeriodStart, params.AnchorDate)

	perDay, err := params.Amount.Divide(decimal.NewFromInt(int64(baseDays)))
	if err != nil {
		return nil, err
	}

	return &ProrationResult{
		Amount:      perDay.Multiply(decimal.NewFromInt(int64(days))).Round(),
		Days:        days,
		BaseDays:    baseDays,
		Coefficient: decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(baseDays))),
		Strategy:    strategy,
		PeriodStart: params.PeriodStart,
		AnchorDate:  params.AnchorDate,
	}, nil
}

func validateParams(params ProrationParams) error {
	if params.Amount.Currency == "" {
		return ierr.NewError("amount currency is required").
			WithHint("Proration needs an amount with a currency").
			Mark(ierr.ErrValidation)
	}
	if !params.AnchorDate.After(params.PeriodStart) || types.DaysBetween(params.PeriodStart, params.AnchorDate) < 1 {
		return ierr.NewError("anchor date must be at least one day after the period start").
			WithHintf("cannot prorate from %s to %s", params.PeriodStart.Format(time.DateOnly), params.AnchorDate.Format(time.DateOnly)).
			WithReportableDetails(map[string]any{
				"period_start": params.PeriodStart,
				"anchor_date":  params.AnchorDate,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
