package types

import (
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/samber/lo"
)

// AlignmentUnit is the calendar unit an AlignmentRule repeats on
type AlignmentUnit string

const (
	AlignmentUnitWeek  AlignmentUnit = "W"
	AlignmentUnitMonth AlignmentUnit = "M"
	AlignmentUnitYear  AlignmentUnit = "Y"
)

func (u AlignmentUnit) String() string {
	return string(u)
}

func (u AlignmentUnit) Validate() error {
	allowed := []AlignmentUnit{AlignmentUnitWeek, AlignmentUnitMonth, AlignmentUnitYear}
	if !lo.Contains(allowed, u) {
		return ierr.NewError("invalid alignment unit").
			WithHint("Alignment unit must be W, M or Y").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": u,
			}).
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}

// AlignmentRuleParams configures an AlignmentRule.
// Unset constraints default to the corresponding part of the date the rule
// is applied to.
type AlignmentRuleParams struct {
	Unit AlignmentUnit `json:"unit"`
	// DayOfWeek is the ISO weekday, 1 (Monday) through 7 (Sunday). Week unit only.
	DayOfWeek *int `json:"day_of_week,omitempty"`
	// DayOfMonth is capped to the length of the target month. Month and year units.
	DayOfMonth *int `json:"day_of_month,omitempty"`
	// MonthOfYear is 1 through 12. Year unit only.
	MonthOfYear *int `json:"month_of_year,omitempty"`
}

// AlignmentRule finds the next billing anchor such as "every 1st of January"
// or "every Friday".
type AlignmentRule struct {
	params AlignmentRuleParams
}

// NewAlignmentRule validates params and returns the rule
func NewAlignmentRule(params AlignmentRuleParams) (AlignmentRule, error) {
	if err := params.Unit.Validate(); err != nil {
		return AlignmentRule{}, err
	}

	switch params.Unit {
	case AlignmentUnitWeek:
		if params.DayOfMonth != nil || params.MonthOfYear != nil {
			return AlignmentRule{}, incompatibleConstraint(params.Unit, "day of month or month of year")
		}
	case AlignmentUnitMonth:
		if params.DayOfWeek != nil || params.MonthOfYear != nil {
			return AlignmentRule{}, incompatibleConstraint(params.Unit, "day of week or month of year")
		}
	case AlignmentUnitYear:
		if params.DayOfWeek != nil {
			return AlignmentRule{}, incompatibleConstraint(params.Unit, "day of week")
		}
	}

	if err := checkRange("day_of_week", params.DayOfWeek, 1, 7); err != nil {
		return AlignmentRule{}, err
	}
	if err := checkRange("day_of_month", params.DayOfMonth, 1, 31); err != nil {
		return AlignmentRule{}, err
	}
	if err := checkRange("month_of_year", params.MonthOfYear, 1, 12); err != nil {
		return AlignmentRule{}, err
	}

	return AlignmentRule{params: params}, nil
}

// Params returns a copy of the rule configuration
func (r AlignmentRule) Params() AlignmentRuleParams {
	return r.params
}

func (r AlignmentRule) Unit() AlignmentUnit {
	return r.params.Unit
}

// Date returns the first date strictly after from that satisfies the rule.
// A date already on the anchor moves a full unit forward, so a weekly rule
// applied to a Tuesday without a weekday returns the next Tuesday.
// The clock time and location of from are kept.
func (r AlignmentRule) Date(from time.Time) time.Time {
	switch r.params.Unit {
	case AlignmentUnitWeek:
		target := lo.FromPtrOr(r.params.DayOfWeek, ISOWeekday(from))
		diff := target - ISOWeekday(from)
		if diff <= 0 {
			diff += 7
		}
		return from.AddDate(0, 0, diff)

	case AlignmentUnitMonth:
		day := lo.FromPtrOr(r.params.DayOfMonth, from.Day())
		candidate := dateOn(from, from.Year(), from.Month(), day)
		if candidate.Day() > from.Day() {
			return candidate
		}
		next := time.Date(from.Year(), from.Month()+1, 1, 0, 0, 0, 0, from.Location())
		return dateOn(from, next.Year(), next.Month(), day)

	case AlignmentUnitYear:
		month := time.Month(lo.FromPtrOr(r.params.MonthOfYear, int(from.Month())))
		day := lo.FromPtrOr(r.params.DayOfMonth, from.Day())
		candidate := dateOn(from, from.Year(), month, day)
		if candidate.Month() > from.Month() || (candidate.Month() == from.Month() && candidate.Day() > from.Day()) {
			return candidate
		}
		return dateOn(from, from.Year()+1, month, day)
	}

	return from
}

// dateOn builds year-month-day with day capped to the month length, keeping
// the clock and location of ref
func dateOn(ref time.Time, year int, month time.Month, day int) time.Time {
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	h, m, s := ref.Clock()
	return time.Date(year, month, day, h, m, s, ref.Nanosecond(), ref.Location())
}

func incompatibleConstraint(unit AlignmentUnit, constraint string) error {
	return ierr.NewErrorf("alignment unit %s cannot be combined with %s", unit, constraint).
		WithHintf("A %s alignment rule cannot use %s", unit, constraint).
		Mark(ierr.ErrInvalidArgument)
}

func checkRange(field string, v *int, min, max int) error {
	if v == nil || (*v >= min && *v <= max) {
		return nil
	}
	return ierr.NewErrorf("%s %d is out of range", field, *v).
		WithHintf("%s must be between %d and %d", field, min, max).
		WithReportableDetails(map[string]any{
			"field": field,
			"value": *v,
			"min":   min,
			"max":   max,
		}).
		Mark(ierr.ErrInvalidArgument)
}
