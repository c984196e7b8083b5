package subscription

import (
	"encoding/json"
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/samber/lo"
)

// Phase is a run of periods sharing one interval and one amount
type Phase struct {
	// SequenceNumber is the 1-based position of the phase in its subscription
	SequenceNumber int `json:"sequence_number"`

	// StartDate is the start of the first period
	StartDate time.Time `json:"start_date"`

	// Interval is the length of every period
	Interval types.Interval `json:"interval"`

	// Amount is charged for every period
	Amount types.Money `json:"amount"`

	// Trial marks promotional periods
	Trial bool `json:"trial"`

	// Prorated marks a lead-in phase created by alignment
	Prorated bool `json:"prorated"`

	// TotalPeriods bounds the phase, nil means infinite
	TotalPeriods *int `json:"total_periods"`

	// PeriodsCreated counts NextPeriod calls, it never decreases
	PeriodsCreated int `json:"periods_created"`
}

// phaseFields has the fields of Phase without its JSON methods
type phaseFields Phase

// phaseDocument is the serialized form of a phase. A time.Time only keeps its
// UTC offset, so the start date's zone name is stored next to it and period
// boundaries keep following daylight saving time after a reload.
type phaseDocument struct {
	phaseFields
	Timezone string `json:"timezone,omitempty"`
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(phaseDocument{
		phaseFields: phaseFields(p),
		Timezone:    types.LocationName(p.StartDate.Location()),
	})
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var doc phaseDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*p = Phase(doc.phaseFields)

	if doc.Timezone != "" {
		loc, err := time.LoadLocation(doc.Timezone)
		if err != nil {
			return ierr.WithError(err).
				WithHintf("Unknown timezone %s", doc.Timezone).
				Mark(ierr.ErrParse)
		}
		p.StartDate = p.StartDate.In(loc)
	}
	return nil
}

// Validate checks the phase invariants
func (p *Phase) Validate() error {
	if p.StartDate.IsZero() {
		return ierr.NewError("phase start date is required").
			WithHint("Start date is required").
			Mark(ierr.ErrValidation)
	}
	if !p.Interval.IsPositive() {
		return ierr.NewErrorf("phase interval %s is not positive", p.Interval).
			WithHint("Interval must move forward, e.g. P1M").
			Mark(ierr.ErrValidation)
	}
	if p.Amount.Currency == "" {
		return ierr.NewError("phase amount currency is required").
			WithHint("Amount must have a currency").
			Mark(ierr.ErrValidation)
	}
	if p.TotalPeriods != nil && *p.TotalPeriods < 1 {
		return ierr.NewErrorf("total periods %d must be at least 1", *p.TotalPeriods).
			WithHint("Total periods must be at least 1 or left empty for an infinite phase").
			Mark(ierr.ErrValidation)
	}
	if p.PeriodsCreated < 0 || (p.TotalPeriods != nil && p.PeriodsCreated > *p.TotalPeriods) {
		return ierr.NewErrorf("periods created %d is out of bounds", p.PeriodsCreated).
			WithReportableDetails(map[string]any{
				"periods_created": p.PeriodsCreated,
				"total_periods":   p.TotalPeriods,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsInfinite reports whether the phase has no period bound
func (p *Phase) IsInfinite() bool {
	return p.TotalPeriods == nil
}

// IsCompleted reports whether a bounded phase has created all its periods
func (p *Phase) IsCompleted() bool {
	return p.TotalPeriods != nil && p.PeriodsCreated >= *p.TotalPeriods
}

// PeriodStartDate returns the start of the i-th (0-based) period.
// Each start is computed from the phase start, so a month-end start keeps
// its day where the month allows: Jan 31, Feb 29, Mar 31.
func (p *Phase) PeriodStartDate(i int) time.Time {
	return p.Interval.Multiply(i).AddTo(p.StartDate)
}

// PeriodAt returns the i-th (0-based) period without touching the counter
func (p *Phase) PeriodAt(i int) *Period {
	return &Period{
		PhaseSequence: p.SequenceNumber,
		StartDate:     p.PeriodStartDate(i),
		EndDate:       p.PeriodStartDate(i + 1),
		Amount:        p.Amount,
		Trial:         p.Trial,
		Prorated:      p.Prorated,
	}
}

// NextStartDate returns the start of the period NextPeriod would create,
// or nil when the phase is completed
func (p *Phase) NextStartDate() *time.Time {
	if p.IsCompleted() {
		return nil
	}
	return lo.ToPtr(p.PeriodStartDate(p.PeriodsCreated))
}

// EndDate returns the end of the last period, or nil for infinite phases
func (p *Phase) EndDate() *time.Time {
	if p.TotalPeriods == nil {
		return nil
	}
	return lo.ToPtr(p.PeriodStartDate(*p.TotalPeriods))
}

// NextPeriod creates the next period and increments PeriodsCreated.
// Calling it on a completed phase is a precondition violation.
func (p *Phase) NextPeriod() (*Period, error) {
	if p.IsCompleted() {
		return nil, ierr.NewErrorf("phase %d has already created all %d periods", p.SequenceNumber, *p.TotalPeriods).
			WithHint("No periods left in this phase").
			WithReportableDetails(map[string]any{
				"phase":           p.SequenceNumber,
				"total_periods":   *p.TotalPeriods,
				"periods_created": p.PeriodsCreated,
			}).
			Mark(ierr.ErrPrecondition)
	}

	period := p.PeriodAt(p.PeriodsCreated)
	p.PeriodsCreated++
	return period, nil
}

// RemainingPeriods returns how many periods are left, or nil when infinite
func (p *Phase) RemainingPeriods() *int {
	if p.TotalPeriods == nil {
		return nil
	}
	return lo.ToPtr(*p.TotalPeriods - p.PeriodsCreated)
}

// Copy returns a deep copy of the phase
func (p *Phase) Copy() *Phase {
	c := *p
	if p.TotalPeriods != nil {
		c.TotalPeriods = lo.ToPtr(*p.TotalPeriods)
	}
	return &c
}
