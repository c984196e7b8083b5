package subscription

import (
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/samber/lo"
)

// Subscription is an ordered sequence of phases. Phases bill strictly in
// sequence: a phase starts creating periods once every phase before it has
// completed.
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `json:"id"`

	// Key is the public lookup key handed to customers
	Key string `json:"key"`

	// Source and SourceID identify the integration that created the subscription
	Source   string `json:"source,omitempty"`
	SourceID string `json:"source_id,omitempty"`

	// Description is shown on payment pages
	Description string `json:"description,omitempty"`

	// Status is derived from the phases once activated
	Status types.SubscriptionStatus `json:"status"`

	// Phases in billing order, append only
	Phases []*Phase `json:"phases"`

	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddPhase appends phase and assigns its sequence number.
// Nothing can follow an infinite phase, and a phase cannot start before the
// previous one ends.
func (s *Subscription) AddPhase(phase *Phase) error {
	if err := phase.Validate(); err != nil {
		return err
	}
	if err := checkFollows(s.LastPhase(), phase); err != nil {
		return err
	}

	phase.SequenceNumber = len(s.Phases) + 1
	s.Phases = append(s.Phases, phase)
	return nil
}

// checkFollows reports whether phase may start after prev
func checkFollows(prev, phase *Phase) error {
	if prev == nil {
		return nil
	}
	end := prev.EndDate()
	if end == nil {
		return ierr.NewErrorf("phase %d is infinite", prev.SequenceNumber).
			WithHint("No phase can follow an infinite phase").
			Mark(ierr.ErrInvalidOperation)
	}
	if phase.StartDate.Before(*end) {
		return ierr.NewErrorf("phase starts %s before previous phase ends %s", phase.StartDate, *end).
			WithHint("Phases cannot overlap").
			WithReportableDetails(map[string]any{
				"start_date":         phase.StartDate,
				"previous_end_date":  *end,
				"previous_phase_seq": prev.SequenceNumber,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// LastPhase returns the last phase or nil
func (s *Subscription) LastPhase() *Phase {
	if len(s.Phases) == 0 {
		return nil
	}
	return s.Phases[len(s.Phases)-1]
}

// GetPhase returns the phase with the given sequence number or nil
func (s *Subscription) GetPhase(sequence int) *Phase {
	phase, ok := lo.Find(s.Phases, func(p *Phase) bool {
		return p.SequenceNumber == sequence
	})
	if !ok {
		return nil
	}
	return phase
}

// CurrentPhase returns the first phase that is not completed, or nil
func (s *Subscription) CurrentPhase() *Phase {
	phase, ok := lo.Find(s.Phases, func(p *Phase) bool {
		return !p.IsCompleted()
	})
	if !ok {
		return nil
	}
	return phase
}

// NextPeriod creates the next period of the current phase.
// It returns nil without error when every phase has completed, in which
// case an active subscription is marked completed.
func (s *Subscription) NextPeriod() (*Period, error) {
	phase := s.CurrentPhase()
	if phase == nil {
		s.markCompleted()
		return nil, nil
	}

	period, err := phase.NextPeriod()
	if err != nil {
		return nil, err
	}

	s.markCompleted()
	return period, nil
}

func (s *Subscription) markCompleted() {
	if s.IsCompleted() && s.Status == types.SubscriptionStatusActive {
		s.Status = types.SubscriptionStatusCompleted
	}
}

// InTrialPeriod reports whether the current phase is a trial phase
func (s *Subscription) InTrialPeriod() bool {
	phase := s.CurrentPhase()
	return phase != nil && phase.Trial
}

// IsInfinite reports whether the last phase is infinite
func (s *Subscription) IsInfinite() bool {
	last := s.LastPhase()
	return last != nil && last.IsInfinite()
}

// IsCompleted reports whether every phase has created all its periods
func (s *Subscription) IsCompleted() bool {
	return len(s.Phases) > 0 && s.CurrentPhase() == nil
}

// NextPaymentDate returns the start of the period NextPeriod would create,
// or nil when no phase can create one. It does not change any state.
func (s *Subscription) NextPaymentDate() *time.Time {
	phase := s.CurrentPhase()
	if phase == nil {
		return nil
	}
	return phase.NextStartDate()
}

// StartDate returns the start of the first phase, or nil without phases
func (s *Subscription) StartDate() *time.Time {
	if len(s.Phases) == 0 {
		return nil
	}
	return lo.ToPtr(s.Phases[0].StartDate)
}

// EndDate returns the end of the last phase, or nil when infinite
func (s *Subscription) EndDate() *time.Time {
	last := s.LastPhase()
	if last == nil {
		return nil
	}
	return last.EndDate()
}

// UpcomingPeriods projects the next n periods across phases without
// changing any counters. It returns an empty slice when n is not positive.
func (s *Subscription) UpcomingPeriods(n int) []*Period {
	if n <= 0 {
		return []*Period{}
	}
	periods := make([]*Period, 0, n)
	for _, phase := range s.Phases {
		for i := phase.PeriodsCreated; len(periods) < n; i++ {
			if phase.TotalPeriods != nil && i >= *phase.TotalPeriods {
				break
			}
			periods = append(periods, phase.PeriodAt(i))
		}
		if len(periods) >= n {
			break
		}
	}
	return periods
}

// ReplacePhase swaps the phase with the given sequence number for the given
// phases, e.g. the lead-in and regular pair returned by AlignPhase, and
// renumbers the phases.
//
// Phases that started exactly where the replaced phase ended move to the new
// end, so a bounded phase that got longer does not overlap its successors.
// Phases that would still overlap are rejected and the subscription is left
// unchanged.
func (s *Subscription) ReplacePhase(sequence int, replacements ...*Phase) error {
	idx := lo.IndexOf(lo.Map(s.Phases, func(p *Phase, _ int) int { return p.SequenceNumber }), sequence)
	if idx < 0 {
		return ierr.NewErrorf("phase %d not found", sequence).
			WithHint("Phase not found").
			Mark(ierr.ErrNotFound)
	}
	if len(replacements) == 0 {
		return ierr.NewError("no replacement phases given").
			WithHint("At least one phase is required").
			Mark(ierr.ErrInvalidArgument)
	}
	for _, p := range replacements {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	following, err := shiftFollowing(
		s.Phases[idx].EndDate(),
		replacements[len(replacements)-1].EndDate(),
		lo.Map(s.Phases[idx+1:], func(p *Phase, _ int) *Phase { return p.Copy() }),
	)
	if err != nil {
		return err
	}

	phases := make([]*Phase, 0, len(s.Phases)+len(replacements)-1)
	phases = append(phases, s.Phases[:idx]...)
	phases = append(phases, replacements...)
	phases = append(phases, following...)

	for i := 1; i < len(phases); i++ {
		if err := checkFollows(phases[i-1], phases[i]); err != nil {
			return err
		}
	}

	for i, p := range phases {
		p.SequenceNumber = i + 1
	}
	s.Phases = phases
	return nil
}

// shiftFollowing moves the chain of phases contiguous with oldEnd so that it
// starts on newEnd instead. Phases past the first gap are left alone.
func shiftFollowing(oldEnd, newEnd *time.Time, following []*Phase) ([]*Phase, error) {
	for _, p := range following {
		if oldEnd == nil || newEnd == nil || oldEnd.Equal(*newEnd) || !p.StartDate.Equal(*oldEnd) {
			break
		}
		if p.PeriodsCreated > 0 {
			return nil, ierr.NewErrorf("phase %d already created %d periods", p.SequenceNumber, p.PeriodsCreated).
				WithHint("Phases that have started billing cannot be moved").
				Mark(ierr.ErrInvalidOperation)
		}
		oldEnd = p.EndDate()
		p.StartDate = *newEnd
		newEnd = p.EndDate()
	}
	return following, nil
}

// Validate checks the subscription and every phase
func (s *Subscription) Validate() error {
	if err := s.Status.Validate(); err != nil {
		return err
	}
	if len(s.Phases) == 0 {
		return ierr.NewError("subscription has no phases").
			WithHint("At least one phase is required").
			Mark(ierr.ErrValidation)
	}
	for _, p := range s.Phases {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Copy returns a deep copy of the subscription
func (s *Subscription) Copy() *Subscription {
	c := *s
	c.Phases = lo.Map(s.Phases, func(p *Phase, _ int) *Phase { return p.Copy() })
	if s.Metadata != nil {
		c.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
