package subscription

import (
	"time"

	"github.com/flexprice/payschedule/internal/types"
)

// Period is one billed interval [StartDate, EndDate) of a phase
type Period struct {
	// PhaseSequence is the sequence number of the phase that generated the period
	PhaseSequence int `json:"phase"`

	// StartDate is inclusive
	StartDate time.Time `json:"start_date"`

	// EndDate is exclusive and always after StartDate
	EndDate time.Time `json:"end_date"`

	// Amount due for the period
	Amount types.Money `json:"amount"`

	// Trial is copied from the phase the period belongs to
	Trial bool `json:"trial"`

	// Prorated marks a lead-in period created by aligning a phase
	Prorated bool `json:"prorated,omitempty"`
}

// Days returns the number of calendar days the period covers
func (p *Period) Days() int {
	return types.DaysBetween(p.StartDate, p.EndDate)
}

// Contains reports whether t falls in [StartDate, EndDate)
func (p *Period) Contains(t time.Time) bool {
	return !t.Before(p.StartDate) && t.Before(p.EndDate)
}
