package subscription

import (
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/flexprice/payschedule/internal/validator"
)

// PhaseParams holds the raw input for a phase
type PhaseParams struct {
	// StartDate is required for the first phase of a subscription. Later
	// phases default to the end of the phase before them.
	StartDate    *time.Time   `json:"start_date" validate:"required"`
	Interval     string       `json:"interval" validate:"required"`
	Amount       *types.Money `json:"amount" validate:"required"`
	TotalPeriods *int         `json:"total_periods,omitempty" validate:"omitempty,min=1"`
	Trial        bool         `json:"trial,omitempty"`
	Prorated     bool         `json:"prorated,omitempty"`
}

// NewPhase validates params and creates a phase that has not created any
// period yet. The sequence number is assigned when the phase is added to a
// subscription.
func NewPhase(params PhaseParams) (*Phase, error) {
	if err := validator.ValidateRequest(params); err != nil {
		return nil, err
	}

	interval, err := types.ParseInterval(params.Interval)
	if err != nil {
		return nil, err
	}

	phase := &Phase{
		StartDate:    *params.StartDate,
		Interval:     interval,
		Amount:       *params.Amount,
		Trial:        params.Trial,
		Prorated:     params.Prorated,
		TotalPeriods: params.TotalPeriods,
	}
	if err := phase.Validate(); err != nil {
		return nil, err
	}
	return phase, nil
}

// SubscriptionParams holds the raw input for a subscription
type SubscriptionParams struct {
	ID          string                   `json:"id,omitempty"`
	Key         string                   `json:"key,omitempty"`
	Source      string                   `json:"source,omitempty"`
	SourceID    string                   `json:"source_id,omitempty"`
	Description string                   `json:"description,omitempty"`
	Status      types.SubscriptionStatus `json:"status,omitempty"`
	Phases      []PhaseParams            `json:"phases" validate:"required,min=1"`
	Metadata    map[string]string        `json:"metadata,omitempty"`
}

// NewSubscription validates params and creates the subscription with its
// phases in order. Status defaults to open.
func NewSubscription(params SubscriptionParams) (*Subscription, error) {
	if err := validator.ValidateRequest(params); err != nil {
		return nil, err
	}

	status := params.Status
	if status == "" {
		status = types.SubscriptionStatusOpen
	}
	if err := status.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &Subscription{
		ID:          params.ID,
		Key:         params.Key,
		Source:      params.Source,
		SourceID:    params.SourceID,
		Description: params.Description,
		Status:      status,
		Phases:      make([]*Phase, 0, len(params.Phases)),
		Metadata:    params.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for i, pp := range params.Phases {
		if pp.StartDate == nil && i > 0 {
			pp.StartDate = sub.EndDate()
			if pp.StartDate == nil {
				return nil, ierr.NewErrorf("phase %d has no start date and follows an infinite phase", i+1).
					WithHint("No phase can follow an infinite phase").
					Mark(ierr.ErrValidation)
			}
		}

		phase, err := NewPhase(pp)
		if err != nil {
			return nil, ierr.WithError(err).
				WithMessagef("phase %d", i+1).
				Error()
		}
		if err := sub.AddPhase(phase); err != nil {
			return nil, err
		}
	}

	return sub, nil
}
