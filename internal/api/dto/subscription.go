package dto

import (
	"strings"
	"time"

	"github.com/flexprice/payschedule/internal/domain/subscription"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/idempotency"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/flexprice/payschedule/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type CreatePhaseRequest struct {
	// StartDate defaults to the request start date for the first phase and
	// to the end of the previous phase otherwise
	StartDate    *time.Time      `json:"start_date,omitempty"`
	Interval     string          `json:"interval" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	TotalPeriods *int            `json:"total_periods,omitempty" validate:"omitempty,min=1"`
	Trial        bool            `json:"trial,omitempty"`
}

type CreateSubscriptionRequest struct {
	Source      string `json:"source,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
	Description string `json:"description,omitempty"`
	// StartDate defaults to now
	StartDate *time.Time           `json:"start_date,omitempty"`
	Phases    []CreatePhaseRequest `json:"phases" validate:"required,min=1,dive"`
	Metadata  map[string]string    `json:"metadata,omitempty"`
	// Alignment optionally aligns the first phase right after creation
	Alignment *AlignSubscriptionRequest `json:"alignment,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	for _, p := range r.Phases {
		if p.Amount.IsNegative() {
			return ierr.NewError("phase amount must not be negative").
				WithHint("Amount must be zero or positive").
				WithReportableDetails(map[string]any{
					"amount": p.Amount.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}
	if r.Alignment != nil {
		return r.Alignment.Validate()
	}
	return nil
}

// ToParams converts the request to builder params. Missing currencies fall
// back to defaultCurrency and a missing start date to now. Start dates are
// moved into the location of now, which is the billing timezone.
func (r *CreateSubscriptionRequest) ToParams(defaultCurrency string, now time.Time) subscription.SubscriptionParams {
	loc := now.Location()
	start := lo.FromPtrOr(r.StartDate, now).In(loc)

	phases := make([]subscription.PhaseParams, len(r.Phases))
	for i, p := range r.Phases {
		currency := lo.Ternary(p.Currency != "", p.Currency, defaultCurrency)
		var phaseStart *time.Time
		if p.StartDate != nil {
			phaseStart = lo.ToPtr(p.StartDate.In(loc))
		}
		phases[i] = subscription.PhaseParams{
			StartDate:    phaseStart,
			Interval:     strings.ToUpper(strings.TrimSpace(p.Interval)),
			Amount:       lo.ToPtr(types.NewMoney(p.Amount, currency)),
			TotalPeriods: p.TotalPeriods,
			Trial:        p.Trial,
		}
	}
	if phases[0].StartDate == nil {
		phases[0].StartDate = lo.ToPtr(start)
	}

	return subscription.SubscriptionParams{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		Key:         types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_SUBSCRIPTION_KEY),
		Source:      r.Source,
		SourceID:    r.SourceID,
		Description: r.Description,
		Status:      types.SubscriptionStatusActive,
		Phases:      phases,
		Metadata:    r.Metadata,
	}
}

// AlignSubscriptionRequest aligns the current phase either to a fixed
// anchor date or to the next date matching an alignment rule
type AlignSubscriptionRequest struct {
	AnchorDate *time.Time                 `json:"anchor_date,omitempty"`
	Rule       *types.AlignmentRuleParams `json:"rule,omitempty"`
	Prorate    bool                       `json:"prorate"`
	// ProrationStrategy overrides the default day count of the lead-in amount
	ProrationStrategy types.ProrationStrategy `json:"proration_strategy,omitempty"`
}

func (r *AlignSubscriptionRequest) Validate() error {
	if (r.AnchorDate == nil) == (r.Rule == nil) {
		return ierr.NewError("exactly one of anchor_date and rule is required").
			WithHint("Provide either an anchor date or an alignment rule").
			Mark(ierr.ErrValidation)
	}
	if r.Rule != nil {
		if _, err := types.NewAlignmentRule(*r.Rule); err != nil {
			return err
		}
	}
	if r.ProrationStrategy != "" {
		return r.ProrationStrategy.Validate()
	}
	return nil
}

type SubscriptionResponse struct {
	*subscription.Subscription
	NextPaymentDate *time.Time `json:"next_payment_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	InTrialPeriod   bool       `json:"in_trial_period"`
	Infinite        bool       `json:"infinite"`
	Completed       bool       `json:"completed"`
}

func NewSubscriptionResponse(sub *subscription.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		Subscription:    sub,
		NextPaymentDate: sub.NextPaymentDate(),
		EndDate:         sub.EndDate(),
		InTrialPeriod:   sub.InTrialPeriod(),
		Infinite:        sub.IsInfinite(),
		Completed:       sub.IsCompleted(),
	}
}

type ListSubscriptionsResponse struct {
	Items  []*SubscriptionResponse `json:"items"`
	Total  int                     `json:"total"`
	Offset int                     `json:"offset"`
	Limit  int                     `json:"limit"`
}

type PeriodResponse struct {
	*subscription.Period
	Days int `json:"days"`
	// DisplayAmount is the amount with its currency symbol, e.g. €50.27
	DisplayAmount string `json:"display_amount"`
	// IdempotencyKey identifies the payment for this period, it is stable
	// across retries and projections
	IdempotencyKey string `json:"idempotency_key"`
}

func NewPeriodResponse(subscriptionID string, p *subscription.Period) *PeriodResponse {
	key := idempotency.NewGenerator().GenerateKey(idempotency.ScopePeriodPayment, map[string]interface{}{
		"subscription_id": subscriptionID,
		"phase":           p.PhaseSequence,
		"period_start":    p.StartDate.UTC().Format(time.RFC3339),
	})
	return &PeriodResponse{
		Period:         p,
		Days:           p.Days(),
		DisplayAmount:  p.Amount.Display(),
		IdempotencyKey: key,
	}
}

type ListUpcomingPeriodsResponse struct {
	SubscriptionID string            `json:"subscription_id"`
	Periods        []*PeriodResponse `json:"periods"`
}

// FollowUpResult is the outcome of one subscription in a follow-up payment run
type FollowUpResult struct {
	SubscriptionID string          `json:"subscription_id"`
	Period         *PeriodResponse `json:"period,omitempty"`
	Completed      bool            `json:"completed,omitempty"`
	Error          string          `json:"error,omitempty"`
}

type FollowUpRunResponse struct {
	RunID     string            `json:"run_id"`
	RunAt     time.Time         `json:"run_at"`
	DueBefore time.Time         `json:"due_before"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []*FollowUpResult `json:"results"`
}
