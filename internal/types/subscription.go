package types

import (
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the lifecycle status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusOpen      SubscriptionStatus = "open"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusOnHold    SubscriptionStatus = "on_hold"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusFailure   SubscriptionStatus = "failure"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusOpen,
		SubscriptionStatusActive,
		SubscriptionStatusOnHold,
		SubscriptionStatusCancelled,
		SubscriptionStatusCompleted,
		SubscriptionStatusExpired,
		SubscriptionStatusFailure,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsBillable reports whether the follow-up payment run should pick the subscription up
func (s SubscriptionStatus) IsBillable() bool {
	return s == SubscriptionStatusActive
}

// SubscriptionFilter narrows down repository listings
type SubscriptionFilter struct {
	Statuses []SubscriptionStatus `json:"statuses,omitempty"`
	Source   string               `json:"source,omitempty"`
	SourceID string               `json:"source_id,omitempty"`
	// NextPaymentBefore keeps subscriptions whose next payment date is on or before it
	NextPaymentBefore *time.Time `json:"next_payment_before,omitempty"`
	Limit             int        `json:"limit,omitempty"`
	Offset            int        `json:"offset,omitempty"`
}

// NewSubscriptionFilter returns a filter without constraints
func NewSubscriptionFilter() *SubscriptionFilter {
	return &SubscriptionFilter{}
}

func (f *SubscriptionFilter) Validate() error {
	if f == nil {
		return nil
	}
	for _, s := range f.Statuses {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if f.Limit < 0 || f.Offset < 0 {
		return ierr.NewError("limit and offset must not be negative").
			WithHint("Invalid pagination").
			Mark(ierr.ErrValidation)
	}
	return nil
}
