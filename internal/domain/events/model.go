package events

import (
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/flexprice/payschedule/internal/validator"
)

// Event names published by the subscription service
const (
	EventSubscriptionCreated       = "subscription.created"
	EventSubscriptionPeriodCreated = "subscription.period_created"
	EventSubscriptionAligned       = "subscription.aligned"
	EventSubscriptionCompleted     = "subscription.completed"
	EventSubscriptionCancelled     = "subscription.cancelled"
)

// Event is a notification about a change to a subscription
type Event struct {
	// Unique identifier for the event
	ID string `json:"id" validate:"required"`

	// EventName identifies what happened, e.g. subscription.period_created
	EventName string `json:"event_name" validate:"required"`

	// SubscriptionID is the subscription the event is about
	SubscriptionID string `json:"subscription_id" validate:"required"`

	// Source of the subscription, copied for consumers routing by integration
	Source string `json:"source,omitempty"`

	// Payload carries the event specific data, e.g. the created period
	Payload interface{} `json:"payload,omitempty"`

	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// NewEvent creates an event with a fresh id and the current time
func NewEvent(name, subscriptionID, source string, payload interface{}) *Event {
	return &Event{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName:      name,
		SubscriptionID: subscriptionID,
		Source:         source,
		Payload:        payload,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *Event) Validate() error {
	if e == nil {
		return ierr.NewError("event cannot be nil").Mark(ierr.ErrValidation)
	}
	return validator.ValidateRequest(e)
}
