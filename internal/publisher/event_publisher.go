package publisher

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/payschedule/internal/config"
	"github.com/flexprice/payschedule/internal/domain/events"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/logger"
	"github.com/flexprice/payschedule/internal/pubsub"
	"github.com/flexprice/payschedule/internal/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventPublisher publishes subscription lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, event *events.Event) error
}

type eventPublisher struct {
	pubSub pubsub.Publisher
	config *config.EventConfig
	logger *logger.Logger
}

// NewEventPublisher creates a publisher writing to the configured topic.
// When events are disabled the returned publisher only logs.
func NewEventPublisher(cfg *config.Configuration, logger *logger.Logger, pubSub pubsub.Publisher) EventPublisher {
	if !cfg.Events.Enabled || pubSub == nil {
		return &noopPublisher{logger: logger}
	}
	return &eventPublisher{
		pubSub: pubSub,
		config: &cfg.Events,
		logger: logger,
	}
}

// retryPolicy builds the publish backoff. MaxRetries and MaxRetryElapsed
// each bound the retries when set; with neither set the publish is tried once.
func (p *eventPublisher) retryPolicy() backoff.BackOff {
	if p.config.MaxRetries <= 0 && p.config.MaxRetryElapsed <= 0 {
		return &backoff.StopBackOff{}
	}

	exp := backoff.NewExponentialBackOff()
	if p.config.InitialInterval > 0 {
		exp.InitialInterval = p.config.InitialInterval
	}
	exp.MaxElapsedTime = p.config.MaxRetryElapsed

	if p.config.MaxRetries > 0 {
		return backoff.WithMaxRetries(exp, uint64(p.config.MaxRetries))
	}
	return exp
}

func (p *eventPublisher) Publish(ctx context.Context, event *events.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode event").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_name", event.EventName)
	msg.Metadata.Set("subscription_id", event.SubscriptionID)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}
	if runID := types.GetRunID(ctx); runID != "" {
		msg.Metadata.Set("run_id", runID)
	}
	msg.SetContext(ctx)

	p.logger.Debugw("publishing event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"subscription_id", event.SubscriptionID,
		"topic", p.config.Topic,
	)

	retry := p.retryPolicy()

	attempt := 0
	op := func() error {
		attempt++
		return p.pubSub.Publish(ctx, p.config.Topic, msg)
	}
	notify := func(err error, wait time.Duration) {
		p.logger.Warnw("publish failed, retrying",
			"event_id", event.ID,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(retry, ctx), notify); err != nil {
		p.logger.Errorw("failed to publish event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
			"subscription_id", event.SubscriptionID,
			"attempts", attempt,
		)
		return ierr.WithError(err).
			WithHint("Failed to publish event").
			Mark(ierr.ErrSystem)
	}

	return nil
}

// noopPublisher drops events when publishing is disabled
type noopPublisher struct {
	logger *logger.Logger
}

func (p *noopPublisher) Publish(_ context.Context, event *events.Event) error {
	p.logger.Debugw("events disabled, dropping event",
		"event_name", event.EventName,
		"subscription_id", event.SubscriptionID,
	)
	return nil
}
