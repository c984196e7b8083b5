package service

import (
	"context"
	"time"

	"github.com/flexprice/payschedule/internal/api/dto"
	"github.com/flexprice/payschedule/internal/cache"
	"github.com/flexprice/payschedule/internal/domain/events"
	"github.com/flexprice/payschedule/internal/domain/subscription"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/samber/lo"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	GetSubscriptionByKey(ctx context.Context, key string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error)
	CancelSubscription(ctx context.Context, id string) error

	// CreateNextPeriod creates and persists the next period of the subscription.
	// It returns nil when the subscription has no period left.
	CreateNextPeriod(ctx context.Context, id string) (*subscription.Period, error)
	GetNextPaymentDate(ctx context.Context, id string) (*time.Time, error)
	ListUpcomingPeriods(ctx context.Context, id string, n int) (*dto.ListUpcomingPeriodsResponse, error)
	AlignSubscription(ctx context.Context, id string, req dto.AlignSubscriptionRequest) (*dto.SubscriptionResponse, error)
}

type subscriptionService struct {
	ServiceParams
	locks *keyedMutex
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
		locks:         newKeyedMutex(),
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().In(s.Config.Billing.Location())
	sub, err := subscription.NewSubscription(req.ToParams(s.Config.Billing.DefaultCurrency, now))
	if err != nil {
		return nil, err
	}

	if req.Alignment != nil {
		if err := s.align(sub, *req.Alignment); err != nil {
			return nil, err
		}
	}

	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"key", sub.Key,
		"source", sub.Source,
		"phases", len(sub.Phases),
		"next_payment_date", sub.NextPaymentDate(),
	)

	s.publishEvent(ctx, events.EventSubscriptionCreated, sub, map[string]any{
		"key":               sub.Key,
		"next_payment_date": sub.NextPaymentDate(),
	})

	return dto.NewSubscriptionResponse(sub), nil
}

// get reads through the cache. Callers get their own copy.
func (s *subscriptionService) get(ctx context.Context, id string) (*subscription.Subscription, error) {
	key := cache.GenerateKey(cache.PrefixSubscription, id)
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(ctx, key); ok {
			if sub, ok := cached.(*subscription.Subscription); ok {
				return sub.Copy(), nil
			}
		}
	}

	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, key, sub.Copy(), s.Config.Cache.TTL)
	}
	return sub, nil
}

func (s *subscriptionService) invalidate(ctx context.Context, id string) {
	if s.Cache != nil {
		s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixSubscription, id))
	}
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	if id == "" {
		return nil, ierr.NewError("subscription id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) GetSubscriptionByKey(ctx context.Context, key string) (*dto.SubscriptionResponse, error) {
	if key == "" {
		return nil, ierr.NewError("subscription key is required").
			WithHint("Subscription key is required").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.SubRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListSubscriptionsResponse{
		Items:  lo.Map(subs, func(sub *subscription.Subscription, _ int) *dto.SubscriptionResponse { return dto.NewSubscriptionResponse(sub) }),
		Total:  total,
		Offset: filter.Offset,
		Limit:  filter.Limit,
	}, nil
}

// mutate loads the subscription under its lock, applies fn and stores the
// result when fn succeeds
func (s *subscriptionService) mutate(ctx context.Context, id string, fn func(sub *subscription.Subscription) error) (*subscription.Subscription, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var updated *subscription.Subscription
	err := s.withTx(ctx, func(ctx context.Context) error {
		sub, err := s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(sub); err != nil {
			return err
		}
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			return err
		}
		updated = sub
		return nil
	})
	s.invalidate(ctx, id)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, id string) error {
	sub, err := s.mutate(ctx, id, func(sub *subscription.Subscription) error {
		if sub.Status == types.SubscriptionStatusCancelled {
			return ierr.NewErrorf("subscription %s is already cancelled", id).
				WithHint("Subscription is already cancelled").
				Mark(ierr.ErrInvalidOperation)
		}
		sub.Status = types.SubscriptionStatusCancelled
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Infow("cancelled subscription", "subscription_id", id)
	s.publishEvent(ctx, events.EventSubscriptionCancelled, sub, nil)
	return nil
}

func (s *subscriptionService) CreateNextPeriod(ctx context.Context, id string) (*subscription.Period, error) {
	var period *subscription.Period
	sub, err := s.mutate(ctx, id, func(sub *subscription.Subscription) error {
		if !sub.Status.IsBillable() {
			return ierr.NewErrorf("subscription %s is %s", id, sub.Status).
				WithHintf("Cannot create periods for a %s subscription", sub.Status).
				WithReportableDetails(map[string]any{
					"subscription_id": id,
					"status":          sub.Status,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		var err error
		period, err = sub.NextPeriod()
		return err
	})
	if err != nil {
		s.Logger.Errorw("failed to create next period", "subscription_id", id, "error", err)
		return nil, err
	}

	if period != nil {
		s.Logger.Infow("created period",
			"subscription_id", id,
			"phase", period.PhaseSequence,
			"period_start", period.StartDate,
			"period_end", period.EndDate,
			"amount", period.Amount.String(),
			"trial", period.Trial,
		)
		s.publishEvent(ctx, events.EventSubscriptionPeriodCreated, sub, dto.NewPeriodResponse(id, period))
	}

	if sub.Status == types.SubscriptionStatusCompleted {
		s.Logger.Infow("subscription completed", "subscription_id", id)
		s.publishEvent(ctx, events.EventSubscriptionCompleted, sub, nil)
	}

	return period, nil
}

func (s *subscriptionService) GetNextPaymentDate(ctx context.Context, id string) (*time.Time, error) {
	sub, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sub.Status.IsBillable() {
		return nil, nil
	}
	return sub.NextPaymentDate(), nil
}

func (s *subscriptionService) ListUpcomingPeriods(ctx context.Context, id string, n int) (*dto.ListUpcomingPeriodsResponse, error) {
	if n < 1 {
		return nil, ierr.NewErrorf("count %d must be at least 1", n).
			WithHint("Number of periods must be at least 1").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.ListUpcomingPeriodsResponse{
		SubscriptionID: sub.ID,
		Periods:        lo.Map(sub.UpcomingPeriods(n), func(p *subscription.Period, _ int) *dto.PeriodResponse { return dto.NewPeriodResponse(sub.ID, p) }),
	}, nil
}

func (s *subscriptionService) AlignSubscription(ctx context.Context, id string, req dto.AlignSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.mutate(ctx, id, func(sub *subscription.Subscription) error {
		return s.align(sub, req)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("aligned subscription",
		"subscription_id", id,
		"next_payment_date", sub.NextPaymentDate(),
	)
	s.publishEvent(ctx, events.EventSubscriptionAligned, sub, req)
	return dto.NewSubscriptionResponse(sub), nil
}

// align splits the current phase into a lead-in and a regular phase.
// Anchor dates default to the configured proration strategy, rules to the
// length of one regular period.
func (s *subscriptionService) align(sub *subscription.Subscription, req dto.AlignSubscriptionRequest) error {
	phase := sub.CurrentPhase()
	if phase == nil {
		return ierr.NewErrorf("subscription %s has no current phase", sub.ID).
			WithHint("Completed subscriptions cannot be aligned").
			Mark(ierr.ErrInvalidOperation)
	}

	var anchor time.Time
	strategy := req.ProrationStrategy
	if req.Rule != nil {
		rule, err := types.NewAlignmentRule(*req.Rule)
		if err != nil {
			return err
		}
		anchor = rule.Date(phase.StartDate)
		if strategy == "" {
			strategy = types.ProrationStrategyPeriod
		}
	} else {
		anchor = *req.AnchorDate
		if strategy == "" {
			strategy = s.Config.Billing.ProrationStrategy
		}
	}

	leadIn, regular, err := subscription.AlignPhaseWith(phase, anchor, req.Prorate, strategy)
	if err != nil {
		return err
	}

	return sub.ReplacePhase(phase.SequenceNumber, leadIn, regular)
}

// publishEvent never fails the calling operation, the change is already stored
func (s *subscriptionService) publishEvent(ctx context.Context, name string, sub *subscription.Subscription, payload interface{}) {
	if s.EventPublisher == nil {
		return
	}
	event := events.NewEvent(name, sub.ID, sub.Source, payload)
	if err := s.EventPublisher.Publish(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish event",
			"error", err,
			"event_name", name,
			"subscription_id", sub.ID,
		)
	}
}
