package memory

import (
	"context"

	"github.com/flexprice/payschedule/internal/domain/subscription"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
)

// SubscriptionStore implements subscription.Repository in memory. Stored
// subscriptions are copied on the way in and out so callers never share
// state with the store.
type SubscriptionStore struct {
	*Store[*subscription.Subscription]
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		Store: NewStore[*subscription.Subscription](),
	}
}

func subscriptionFilterFn(_ context.Context, sub *subscription.Subscription, filter interface{}) bool {
	f, _ := filter.(*types.SubscriptionFilter)
	return subscription.MatchesFilter(sub, f)
}

// subscriptionSortFn orders by next payment date, subscriptions without one last
func subscriptionSortFn(a, b *subscription.Subscription) bool {
	na, nb := a.NextPaymentDate(), b.NextPaymentDate()
	switch {
	case na == nil && nb == nil:
		return a.ID < b.ID
	case na == nil:
		return false
	case nb == nil:
		return true
	case na.Equal(*nb):
		return a.ID < b.ID
	default:
		return na.Before(*nb)
	}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").Mark(ierr.ErrValidation)
	}
	if sub.Key != "" {
		if _, exists := s.Find(ctx, func(o *subscription.Subscription) bool { return o.Key == sub.Key }); exists {
			return ierr.NewErrorf("subscription key %s already exists", sub.Key).
				WithHint("A subscription with this key already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.Store.Create(ctx, sub.ID, sub.Copy())
}

func (s *SubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sub.Copy(), nil
}

func (s *SubscriptionStore) GetByKey(ctx context.Context, key string) (*subscription.Subscription, error) {
	sub, ok := s.Find(ctx, func(o *subscription.Subscription) bool { return o.Key == key })
	if !ok {
		return nil, ierr.NewErrorf("subscription key %s not found", key).
			WithHintf("Subscription %s not found", key).
			Mark(ierr.ErrNotFound)
	}
	return sub.Copy(), nil
}

func (s *SubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	return s.Store.Update(ctx, sub.ID, sub.Copy())
}

func (s *SubscriptionStore) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

func (s *SubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var limit, offset int
	if filter != nil {
		limit, offset = filter.Limit, filter.Offset
	}

	items := s.Store.List(ctx, filter, subscriptionFilterFn, subscriptionSortFn, limit, offset)
	result := make([]*subscription.Subscription, len(items))
	for i, sub := range items {
		result[i] = sub.Copy()
	}
	return result, nil
}

func (s *SubscriptionStore) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	return s.Store.Count(ctx, filter, subscriptionFilterFn), nil
}
