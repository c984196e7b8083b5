package subscription

import (
	"context"

	"github.com/flexprice/payschedule/internal/types"
	"github.com/samber/lo"
)

// Repository stores subscriptions together with their phases
type Repository interface {
	Create(ctx context.Context, subscription *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	GetByKey(ctx context.Context, key string) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, error)
	Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error)
}

// MatchesFilter reports whether sub satisfies the non-paging parts of filter.
// Stores that cannot push the next payment date into their query use it.
func MatchesFilter(sub *Subscription, filter *types.SubscriptionFilter) bool {
	if filter == nil {
		return true
	}
	if len(filter.Statuses) > 0 && !lo.Contains(filter.Statuses, sub.Status) {
		return false
	}
	if filter.Source != "" && filter.Source != sub.Source {
		return false
	}
	if filter.SourceID != "" && filter.SourceID != sub.SourceID {
		return false
	}
	if filter.NextPaymentBefore != nil {
		next := sub.NextPaymentDate()
		if next == nil || next.After(*filter.NextPaymentBefore) {
			return false
		}
	}
	return true
}
