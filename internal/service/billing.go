package service

import (
	"context"
	"time"

	"github.com/flexprice/payschedule/internal/api/dto"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"
)

// BillingService runs the recurring follow-up payments of active subscriptions
type BillingService interface {
	// RunFollowUpPayments creates the next period of every active
	// subscription whose next payment date is on or before now plus the
	// configured lookahead.
	RunFollowUpPayments(ctx context.Context, now time.Time) (*dto.FollowUpRunResponse, error)
}

type billingService struct {
	ServiceParams
	subService SubscriptionService
}

func NewBillingService(params ServiceParams, subService SubscriptionService) BillingService {
	return &billingService{
		ServiceParams: params,
		subService:    subService,
	}
}

func (s *billingService) RunFollowUpPayments(ctx context.Context, now time.Time) (*dto.FollowUpRunResponse, error) {
	dueBefore := now.Add(s.Config.Scheduler.Lookahead)
	runID := types.GetRunID(ctx)
	if runID == "" {
		runID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RUN)
		ctx = types.SetRunID(ctx, runID)
	}

	ids, err := s.dueSubscriptionIDs(ctx, dueBefore)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("starting follow-up payment run",
		"run_id", runID,
		"run_at", now,
		"due_before", dueBefore,
		"subscriptions", len(ids),
	)

	var limiter *rate.Limiter
	if s.Config.Scheduler.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.Config.Scheduler.RateLimit), 1)
	}

	// one task per subscription, so no subscription is processed twice in a run
	p := pool.NewWithResults[*dto.FollowUpResult]().
		WithMaxGoroutines(s.Config.Scheduler.Concurrency)
	for _, id := range ids {
		p.Go(func() *dto.FollowUpResult {
			return s.followUp(ctx, id, limiter)
		})
	}
	results := p.Wait()

	resp := &dto.FollowUpRunResponse{
		RunID:     runID,
		RunAt:     now,
		DueBefore: dueBefore,
		Total:     len(results),
		Results:   results,
	}
	for _, r := range results {
		if r.Error != "" {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}

	s.Logger.Infow("finished follow-up payment run",
		"run_id", runID,
		"total", resp.Total,
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)
	return resp, nil
}

// dueSubscriptionIDs pages through the due subscriptions before any of
// them is touched. Creating a period moves the next payment date, which
// would shift the pages otherwise.
func (s *billingService) dueSubscriptionIDs(ctx context.Context, dueBefore time.Time) ([]string, error) {
	filter := &types.SubscriptionFilter{
		Statuses:          []types.SubscriptionStatus{types.SubscriptionStatusActive},
		NextPaymentBefore: &dueBefore,
		Limit:             s.Config.Scheduler.BatchSize,
	}

	var ids []string
	for {
		subs, err := s.SubRepo.List(ctx, filter)
		if err != nil {
			return nil, ierr.WithError(err).
				WithMessage("failed to list due subscriptions").
				Error()
		}
		for _, sub := range subs {
			ids = append(ids, sub.ID)
		}
		if len(subs) < filter.Limit {
			return ids, nil
		}
		filter.Offset += filter.Limit
	}
}

func (s *billingService) followUp(ctx context.Context, id string, limiter *rate.Limiter) *dto.FollowUpResult {
	result := &dto.FollowUpResult{SubscriptionID: id}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	period, err := s.subService.CreateNextPeriod(ctx, id)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if period != nil {
		result.Period = dto.NewPeriodResponse(id, period)
	}

	next, err := s.subService.GetNextPaymentDate(ctx, id)
	if err != nil {
		s.Logger.Warnw("failed to read next payment date", "subscription_id", id, "error", err)
		return result
	}
	result.Completed = next == nil
	return result
}
