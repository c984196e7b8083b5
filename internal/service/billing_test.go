package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/flexprice/payschedule/internal/api/dto"
	"github.com/flexprice/payschedule/internal/config"
	"github.com/flexprice/payschedule/internal/testutil"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	subService SubscriptionService
	service    BillingService
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService(s.GetConfig())
}

// setupService rebuilds both services on top of cfg, keeping the stores
func (s *BillingServiceSuite) setupService(cfg *config.Configuration) {
	params := ServiceParams{
		Logger:         s.GetLogger(),
		Config:         cfg,
		Cache:          s.GetCache(),
		SubRepo:        s.GetStores().SubscriptionRepo,
		EventPublisher: s.GetPublisher(),
	}
	s.subService = NewSubscriptionService(params)
	s.service = NewBillingService(params, s.subService)
}

func (s *BillingServiceSuite) createMonthly(start time.Time, totalPeriods *int) string {
	resp, err := s.subService.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		StartDate: lo.ToPtr(start),
		Phases: []dto.CreatePhaseRequest{
			{Interval: "P1M", Amount: decimal.NewFromInt(25), Currency: "USD", TotalPeriods: totalPeriods},
		},
	})
	s.Require().NoError(err)
	return resp.ID
}

func (s *BillingServiceSuite) TestRunFollowUpPayments() {
	due := s.createMonthly(date(2020, time.January, 1), nil)
	s.createMonthly(date(2020, time.March, 1), nil)
	cancelled := s.createMonthly(date(2020, time.January, 1), nil)
	s.Require().NoError(s.subService.CancelSubscription(s.GetContext(), cancelled))

	upcoming, err := s.subService.ListUpcomingPeriods(s.GetContext(), due, 1)
	s.Require().NoError(err)

	now := date(2020, time.January, 15)
	resp, err := s.service.RunFollowUpPayments(s.GetContext(), now)
	s.Require().NoError(err)

	s.Contains(resp.RunID, types.UUID_PREFIX_RUN+"_")
	s.Equal(now, resp.RunAt)
	s.Equal(1, resp.Total)
	s.Equal(1, resp.Succeeded)
	s.Zero(resp.Failed)
	s.Require().Len(resp.Results, 1)

	result := resp.Results[0]
	s.Equal(due, result.SubscriptionID)
	s.Empty(result.Error)
	s.False(result.Completed)
	s.Require().NotNil(result.Period)
	s.Equal(date(2020, time.January, 1), result.Period.StartDate)
	s.Equal(date(2020, time.February, 1), result.Period.EndDate)
	s.Equal(upcoming.Periods[0].IdempotencyKey, result.Period.IdempotencyKey)
	s.Equal("$25.00", result.Period.DisplayAmount)

	// the next payment is due on Feb 1, nothing left to do
	resp, err = s.service.RunFollowUpPayments(s.GetContext(), now)
	s.Require().NoError(err)
	s.Zero(resp.Total)
}

func (s *BillingServiceSuite) TestRunFollowUpPayments_CatchesUpOnePeriodPerRun() {
	id := s.createMonthly(date(2020, time.January, 31), nil)
	now := date(2020, time.April, 1)

	var ends []time.Time
	for i := 0; i < 4; i++ {
		resp, err := s.service.RunFollowUpPayments(s.GetContext(), now)
		s.Require().NoError(err)
		if resp.Total == 0 {
			break
		}
		s.Require().Len(resp.Results, 1)
		s.Equal(id, resp.Results[0].SubscriptionID)
		ends = append(ends, resp.Results[0].Period.EndDate)
	}

	s.Equal([]time.Time{
		date(2020, time.February, 29),
		date(2020, time.March, 31),
		date(2020, time.April, 30),
	}, ends)
}

func (s *BillingServiceSuite) TestRunFollowUpPayments_BillingTimezone() {
	tests := []struct {
		name     string
		zone     string
		interval string
		starts   func(loc *time.Location) []time.Time
	}{
		{
			name:     "monthly across spring forward",
			zone:     "Europe/Amsterdam",
			interval: "P1M",
			starts: func(loc *time.Location) []time.Time {
				return []time.Time{
					time.Date(2020, time.March, 1, 0, 0, 0, 0, loc),
					time.Date(2020, time.April, 1, 0, 0, 0, 0, loc),
					time.Date(2020, time.May, 1, 0, 0, 0, 0, loc),
				}
			},
		},
		{
			name:     "weekly across fall back",
			zone:     "America/New_York",
			interval: "P1W",
			starts: func(loc *time.Location) []time.Time {
				return []time.Time{
					time.Date(2020, time.October, 25, 9, 0, 0, 0, loc),
					time.Date(2020, time.November, 1, 9, 0, 0, 0, loc),
					time.Date(2020, time.November, 8, 9, 0, 0, 0, loc),
				}
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.ClearStores()
			cfg := config.GetDefaultConfig()
			cfg.Billing.Timezone = tt.zone
			s.Require().NoError(cfg.Validate())
			s.setupService(cfg)

			loc, err := time.LoadLocation(tt.zone)
			s.Require().NoError(err)
			starts := tt.starts(loc)

			// the request carries a UTC instant, billing happens on local wall time
			resp, err := s.subService.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
				StartDate: lo.ToPtr(starts[0].UTC()),
				Phases: []dto.CreatePhaseRequest{
					{Interval: tt.interval, Amount: decimal.NewFromInt(25), Currency: "EUR"},
				},
			})
			s.Require().NoError(err)

			for i, want := range starts {
				run, err := s.service.RunFollowUpPayments(s.GetContext(), want.Add(time.Hour))
				s.Require().NoError(err)
				s.Require().Len(run.Results, 1, "run %d", i)

				period := run.Results[0].Period
				s.Require().NotNil(period)
				s.Equal(resp.ID, run.Results[0].SubscriptionID)
				s.True(want.Equal(period.StartDate), "run %d: want %s, got %s", i, want, period.StartDate)
				s.Equal(tt.zone, period.StartDate.Location().String())
				s.Equal(want.Hour(), period.StartDate.Hour())
			}

			next, err := s.subService.GetNextPaymentDate(s.GetContext(), resp.ID)
			s.Require().NoError(err)
			s.Require().NotNil(next)
			s.Equal(starts[len(starts)-1].Hour(), next.In(loc).Hour())
		})
	}
}

func (s *BillingServiceSuite) TestRunFollowUpPayments_CompletesSubscription() {
	id := s.createMonthly(date(2020, time.January, 1), lo.ToPtr(1))

	resp, err := s.service.RunFollowUpPayments(s.GetContext(), date(2020, time.January, 2))
	s.Require().NoError(err)
	s.Require().Len(resp.Results, 1)
	s.True(resp.Results[0].Completed)

	sub, err := s.subService.GetSubscription(s.GetContext(), id)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCompleted, sub.Status)

	resp, err = s.service.RunFollowUpPayments(s.GetContext(), date(2021, time.January, 1))
	s.Require().NoError(err)
	s.Zero(resp.Total)
}

func (s *BillingServiceSuite) TestRunFollowUpPayments_Lookahead() {
	cfg := *s.GetConfig()
	cfg.Scheduler.Lookahead = 48 * time.Hour
	s.setupService(&cfg)

	s.createMonthly(date(2020, time.January, 2), nil)
	s.createMonthly(date(2020, time.January, 5), nil)

	resp, err := s.service.RunFollowUpPayments(s.GetContext(), date(2020, time.January, 1))
	s.Require().NoError(err)
	s.Equal(date(2020, time.January, 3), resp.DueBefore)
	s.Equal(1, resp.Total)
}

func (s *BillingServiceSuite) TestRunFollowUpPayments_PagesAndLimits() {
	cfg := *s.GetConfig()
	cfg.Scheduler.BatchSize = 2
	cfg.Scheduler.Concurrency = 3
	cfg.Scheduler.RateLimit = 1000
	s.setupService(&cfg)

	ids := make([]string, 5)
	for i := range ids {
		ids[i] = s.createMonthly(date(2020, time.January, i+1), nil)
	}

	resp, err := s.service.RunFollowUpPayments(s.GetContext(), date(2020, time.January, 31))
	s.Require().NoError(err)
	s.Equal(5, resp.Total)
	s.Equal(5, resp.Succeeded)

	got := lo.Map(resp.Results, func(r *dto.FollowUpResult, _ int) string { return r.SubscriptionID })
	s.ElementsMatch(ids, got)

	for _, id := range ids {
		sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), id)
		s.Require().NoError(err)
		s.Equal(1, sub.Phases[0].PeriodsCreated, "subscription %s", id)
	}
}

func (s *BillingServiceSuite) TestRunFollowUpPayments_CancelledContext() {
	cfg := *s.GetConfig()
	cfg.Scheduler.RateLimit = 1
	s.setupService(&cfg)

	s.createMonthly(date(2020, time.January, 1), nil)
	s.createMonthly(date(2020, time.January, 1), nil)

	ctx, cancel := context.WithCancel(s.GetContext())
	cancel()

	resp, err := s.service.RunFollowUpPayments(ctx, date(2020, time.January, 2))
	s.Require().NoError(err)
	s.Equal(2, resp.Total)
	s.Equal(2, resp.Failed)
}
