package internal

import (
	"context"
	"math/rand"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/flexprice/payschedule/internal/api/dto"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"
)

const (
	DEFAULT_SEED_COUNT = 1000
	REQUESTS_PER_SEC   = 200
	SEED_CONCURRENCY   = 16
)

var seedIntervals = []string{"P1W", "P2W", "P1M", "P3M", "P6M", "P1Y"}

// randomRequest builds a subscription with an optional trial phase and a
// start date within the last 90 days
func randomRequest(source string, index int) dto.CreateSubscriptionRequest {
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -rand.Intn(90))

	phases := make([]dto.CreatePhaseRequest, 0, 2)
	if rand.Intn(3) == 0 {
		phases = append(phases, dto.CreatePhaseRequest{
			Interval:     "P1M",
			Amount:       decimal.Zero,
			TotalPeriods: lo.ToPtr(1),
			Trial:        true,
		})
	}

	regular := dto.CreatePhaseRequest{
		Interval: seedIntervals[rand.Intn(len(seedIntervals))],
		Amount:   decimal.NewFromInt(int64(rand.Intn(20000)+100)).Div(decimal.NewFromInt(100)),
	}
	if rand.Intn(4) == 0 {
		regular.TotalPeriods = lo.ToPtr(rand.Intn(12) + 1)
	}
	phases = append(phases, regular)

	return dto.CreateSubscriptionRequest{
		Source:    source,
		SourceID:  strconv.Itoa(index + 1),
		StartDate: &start,
		Phases:    phases,
	}
}

// SeedSubscriptions creates SEED_COUNT random subscriptions
func SeedSubscriptions() error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.db.Close()

	count := DEFAULT_SEED_COUNT
	if v := os.Getenv("SEED_COUNT"); v != "" {
		if count, err = strconv.Atoi(v); err != nil {
			return err
		}
	}
	source := lo.CoalesceOrEmpty(os.Getenv("SEED_SOURCE"), "seed")

	e.log.Infow("seeding subscriptions",
		"count", count,
		"source", source,
		"rate_limit", REQUESTS_PER_SEC,
	)

	ctx := context.Background()
	limiter := rate.NewLimiter(rate.Limit(REQUESTS_PER_SEC), 1)
	var created, failed atomic.Int64
	start := time.Now()

	p := pool.New().WithMaxGoroutines(SEED_CONCURRENCY)
	for i := 0; i < count; i++ {
		p.Go(func() {
			if err := limiter.Wait(ctx); err != nil {
				failed.Add(1)
				return
			}
			if _, err := e.subs.CreateSubscription(ctx, randomRequest(source, i)); err != nil {
				e.log.Errorw("failed to seed subscription", "index", i, "error", err)
				failed.Add(1)
				return
			}
			if n := created.Add(1); n%100 == 0 {
				e.log.Infof("seeded %d/%d subscriptions", n, count)
			}
		})
	}
	p.Wait()

	e.log.Infow("seeding finished",
		"created", created.Load(),
		"failed", failed.Load(),
		"duration", time.Since(start),
	)
	return nil
}
