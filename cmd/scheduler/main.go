package main

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/payschedule/internal/cache"
	"github.com/flexprice/payschedule/internal/config"
	"github.com/flexprice/payschedule/internal/domain/events"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/logger"
	"github.com/flexprice/payschedule/internal/postgres"
	"github.com/flexprice/payschedule/internal/publisher"
	"github.com/flexprice/payschedule/internal/pubsub"
	"github.com/flexprice/payschedule/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/payschedule/internal/pubsub/router"
	"github.com/flexprice/payschedule/internal/repository"
	"github.com/flexprice/payschedule/internal/service"
	"github.com/flexprice/payschedule/internal/types"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/fx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	// Initialize Fx application
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.Initialize,

			// Postgres
			provideDB,

			// Repositories
			repository.NewSubscriptionRepository,

			// PubSub
			memory.NewPubSub,
			providePublisher,
			pubsubRouter.NewRouter,

			// Event Publisher
			publisher.NewEventPublisher,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewSubscriptionService,
			service.NewBillingService,
		),
	)

	opts = append(opts,
		fx.Invoke(
			startMessageRouter,
			startScheduler,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

// provideDB connects to postgres in scheduler mode. Local mode keeps
// subscriptions in memory and gets a nil DB.
func provideDB(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*postgres.DB, error) {
	if cfg.Deployment.Mode == types.ModeLocal && !cfg.Postgres.Enabled() {
		return nil, nil
	}
	if !cfg.Postgres.Enabled() {
		return nil, ierr.NewErrorf("postgres is required in %s mode", cfg.Deployment.Mode).
			WithHint("Set postgres.host or run in local mode").
			Mark(ierr.ErrValidation)
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, ierr.WithError(err).
			WithHint("Failed to apply database schema").
			Mark(ierr.ErrDatabase)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
	return db, nil
}

func providePublisher(ps pubsub.PubSub) pubsub.Publisher {
	return ps
}

func startMessageRouter(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *pubsubRouter.Router,
	ps pubsub.PubSub,
	log *logger.Logger,
) {
	if !cfg.Events.Enabled {
		log.Info("events disabled, message router not started")
		return
	}

	router.AddNoPublishHandler(
		"subscription_event_logger",
		cfg.Events.Topic,
		ps,
		func(msg *message.Message) error {
			var event events.Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to decode event").
					Mark(ierr.ErrParse)
			}
			log.Infow("subscription event",
				"event_id", event.ID,
				"event_name", event.EventName,
				"subscription_id", event.SubscriptionID,
				"run_id", msg.Metadata.Get("run_id"),
			)
			return nil
		},
	)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting message router")
			go func() {
				if err := router.Run(context.Background()); err != nil {
					log.Errorw("message router stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down message router")
			if err := router.Close(); err != nil {
				return err
			}
			return ps.Close()
		},
	})
}

// startScheduler runs the follow-up payment run once at start and then on
// every scheduler interval
func startScheduler(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	billingService service.BillingService,
	log *logger.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	run := func() {
		resp, err := billingService.RunFollowUpPayments(ctx, time.Now().In(cfg.Billing.Location()))
		if err != nil {
			log.Errorw("follow-up payment run failed", "error", err)
			return
		}
		for _, r := range resp.Results {
			if r.Error != "" {
				log.Warnw("follow-up payment failed",
					"run_id", resp.RunID,
					"subscription_id", r.SubscriptionID,
					"error", r.Error,
				)
			}
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Infow("starting scheduler",
				"mode", cfg.Deployment.Mode,
				"interval", cfg.Scheduler.Interval,
				"lookahead", cfg.Scheduler.Lookahead,
			)
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticker := time.NewTicker(cfg.Scheduler.Interval)
				defer ticker.Stop()

				run()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						run()
					}
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			log.Info("shutting down scheduler")
			cancel()
			wg.Wait()
			return nil
		},
	})
}
