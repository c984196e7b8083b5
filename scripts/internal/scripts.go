package internal

import (
	"context"
	"time"

	"github.com/flexprice/payschedule/internal/cache"
	"github.com/flexprice/payschedule/internal/config"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/logger"
	"github.com/flexprice/payschedule/internal/postgres"
	"github.com/flexprice/payschedule/internal/publisher"
	"github.com/flexprice/payschedule/internal/repository"
	"github.com/flexprice/payschedule/internal/service"
)

// env bundles what the scripts need. Events are not published from scripts.
type env struct {
	cfg     *config.Configuration
	log     *logger.Logger
	db      *postgres.DB
	subs    service.SubscriptionService
	billing service.BillingService
}

func newEnv() (*env, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	cfg.Events.Enabled = false

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	if !cfg.Postgres.Enabled() {
		return nil, ierr.NewError("postgres is not configured").
			WithHint("Set PAYSCHEDULE_POSTGRES_HOST").
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
		return nil, err
	}

	params := service.NewServiceParams(
		log,
		cfg,
		db,
		cache.Initialize(cfg, log),
		repository.NewSubscriptionRepository(db, log),
		publisher.NewEventPublisher(cfg, log, nil),
	)
	subs := service.NewSubscriptionService(params)

	return &env{
		cfg:     cfg,
		log:     log,
		db:      db,
		subs:    subs,
		billing: service.NewBillingService(params, subs),
	}, nil
}
