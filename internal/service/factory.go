package service

import (
	"context"

	"github.com/flexprice/payschedule/internal/cache"
	"github.com/flexprice/payschedule/internal/config"
	"github.com/flexprice/payschedule/internal/domain/subscription"
	"github.com/flexprice/payschedule/internal/logger"
	"github.com/flexprice/payschedule/internal/postgres"
	"github.com/flexprice/payschedule/internal/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	// DB is nil when subscriptions are kept in memory
	DB    *postgres.DB
	Cache cache.Cache

	// Repositories
	SubRepo subscription.Repository

	// Publishers
	EventPublisher publisher.EventPublisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db *postgres.DB,
	cache cache.Cache,
	subRepo subscription.Repository,
	eventPublisher publisher.EventPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:         logger,
		Config:         config,
		DB:             db,
		Cache:          cache,
		SubRepo:        subRepo,
		EventPublisher: eventPublisher,
	}
}

// withTx runs fn in a database transaction when a database is configured
func (p ServiceParams) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.DB == nil {
		return fn(ctx)
	}
	return p.DB.WithTx(ctx, fn)
}
