package repository

import (
	"github.com/flexprice/payschedule/internal/domain/subscription"
	"github.com/flexprice/payschedule/internal/logger"
	"github.com/flexprice/payschedule/internal/postgres"
	"github.com/flexprice/payschedule/internal/repository/memory"
	postgresRepo "github.com/flexprice/payschedule/internal/repository/postgres"
)

// NewSubscriptionRepository returns the postgres store when a database is
// configured and an in-memory store otherwise
func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	if db == nil {
		logger.Warnw("no database configured, subscriptions are kept in memory")
		return memory.NewSubscriptionStore()
	}
	return postgresRepo.NewSubscriptionRepository(db, logger)
}
