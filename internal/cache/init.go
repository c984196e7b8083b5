package cache

import (
	"github.com/flexprice/payschedule/internal/config"
	"github.com/flexprice/payschedule/internal/logger"
)

// Initialize creates the cache used by the services
func Initialize(cfg *config.Configuration, log *logger.Logger) Cache {
	log.Infow("initializing cache", "enabled", cfg.Cache.Enabled, "ttl", cfg.Cache.TTL)
	return NewInMemoryCache(cfg, log)
}
