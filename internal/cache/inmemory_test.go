package cache

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/payschedule/internal/config"
	"github.com/flexprice/payschedule/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	c := NewInMemoryCache(cfg, logger.NewNopLogger())

	key := GenerateKey(PrefixSubscription, "subs_1")
	assert.Equal(t, "subscription:v1::subs_1", key)

	c.Set(ctx, key, "value", 0)
	got, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "value", got)

	c.Set(ctx, GenerateKey(PrefixSubscription, "subs_2"), "other", time.Minute)
	c.Set(ctx, GenerateKey(PrefixSubscriptionKey, "SUBSCR_1"), "key", time.Minute)
	c.DeleteByPrefix(ctx, PrefixSubscription)
	assert.Equal(t, 1, c.ItemCount())

	c.Delete(ctx, GenerateKey(PrefixSubscriptionKey, "SUBSCR_1"))
	_, ok = c.Get(ctx, GenerateKey(PrefixSubscriptionKey, "SUBSCR_1"))
	assert.False(t, ok)
}

func TestInMemoryCache_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = false
	c := NewInMemoryCache(cfg, logger.NewNopLogger())

	c.Set(ctx, "k", "v", time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.ItemCount())
}
