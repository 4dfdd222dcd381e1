package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TieredCache reads L1 then L2, backfilling L1 on an L2 hit. Writes and
// deletes go to both tiers. L2 failures degrade to L1-only behaviour.
type TieredCache struct {
	l1       Store
	l2       Store
	l1Expire time.Duration
	logger   *zap.Logger
}

// NewTieredCache accepts a nil l2 for deployments without Redis.
func NewTieredCache(l1, l2 Store, l1Expire time.Duration, logger *zap.Logger) *TieredCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredCache{l1: l1, l2: l2, l1Expire: l1Expire, logger: logger}
}

func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		return val, true, nil
	}
	if c.l2 == nil {
		return nil, false, nil
	}

	val, found, err = c.l2.Get(ctx, key)
	if err != nil {
		c.logger.Warn("L2 cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if found {
		_ = c.l1.Set(ctx, key, val, c.l1Expire)
		return val, true, nil
	}
	return nil, false, nil
}

func (c *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l1TTL := ttl
	if c.l1Expire > 0 && (l1TTL <= 0 || c.l1Expire < l1TTL) {
		l1TTL = c.l1Expire
	}
	if err := c.l1.Set(ctx, key, value, l1TTL); err != nil {
		return err
	}
	if c.l2 == nil {
		return nil
	}
	return c.l2.Set(ctx, key, value, ttl)
}

func (c *TieredCache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	if c.l2 == nil {
		return nil
	}
	return c.l2.Delete(ctx, key)
}
