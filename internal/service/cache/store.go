// Package cache provides byte caches (Redis, ristretto, and a two-level
// combination) plus JSON helpers over them.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

// Store is the byte-level cache contract shared by every tier.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var (
	_ Store = (*CacheService)(nil)
	_ Store = (*LocalCache)(nil)
	_ Store = (*TieredCache)(nil)
)

// GetJSON decodes key into dest. A miss returns false with no error.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.NewCacheError("unmarshal failed", "get", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}
