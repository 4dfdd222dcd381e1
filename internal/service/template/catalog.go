// Package template serves the ordered template catalog of a guild channel.
package template

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/constants"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/service/cache"
)

// Repository is the store contract the catalog reads from.
type Repository interface {
	FindSortedMany(ctx context.Context, guildID, channelID string) ([]domain.Template, error)
}

// Catalog is a read-through cache over Repository. A nil cache reads the
// store directly.
type Catalog struct {
	repo   Repository
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

func NewCatalog(repo Repository, c cache.Store, ttl time.Duration, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = constants.CacheTTL.TemplateCatalog
	}
	return &Catalog{repo: repo, cache: c, ttl: ttl, logger: logger}
}

// FindSortedMany returns the templates visible in channelID of guildID,
// ordered by rank then id. Position i in the slice is template number i+1.
func (c *Catalog) FindSortedMany(ctx context.Context, channelID, guildID string) ([]domain.Template, error) {
	key := cacheKey(guildID, channelID)

	if c.cache != nil {
		var cached []domain.Template
		found, err := cache.GetJSON(ctx, c.cache, key, &cached)
		if err != nil {
			c.logger.Warn("Template cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	templates, err := c.repo.FindSortedMany(ctx, guildID, channelID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := cache.SetJSON(ctx, c.cache, key, templates, c.ttl); err != nil {
			c.logger.Warn("Template cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return templates, nil
}

// Invalidate drops the cached catalog for one guild channel.
func (c *Catalog) Invalidate(ctx context.Context, channelID, guildID string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, cacheKey(guildID, channelID))
}

// Lines renders templates as "1. name", "2. name", ...
func Lines(templates []domain.Template) []string {
	lines := make([]string, 0, len(templates))
	for i, t := range templates {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, t.Name))
	}
	return lines
}

func cacheKey(guildID, channelID string) string {
	return constants.CacheKeys.TemplatePrefix + guildID + ":" + channelID
}
