// Package channel toggles the per-channel GPT flag.
package channel

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

type Repository interface {
	FindFirst(ctx context.Context, channelID string) (domain.ChannelConfig, bool, error)
	UpsertGptChannel(ctx context.Context, channelID, guildID string, enabled bool) (domain.ChannelConfig, error)
	UpdateGptChannel(ctx context.Context, channelID string, enabled bool) (domain.ChannelConfig, bool, error)
}

type FlagManager struct {
	repo   Repository
	logger *zap.Logger
}

func NewFlagManager(repo Repository, logger *zap.Logger) *FlagManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlagManager{repo: repo, logger: logger}
}

func (m *FlagManager) Enable(ctx context.Context, channelID, guildID string) (domain.ChannelConfig, error) {
	if guildID == "" {
		return domain.ChannelConfig{}, errors.NewUnsupportedContextError("gpt channels require a guild")
	}

	cfg, err := m.repo.UpsertGptChannel(ctx, channelID, guildID, true)
	if err != nil {
		return domain.ChannelConfig{}, err
	}

	m.logger.Info("GPT channel enabled", zap.String("guild_id", guildID), zap.String("channel_id", channelID))
	return cfg, nil
}

// Disable clears the flag on a registered channel. An unregistered channel
// is NotFound; no disabled row is created.
func (m *FlagManager) Disable(ctx context.Context, channelID, guildID string) (domain.ChannelConfig, error) {
	if guildID == "" {
		return domain.ChannelConfig{}, errors.NewUnsupportedContextError("gpt channels require a guild")
	}

	cfg, ok, err := m.repo.UpdateGptChannel(ctx, channelID, false)
	if err != nil {
		return domain.ChannelConfig{}, err
	}
	if !ok {
		return domain.ChannelConfig{}, errors.NewNotFoundError("channel is not registered", "channel")
	}

	m.logger.Info("GPT channel disabled", zap.String("guild_id", guildID), zap.String("channel_id", channelID))
	return cfg, nil
}

func (m *FlagManager) IsEnabled(ctx context.Context, channelID string) (bool, error) {
	cfg, ok, err := m.repo.FindFirst(ctx, channelID)
	if err != nil || !ok {
		return false, err
	}
	return cfg.IsGptChannel, nil
}
