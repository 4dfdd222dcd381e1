package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/service/database"
)

type ChannelRepository struct {
	db     querier
	rebind func(string) string
	logger *zap.Logger
}

func NewChannelRepository(db *database.Service, logger *zap.Logger) *ChannelRepository {
	return &ChannelRepository{
		db:     db.GetDB(),
		rebind: db.Rebind,
		logger: logger,
	}
}

func (r *ChannelRepository) FindFirst(ctx context.Context, channelID string) (domain.ChannelConfig, bool, error) {
	query := r.rebind(`
		SELECT channel_id, guild_id, is_gpt_channel
		FROM channels
		WHERE channel_id = ?
		LIMIT 1
	`)

	cfg, err := scanChannel(r.db.QueryRowContext(ctx, query, channelID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.ChannelConfig{}, false, nil
	}
	if err != nil {
		return domain.ChannelConfig{}, false, storeError(r.logger, "find channel", err)
	}
	return cfg, true, nil
}

// UpsertGptChannel creates or updates the channel row in one statement.
func (r *ChannelRepository) UpsertGptChannel(ctx context.Context, channelID, guildID string, enabled bool) (domain.ChannelConfig, error) {
	query := r.rebind(`
		INSERT INTO channels (channel_id, guild_id, is_gpt_channel, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (channel_id) DO UPDATE SET
			guild_id = excluded.guild_id,
			is_gpt_channel = excluded.is_gpt_channel,
			updated_at = excluded.updated_at
		RETURNING channel_id, guild_id, is_gpt_channel
	`)

	cfg, err := scanChannel(r.db.QueryRowContext(ctx, query, channelID, guildID, enabled, time.Now().UTC()))
	if err != nil {
		return domain.ChannelConfig{}, storeError(r.logger, "upsert channel", err)
	}
	return cfg, nil
}

// UpdateGptChannel changes an existing row only; ok is false when the
// channel was never registered.
func (r *ChannelRepository) UpdateGptChannel(ctx context.Context, channelID string, enabled bool) (domain.ChannelConfig, bool, error) {
	query := r.rebind(`
		UPDATE channels
		SET is_gpt_channel = ?, updated_at = ?
		WHERE channel_id = ?
		RETURNING channel_id, guild_id, is_gpt_channel
	`)

	cfg, err := scanChannel(r.db.QueryRowContext(ctx, query, enabled, time.Now().UTC(), channelID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.ChannelConfig{}, false, nil
	}
	if err != nil {
		return domain.ChannelConfig{}, false, storeError(r.logger, "update channel", err)
	}
	return cfg, true, nil
}

func scanChannel(row scannable) (domain.ChannelConfig, error) {
	var cfg domain.ChannelConfig
	err := row.Scan(&cfg.ChannelID, &cfg.GuildID, &cfg.IsGptChannel)
	return cfg, err
}
