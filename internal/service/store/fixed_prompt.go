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

const fixedPromptColumns = `id, channel_id, user_id, guild_id, prompt, is_template, updated_at`

type FixedPromptRepository struct {
	db     querier
	rebind func(string) string
	logger *zap.Logger
}

func NewFixedPromptRepository(db *database.Service, logger *zap.Logger) *FixedPromptRepository {
	return &FixedPromptRepository{
		db:     db.GetDB(),
		rebind: db.Rebind,
		logger: logger,
	}
}

// FindFirst returns the prompt stored for scope, if any.
func (r *FixedPromptRepository) FindFirst(ctx context.Context, scope domain.Scope) (domain.FixedPrompt, bool, error) {
	query := r.rebind(`
		SELECT ` + fixedPromptColumns + `
		FROM fixed_prompts
		WHERE channel_id = ? AND user_id = ? AND guild_id = ?
		LIMIT 1
	`)

	fp, err := scanFixedPrompt(r.db.QueryRowContext(ctx, query, scope.ChannelID, scope.UserID, scope.GuildID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.FixedPrompt{}, false, nil
	}
	if err != nil {
		return domain.FixedPrompt{}, false, storeError(r.logger, "find fixed prompt", err)
	}
	return fp, true, nil
}

// Upsert writes fields for scope in one statement. Concurrent calls on the
// same scope converge on a single row; the last writer wins.
func (r *FixedPromptRepository) Upsert(ctx context.Context, scope domain.Scope, fields domain.PromptFields) (domain.FixedPrompt, error) {
	now := time.Now().UTC()
	query := r.rebind(`
		INSERT INTO fixed_prompts (channel_id, user_id, guild_id, prompt, is_template, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (channel_id, user_id, guild_id) DO UPDATE SET
			prompt = excluded.prompt,
			is_template = excluded.is_template,
			updated_at = excluded.updated_at
		RETURNING ` + fixedPromptColumns)

	fp, err := scanFixedPrompt(r.db.QueryRowContext(ctx, query,
		scope.ChannelID, scope.UserID, scope.GuildID, fields.Prompt, fields.IsTemplate, now, now,
	))
	if err != nil {
		return domain.FixedPrompt{}, storeError(r.logger, "upsert fixed prompt", err)
	}
	return fp, nil
}

// Delete removes the prompt for scope and returns what was removed.
func (r *FixedPromptRepository) Delete(ctx context.Context, scope domain.Scope) (domain.FixedPrompt, bool, error) {
	query := r.rebind(`
		DELETE FROM fixed_prompts
		WHERE channel_id = ? AND user_id = ? AND guild_id = ?
		RETURNING ` + fixedPromptColumns)

	fp, err := scanFixedPrompt(r.db.QueryRowContext(ctx, query, scope.ChannelID, scope.UserID, scope.GuildID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.FixedPrompt{}, false, nil
	}
	if err != nil {
		return domain.FixedPrompt{}, false, storeError(r.logger, "delete fixed prompt", err)
	}
	return fp, true, nil
}

func scanFixedPrompt(row scannable) (domain.FixedPrompt, error) {
	var fp domain.FixedPrompt
	err := row.Scan(
		&fp.ID, &fp.Scope.ChannelID, &fp.Scope.UserID, &fp.Scope.GuildID,
		&fp.Prompt, &fp.IsTemplate, timestamp{&fp.UpdatedAt},
	)
	return fp, err
}
