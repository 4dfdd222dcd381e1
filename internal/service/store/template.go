package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/service/database"
)

type TemplateRepository struct {
	db     querier
	conn   *sql.DB
	rebind func(string) string
	logger *zap.Logger
}

func NewTemplateRepository(db *database.Service, logger *zap.Logger) *TemplateRepository {
	return &TemplateRepository{
		db:     db.GetDB(),
		conn:   db.GetDB(),
		rebind: db.Rebind,
		logger: logger,
	}
}

// FindSortedMany lists guild-wide templates plus those bound to channelID,
// ordered by (sort_rank, id). The result is never nil.
func (r *TemplateRepository) FindSortedMany(ctx context.Context, guildID, channelID string) ([]domain.Template, error) {
	query := r.rebind(`
		SELECT id, guild_id, channel_id, name, message, sort_rank
		FROM fixed_prompt_templates
		WHERE guild_id = ? AND (channel_id = '' OR channel_id = ?)
		ORDER BY sort_rank ASC, id ASC
	`)

	rows, err := r.db.QueryContext(ctx, query, guildID, channelID)
	if err != nil {
		return nil, storeError(r.logger, "list templates", err)
	}
	defer rows.Close()

	templates := make([]domain.Template, 0)
	for rows.Next() {
		var t domain.Template
		if err := rows.Scan(&t.ID, &t.GuildID, &t.ChannelID, &t.Name, &t.Message, &t.Rank); err != nil {
			return nil, storeError(r.logger, "scan template", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(r.logger, "list templates", err)
	}
	return templates, nil
}

// Create inserts a template. Templates are curated by guild administrators
// outside the command surface; this is the seeding path.
func (r *TemplateRepository) Create(ctx context.Context, t domain.Template) (domain.Template, error) {
	return r.create(ctx, r.db, t)
}

// Import inserts templates in one transaction. With replace set, existing
// templates of every guild in the batch are deleted first.
func (r *TemplateRepository) Import(ctx context.Context, templates []domain.Template, replace bool) ([]domain.Template, error) {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(r.logger, "begin template import", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if replace {
		seen := make(map[string]struct{})
		for _, t := range templates {
			if _, ok := seen[t.GuildID]; ok {
				continue
			}
			seen[t.GuildID] = struct{}{}
			if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM fixed_prompt_templates WHERE guild_id = ?`), t.GuildID); err != nil {
				return nil, storeError(r.logger, "clear guild templates", err)
			}
		}
	}

	created := make([]domain.Template, 0, len(templates))
	for _, t := range templates {
		saved, err := r.create(ctx, tx, t)
		if err != nil {
			return nil, err
		}
		created = append(created, saved)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(r.logger, "commit template import", err)
	}
	return created, nil
}

func (r *TemplateRepository) create(ctx context.Context, q querier, t domain.Template) (domain.Template, error) {
	query := r.rebind(`
		INSERT INTO fixed_prompt_templates (guild_id, channel_id, name, message, sort_rank, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	if err := q.QueryRowContext(ctx, query,
		t.GuildID, t.ChannelID, t.Name, t.Message, t.Rank, time.Now().UTC(),
	).Scan(&t.ID); err != nil {
		return domain.Template{}, storeError(r.logger, "create template", err)
	}
	return t, nil
}
