package template

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/util"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

// Entry is one template in an import file.
type Entry struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id,omitempty"`
	Name      string `json:"name"`
	Message   string `json:"message"`
	Rank      *int64 `json:"rank,omitempty"`
}

// Writer persists a validated batch atomically.
type Writer interface {
	Import(ctx context.Context, templates []domain.Template, replace bool) ([]domain.Template, error)
}

// ParseEntries decodes a JSON array of entries. Entries without a rank keep
// their file order.
func ParseEntries(r io.Reader) ([]domain.Template, error) {
	var entries []Entry
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode template file: %w", err)
	}

	templates := make([]domain.Template, 0, len(entries))
	for i, e := range entries {
		t := domain.Template{
			GuildID:   strings.TrimSpace(e.GuildID),
			ChannelID: strings.TrimSpace(e.ChannelID),
			Name:      strings.TrimSpace(e.Name),
			Message:   e.Message,
			Rank:      int64(i),
		}
		if e.Rank != nil {
			t.Rank = *e.Rank
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func validateEntry(i int, t domain.Template) error {
	switch {
	case t.GuildID == "":
		return errors.NewValidationError(fmt.Sprintf("entry %d: guild_id is required", i+1), "guild_id", t.GuildID)
	case t.Name == "":
		return errors.NewValidationError(fmt.Sprintf("entry %d: name is required", i+1), "name", t.Name)
	case util.IsBlank(t.Message):
		return errors.NewValidationError(fmt.Sprintf("entry %d: message is required", i+1), "message", t.Message)
	case util.RuneLength(t.Message) > domain.MaxPromptLength:
		return errors.NewValidationError(
			fmt.Sprintf("entry %d: message exceeds %d characters", i+1, domain.MaxPromptLength),
			"message", util.RuneLength(t.Message),
		)
	}
	return nil
}

// Import validates templates, writes them through w and drops the cached
// catalogs of channel-bound entries. Guild-wide entries show up in every
// channel's catalog and become visible as those entries expire. Nothing is
// written when any entry is invalid.
func (c *Catalog) Import(ctx context.Context, w Writer, templates []domain.Template, replace bool) ([]domain.Template, error) {
	for i, t := range templates {
		if err := validateEntry(i, t); err != nil {
			return nil, err
		}
	}

	created, err := w.Import(ctx, templates, replace)
	if err != nil {
		return nil, err
	}

	touched := make(map[[2]string]struct{})
	for _, t := range created {
		if t.ChannelID == "" {
			continue
		}
		key := [2]string{t.GuildID, t.ChannelID}
		if _, ok := touched[key]; ok {
			continue
		}
		touched[key] = struct{}{}
		if err := c.Invalidate(ctx, t.ChannelID, t.GuildID); err != nil {
			c.logger.Warn("Template cache invalidation failed",
				zap.String("guild_id", t.GuildID),
				zap.String("channel_id", t.ChannelID),
				zap.Error(err),
			)
		}
	}

	c.logger.Info("Templates imported", zap.Int("count", len(created)), zap.Bool("replace", replace))
	return created, nil
}
