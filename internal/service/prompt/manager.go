// Package prompt manages the fixed prompt attached to a (channel, user,
// guild) scope.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/util"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

type Repository interface {
	FindFirst(ctx context.Context, scope domain.Scope) (domain.FixedPrompt, bool, error)
	Upsert(ctx context.Context, scope domain.Scope, fields domain.PromptFields) (domain.FixedPrompt, error)
	Delete(ctx context.Context, scope domain.Scope) (domain.FixedPrompt, bool, error)
}

type TemplateSource interface {
	FindSortedMany(ctx context.Context, channelID, guildID string) ([]domain.Template, error)
}

type Manager struct {
	repo      Repository
	templates TemplateSource
	logger    *zap.Logger
}

func NewManager(repo Repository, templates TemplateSource, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{repo: repo, templates: templates, logger: logger}
}

// SetCustom stores text as the scope's prompt, replacing any previous one.
func (m *Manager) SetCustom(ctx context.Context, scope domain.Scope, text string) (domain.FixedPrompt, error) {
	if err := validatePrompt(text); err != nil {
		return domain.FixedPrompt{}, err
	}

	fp, err := m.repo.Upsert(ctx, scope, domain.PromptFields{Prompt: text, IsTemplate: false})
	if err != nil {
		return domain.FixedPrompt{}, err
	}

	m.logger.Info("Fixed prompt set",
		zap.String("scope", scope.String()),
		zap.Int("length", util.RuneLength(text)),
	)
	return fp, nil
}

func (m *Manager) Remove(ctx context.Context, scope domain.Scope) error {
	_, ok, err := m.repo.Delete(ctx, scope)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("no fixed prompt to remove", "fixed_prompt")
	}

	m.logger.Info("Fixed prompt removed", zap.String("scope", scope.String()))
	return nil
}

// View returns the custom prompt text. Template-derived prompts are hidden.
func (m *Manager) View(ctx context.Context, scope domain.Scope) (string, error) {
	fp, ok, err := m.repo.FindFirst(ctx, scope)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.NewNotFoundError("no fixed prompt set", "fixed_prompt")
	}
	if fp.IsTemplate {
		return "", errors.NewTemplateNotViewableError()
	}
	return fp.Prompt, nil
}

// SelectTemplate copies the index-th (1-based) template of the scope's
// catalog into the scope's prompt and returns the chosen template.
func (m *Manager) SelectTemplate(ctx context.Context, scope domain.Scope, index int) (domain.Template, error) {
	if !scope.HasGuild() {
		return domain.Template{}, errors.NewUnsupportedContextError("templates require a guild")
	}

	catalog, err := m.templates.FindSortedMany(ctx, scope.ChannelID, scope.GuildID)
	if err != nil {
		return domain.Template{}, err
	}
	if index < 1 || index > len(catalog) {
		return domain.Template{}, errors.NewIndexError(index, len(catalog))
	}

	chosen := catalog[index-1]
	if _, err := m.repo.Upsert(ctx, scope, domain.PromptFields{Prompt: chosen.Message, IsTemplate: true}); err != nil {
		return domain.Template{}, err
	}

	m.logger.Info("Fixed prompt template selected",
		zap.String("scope", scope.String()),
		zap.Int("index", index),
		zap.Int64("template_id", chosen.ID),
	)
	return chosen, nil
}

// Active returns the scope's prompt, template-derived or not.
func (m *Manager) Active(ctx context.Context, scope domain.Scope) (domain.FixedPrompt, bool, error) {
	return m.repo.FindFirst(ctx, scope)
}

func validatePrompt(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.NewValidationError("fixed prompt is empty", "message", text)
	}
	if n := util.RuneLength(text); n > domain.MaxPromptLength {
		return errors.NewValidationError(
			fmt.Sprintf("fixed prompt is %d characters, limit is %d", n, domain.MaxPromptLength),
			"message", n,
		)
	}
	return nil
}
