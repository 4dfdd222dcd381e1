package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/adapter"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/service/webhook"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

// ParamAction carries the resolved domain.CommandType to the handler that
// owns the top-level command.
const ParamAction = "action"

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error
}

type PromptService interface {
	SetCustom(ctx context.Context, scope domain.Scope, text string) (domain.FixedPrompt, error)
	Remove(ctx context.Context, scope domain.Scope) error
	View(ctx context.Context, scope domain.Scope) (string, error)
	SelectTemplate(ctx context.Context, scope domain.Scope, index int) (domain.Template, error)
}

type TemplateService interface {
	FindSortedMany(ctx context.Context, channelID, guildID string) ([]domain.Template, error)
}

type ChannelService interface {
	Enable(ctx context.Context, channelID, guildID string) (domain.ChannelConfig, error)
	Disable(ctx context.Context, channelID, guildID string) (domain.ChannelConfig, error)
}

type WebhookService interface {
	Ensure(ctx context.Context, channelID, selfID string) (webhook.EnsureResult, error)
	Remove(ctx context.Context, channelID, selfID string) (int, error)
}

type Dependencies struct {
	Prompts   PromptService
	Templates TemplateService
	Channels  ChannelService
	Webhooks  WebhookService
	Formatter *adapter.ResponseFormatter
	Logger    *zap.Logger
}

func actionOf(params map[string]any) domain.CommandType {
	if t, ok := params[ParamAction].(domain.CommandType); ok {
		return t
	}
	return domain.CommandUnknown
}

// rejectDirectMessage answers guild-only commands invoked from a DM. It
// replies before any defer, publicly.
func rejectDirectMessage(ctx context.Context, deps *Dependencies, cmdCtx *domain.CommandContext) (bool, error) {
	if !cmdCtx.IsDirectMessage() {
		return false, nil
	}
	return true, cmdCtx.Responder.Reply(ctx, deps.Formatter.DirectMessageNotAllowed(), false)
}

// finish edits the deferred reply with either content or the mapped error line.
func finish(ctx context.Context, deps *Dependencies, cmdCtx *domain.CommandContext, cmdType domain.CommandType, content string, err error) error {
	if err != nil {
		logFailure(deps.Logger, cmdCtx, cmdType, err)
		content = deps.Formatter.FormatError(cmdType, err)
	}
	return cmdCtx.Responder.Edit(ctx, content)
}

func logFailure(logger *zap.Logger, cmdCtx *domain.CommandContext, cmdType domain.CommandType, err error) {
	fields := []zap.Field{
		zap.String("command", cmdType.String()),
		zap.String("channel_id", cmdCtx.ChannelID),
		zap.String("user_id", cmdCtx.UserID),
		zap.Error(err),
	}
	switch errors.CodeOf(err) {
	case errors.CodeValidation, errors.CodeNotFound, errors.CodeIndex,
		errors.CodeTemplateNotViewable, errors.CodeUnsupportedContext, errors.CodeRemoteCapability:
		logger.Debug("Command rejected", fields...)
	default:
		logger.Error("Command failed", fields...)
	}
}
