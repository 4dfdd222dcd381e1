package command

import (
	"context"
	"fmt"

	"github.com/kapu/gpt-discord-bot-go/internal/adapter"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
)

// WebhooksCommand reconciles the bot's webhook in the invoking channel. The
// reply is public so the channel sees who changed it.
type WebhooksCommand struct {
	deps *Dependencies
}

func NewWebhooksCommand(deps *Dependencies) *WebhooksCommand {
	return &WebhooksCommand{deps: deps}
}

func (c *WebhooksCommand) Name() string {
	return adapter.CommandNameWebhooks
}

func (c *WebhooksCommand) Description() string {
	return "Add or remove the bot webhook in this channel"
}

func (c *WebhooksCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	action := actionOf(params)
	if action != domain.CommandWebhookAdd && action != domain.CommandWebhookRemove {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, action)
	}
	if rejected, err := rejectDirectMessage(ctx, c.deps, cmdCtx); rejected || err != nil {
		return err
	}
	if err := cmdCtx.Responder.Defer(ctx, false); err != nil {
		return err
	}

	if action == domain.CommandWebhookAdd {
		_, err := c.deps.Webhooks.Ensure(ctx, cmdCtx.ChannelID, cmdCtx.SelfID)
		return finish(ctx, c.deps, cmdCtx, action, c.deps.Formatter.WebhookAdded(), err)
	}

	_, err := c.deps.Webhooks.Remove(ctx, cmdCtx.ChannelID, cmdCtx.SelfID)
	return finish(ctx, c.deps, cmdCtx, action, c.deps.Formatter.WebhookRemoved(), err)
}
