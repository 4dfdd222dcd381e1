package command

import (
	"context"
	"fmt"

	"github.com/kapu/gpt-discord-bot-go/internal/adapter"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
)

type GptChannelsCommand struct {
	deps *Dependencies
}

func NewGptChannelsCommand(deps *Dependencies) *GptChannelsCommand {
	return &GptChannelsCommand{deps: deps}
}

func (c *GptChannelsCommand) Name() string {
	return adapter.CommandNameGptChannels
}

func (c *GptChannelsCommand) Description() string {
	return "Turn the assistant on or off in this channel"
}

func (c *GptChannelsCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	action := actionOf(params)
	if action != domain.CommandGptChannelAdd && action != domain.CommandGptChannelRemove {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, action)
	}
	if rejected, err := rejectDirectMessage(ctx, c.deps, cmdCtx); rejected || err != nil {
		return err
	}
	if err := cmdCtx.Responder.Defer(ctx, true); err != nil {
		return err
	}

	var (
		cfg domain.ChannelConfig
		err error
	)
	if action == domain.CommandGptChannelAdd {
		cfg, err = c.deps.Channels.Enable(ctx, cmdCtx.ChannelID, cmdCtx.GuildID)
	} else {
		cfg, err = c.deps.Channels.Disable(ctx, cmdCtx.ChannelID, cmdCtx.GuildID)
	}
	return finish(ctx, c.deps, cmdCtx, action, c.deps.Formatter.GptChannel(cfg.IsGptChannel), err)
}
