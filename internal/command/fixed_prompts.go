package command

import (
	"context"
	"fmt"

	"github.com/kapu/gpt-discord-bot-go/internal/adapter"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/service/template"
)

// FixedPromptsCommand serves every "fixed-prompts" subcommand. Replies are
// ephemeral.
type FixedPromptsCommand struct {
	deps *Dependencies
}

func NewFixedPromptsCommand(deps *Dependencies) *FixedPromptsCommand {
	return &FixedPromptsCommand{deps: deps}
}

func (c *FixedPromptsCommand) Name() string {
	return adapter.CommandNameFixedPrompts
}

func (c *FixedPromptsCommand) Description() string {
	return "Manage the fixed prompt used in this channel"
}

func (c *FixedPromptsCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	action := actionOf(params)
	switch action {
	case domain.CommandFixedPromptSet, domain.CommandFixedPromptRemove, domain.CommandFixedPromptView:
	case domain.CommandTemplateView, domain.CommandTemplateSelect:
		if rejected, err := rejectDirectMessage(ctx, c.deps, cmdCtx); rejected || err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, action)
	}

	if err := cmdCtx.Responder.Defer(ctx, true); err != nil {
		return err
	}

	scope := cmdCtx.Scope()
	switch action {
	case domain.CommandFixedPromptSet:
		fp, err := c.deps.Prompts.SetCustom(ctx, scope, adapter.StringParam(params, "message"))
		return finish(ctx, c.deps, cmdCtx, action, c.deps.Formatter.PromptSet(fp.Prompt), err)
	case domain.CommandFixedPromptRemove:
		err := c.deps.Prompts.Remove(ctx, scope)
		return finish(ctx, c.deps, cmdCtx, action, c.deps.Formatter.PromptRemoved(), err)
	case domain.CommandFixedPromptView:
		text, err := c.deps.Prompts.View(ctx, scope)
		return finish(ctx, c.deps, cmdCtx, action, c.deps.Formatter.PromptView(text), err)
	case domain.CommandTemplateView:
		templates, err := c.deps.Templates.FindSortedMany(ctx, cmdCtx.ChannelID, cmdCtx.GuildID)
		return finish(ctx, c.deps, cmdCtx, action, c.deps.Formatter.TemplateList(template.Lines(templates)), err)
	default:
		// A missing index is passed through as 0 and rejected as out of range.
		index, _ := adapter.IntParam(params, "index")
		tpl, err := c.deps.Prompts.SelectTemplate(ctx, scope, index)
		return finish(ctx, c.deps, cmdCtx, action, c.deps.Formatter.TemplateSelected(tpl.Name), err)
	}
}
