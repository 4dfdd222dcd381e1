package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/kapu/gpt-discord-bot-go/internal/constants"
	"github.com/kapu/gpt-discord-bot-go/internal/util"
)

type interactionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// InteractionResponder implements domain.Responder for one interaction.
type InteractionResponder struct {
	api         interactionAPI
	interaction *discordgo.Interaction

	mu           sync.Mutex
	acknowledged bool
}

func NewInteractionResponder(api interactionAPI, interaction *discordgo.Interaction) *InteractionResponder {
	return &InteractionResponder{api: api, interaction: interaction}
}

func (r *InteractionResponder) Defer(ctx context.Context, ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.acknowledged {
		return nil
	}

	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	}
	if err := r.api.InteractionRespond(r.interaction, resp, discordgo.WithContext(ctx)); err != nil {
		return wrapREST("defer interaction", err, r.interaction.ChannelID)
	}
	r.acknowledged = true
	return nil
}

// Reply answers the interaction directly, or edits the deferred response if
// the interaction was already acknowledged.
func (r *InteractionResponder) Reply(ctx context.Context, content string, ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.acknowledged {
		return r.edit(ctx, content)
	}

	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: clip(content),
			Flags:   flags(ephemeral),
		},
	}
	if err := r.api.InteractionRespond(r.interaction, resp, discordgo.WithContext(ctx)); err != nil {
		return wrapREST("reply interaction", err, r.interaction.ChannelID)
	}
	r.acknowledged = true
	return nil
}

func (r *InteractionResponder) Edit(ctx context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.edit(ctx, content)
}

func (r *InteractionResponder) edit(ctx context.Context, content string) error {
	content = clip(content)
	if _, err := r.api.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx)); err != nil {
		return wrapREST("edit interaction", err, r.interaction.ChannelID)
	}
	return nil
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func clip(content string) string {
	return util.TruncateString(content, constants.DiscordLimits.MessageLength)
}
