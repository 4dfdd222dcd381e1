// Package assistant answers messages in GPT channels, using the author's
// fixed prompt as the system instruction.
package assistant

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/constants"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/util"
)

type ChannelChecker interface {
	IsEnabled(ctx context.Context, channelID string) (bool, error)
}

type PromptSource interface {
	Active(ctx context.Context, scope domain.Scope) (domain.FixedPrompt, bool, error)
}

type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

type WebhookFinder interface {
	Find(ctx context.Context, channelID, selfID string) (domain.WebhookRef, bool, error)
}

// Delivery posts replies either as the bot or through a webhook.
type Delivery interface {
	SendMessage(ctx context.Context, channelID, content string) error
	ExecuteWebhook(ctx context.Context, ref domain.WebhookRef, content string) error
}

type Responder struct {
	channels  ChannelChecker
	prompts   PromptSource
	generator Generator
	webhooks  WebhookFinder
	delivery  Delivery
	maxLength int
	logger    *zap.Logger
}

// NewResponder accepts a nil webhooks finder; replies then always go out as
// bot messages.
func NewResponder(
	channels ChannelChecker,
	prompts PromptSource,
	generator Generator,
	webhooks WebhookFinder,
	delivery Delivery,
	maxLength int,
	logger *zap.Logger,
) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLength <= 0 || maxLength > constants.DiscordLimits.MessageLength {
		maxLength = constants.DiscordLimits.MessageLength
	}
	return &Responder{
		channels:  channels,
		prompts:   prompts,
		generator: generator,
		webhooks:  webhooks,
		delivery:  delivery,
		maxLength: maxLength,
		logger:    logger,
	}
}

// HandleMessage replies to msg when it was posted by a user in a GPT channel.
// It reports whether a reply was sent.
func (r *Responder) HandleMessage(ctx context.Context, msg domain.IncomingMessage, selfID string) (bool, error) {
	if msg.IsBot || msg.WebhookID != "" || msg.AuthorID == selfID || msg.GuildID == "" {
		return false, nil
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return false, nil
	}

	enabled, err := r.channels.IsEnabled(ctx, msg.ChannelID)
	if err != nil || !enabled {
		return false, err
	}

	system := constants.AssistantConfig.DefaultSystem
	fp, ok, err := r.prompts.Active(ctx, msg.Scope())
	if err != nil {
		return false, err
	}
	if ok {
		system = fp.Prompt
	}

	genCtx, cancel := context.WithTimeout(ctx, constants.AssistantConfig.RequestTimeout)
	defer cancel()

	result, err := r.generator.Generate(genCtx, Request{System: system, Prompt: content})
	if err != nil {
		return false, err
	}

	reply := util.TruncateString(strings.TrimSpace(result.Text), r.maxLength)
	if reply == "" {
		return false, nil
	}

	if r.webhooks != nil {
		ref, found, err := r.webhooks.Find(ctx, msg.ChannelID, selfID)
		if err != nil {
			r.logger.Warn("Webhook lookup failed, replying as bot",
				zap.String("channel_id", msg.ChannelID),
				zap.Error(err),
			)
		} else if found {
			if err := r.delivery.ExecuteWebhook(ctx, ref, reply); err != nil {
				return false, err
			}
			r.logReply(msg, result, true, ok)
			return true, nil
		}
	}

	if err := r.delivery.SendMessage(ctx, msg.ChannelID, reply); err != nil {
		return false, err
	}
	r.logReply(msg, result, false, ok)
	return true, nil
}

func (r *Responder) logReply(msg domain.IncomingMessage, result Result, viaWebhook, fixedPrompt bool) {
	r.logger.Info("Assistant replied",
		zap.String("channel_id", msg.ChannelID),
		zap.String("user_id", msg.AuthorID),
		zap.String("provider", result.Provider),
		zap.Bool("via_webhook", viaWebhook),
		zap.Bool("fixed_prompt", fixedPrompt),
	)
}
