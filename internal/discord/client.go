// Package discord binds the bot's services to the Discord gateway and REST API.
package discord

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/adapter"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

// restAPI is the subset of *discordgo.Session the client calls.
type restAPI interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelWebhooks(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Webhook, error)
	WebhookCreate(channelID, name, avatar string, options ...discordgo.RequestOption) (*discordgo.Webhook, error)
	WebhookDelete(webhookID string, options ...discordgo.RequestOption) error
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type channelCache interface {
	Channel(channelID string) (*discordgo.Channel, error)
}

// Client implements webhook.Platform and assistant.Delivery over discordgo.
type Client struct {
	api     restAPI
	state   channelCache
	avatars *AvatarFetcher
	logger  *zap.Logger
}

func NewClient(session *discordgo.Session, avatars *AvatarFetcher, logger *zap.Logger) *Client {
	var state channelCache
	if session.State != nil {
		state = session.State
	}
	return newClient(session, state, avatars, logger)
}

func newClient(api restAPI, state channelCache, avatars *AvatarFetcher, logger *zap.Logger) *Client {
	if avatars == nil {
		avatars = NewAvatarFetcher(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, state: state, avatars: avatars, logger: logger}
}

// Channel resolves a channel from the gateway state, falling back to REST.
func (c *Client) Channel(ctx context.Context, channelID string) (domain.ChannelInfo, error) {
	if c.state != nil {
		if ch, err := c.state.Channel(channelID); err == nil && ch != nil {
			return channelInfo(ch), nil
		}
	}
	ch, err := c.api.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return domain.ChannelInfo{}, wrapREST("fetch channel", err, channelID)
	}
	return channelInfo(ch), nil
}

func (c *Client) FetchWebhooks(ctx context.Context, channelID string) ([]domain.WebhookRef, error) {
	hooks, err := c.api.ChannelWebhooks(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapREST("fetch webhooks", err, channelID)
	}
	refs := make([]domain.WebhookRef, 0, len(hooks))
	for _, h := range hooks {
		if h == nil {
			continue
		}
		refs = append(refs, webhookRef(h))
	}
	return refs, nil
}

// CreateWebhook creates a webhook; a non-empty avatarURL is downloaded first.
func (c *Client) CreateWebhook(ctx context.Context, channelID, name, avatarURL string) (domain.WebhookRef, error) {
	avatar := ""
	if avatarURL != "" {
		uri, err := c.avatars.DataURI(ctx, avatarURL)
		if err != nil {
			return domain.WebhookRef{}, fmt.Errorf("webhook avatar: %w", err)
		}
		avatar = uri
	}

	hook, err := c.api.WebhookCreate(channelID, name, avatar, discordgo.WithContext(ctx))
	if err != nil {
		return domain.WebhookRef{}, wrapREST("create webhook", err, channelID)
	}
	return webhookRef(hook), nil
}

func (c *Client) DeleteWebhook(ctx context.Context, ref domain.WebhookRef) error {
	if err := c.api.WebhookDelete(ref.ID, discordgo.WithContext(ctx)); err != nil {
		if statusOf(err) == http.StatusNotFound {
			c.logger.Debug("Webhook already gone", zap.String("webhook_id", ref.ID))
			return nil
		}
		return wrapREST("delete webhook", err, ref.ChannelID)
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	if _, err := c.api.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return wrapREST("send message", err, channelID)
	}
	return nil
}

func (c *Client) ExecuteWebhook(ctx context.Context, ref domain.WebhookRef, content string) error {
	params := &discordgo.WebhookParams{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if _, err := c.api.WebhookExecute(ref.ID, ref.Token, false, params, discordgo.WithContext(ctx)); err != nil {
		return wrapREST("execute webhook", err, ref.ChannelID)
	}
	return nil
}

func channelInfo(ch *discordgo.Channel) domain.ChannelInfo {
	return domain.ChannelInfo{
		ID:      ch.ID,
		GuildID: ch.GuildID,
		Kind:    adapter.ChannelKindOf(ch.Type),
	}
}

func webhookRef(h *discordgo.Webhook) domain.WebhookRef {
	ref := domain.WebhookRef{
		ID:        h.ID,
		ChannelID: h.ChannelID,
		Name:      h.Name,
		Token:     h.Token,
	}
	if h.User != nil {
		ref.OwnerID = h.User.ID
	}
	return ref
}

func statusOf(err error) int {
	var restErr *discordgo.RESTError
	if stderrors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}

func wrapREST(op string, err error, channelID string) error {
	status := statusOf(err)
	if status == 0 {
		status = http.StatusBadGateway
	}
	return errors.NewAPIError("discord: "+op, status, map[string]any{
		"channel_id": channelID,
	}).WithCause(err)
}
