package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/adapter"
	"github.com/kapu/gpt-discord-bot-go/internal/command"
	"github.com/kapu/gpt-discord-bot-go/internal/constants"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
)

func (b *Bot) handleInteraction(ctx context.Context, i *discordgo.Interaction, responder domain.Responder) {
	parsed := adapter.ParseInteraction(i.ApplicationCommandData())
	if parsed.Type == domain.CommandUnknown {
		b.logger.Warn("Unknown slash command", zap.String("path", parsed.Path))
		return
	}

	cmdCtx := domain.NewCommandContext(i.ChannelID, i.GuildID, interactionUserID(i), b.channelKind(ctx, i), responder)
	cmdCtx.SelfID = b.SelfID()

	b.logger.Debug("Slash command received",
		zap.String("command", parsed.Type.String()),
		zap.String("channel_id", cmdCtx.ChannelID),
		zap.String("guild_id", cmdCtx.GuildID),
		zap.String("user_id", cmdCtx.UserID),
	)

	if _, err := b.deps.Dispatcher.Publish(ctx, cmdCtx, command.CommandEvent{Type: parsed.Type, Params: parsed.Params}); err != nil {
		b.logger.Error("Slash command dispatch failed",
			zap.String("command", parsed.Type.String()),
			zap.Error(err),
		)
	}
}

// channelKind resolves the invoking channel's type. DMs carry no guild.
func (b *Bot) channelKind(ctx context.Context, i *discordgo.Interaction) domain.ChannelKind {
	if i.GuildID == "" {
		return domain.ChannelKindDM
	}
	if b.deps.Channels == nil {
		return domain.ChannelKindUnresolved
	}
	info, err := b.deps.Channels.Channel(ctx, i.ChannelID)
	if err != nil {
		b.logger.Warn("Failed to resolve channel kind", zap.String("channel_id", i.ChannelID), zap.Error(err))
		return domain.ChannelKindUnresolved
	}
	return info.Kind
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	if b.deps.Assistant == nil {
		return
	}

	msg := domain.IncomingMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		WebhookID: m.WebhookID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.IsBot = m.Author.Bot
	}

	ctx, cancel := context.WithTimeout(ctx, constants.AssistantConfig.RequestTimeout)
	defer cancel()

	if _, err := b.deps.Assistant.HandleMessage(ctx, msg, b.SelfID()); err != nil {
		b.logger.Warn("Assistant reply failed",
			zap.String("channel_id", msg.ChannelID),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
}
