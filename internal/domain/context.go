package domain

import (
	"context"
	"time"
)

// Responder renders the single reply of one command invocation. Defer
// acknowledges the interaction; after it Reply behaves like Edit.
type Responder interface {
	Defer(ctx context.Context, ephemeral bool) error
	Reply(ctx context.Context, content string, ephemeral bool) error
	Edit(ctx context.Context, content string) error
}

type CommandContext struct {
	ChannelID   string
	GuildID     string
	UserID      string
	ChannelKind ChannelKind
	SelfID      string
	Responder   Responder
	Timestamp   time.Time
}

func NewCommandContext(channelID, guildID, userID string, kind ChannelKind, responder Responder) *CommandContext {
	return &CommandContext{
		ChannelID:   channelID,
		GuildID:     guildID,
		UserID:      userID,
		ChannelKind: kind,
		Responder:   responder,
		Timestamp:   time.Now(),
	}
}

func (c *CommandContext) Scope() Scope {
	return NewScope(c.ChannelID, c.UserID, c.GuildID)
}

// IsDirectMessage reports whether the command came from outside a guild.
func (c *CommandContext) IsDirectMessage() bool {
	return c.GuildID == "" || c.ChannelKind == ChannelKindDM || c.ChannelKind == ChannelKindGroupDM
}

// IncomingMessage is a plain chat message observed by the bot.
type IncomingMessage struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	IsBot     bool
	WebhookID string
	Content   string
}

func (m IncomingMessage) Scope() Scope {
	return NewScope(m.ChannelID, m.AuthorID, m.GuildID)
}
