// Package bot runs the Discord gateway loop and routes events to commands and
// the assistant.
package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/command"
	"github.com/kapu/gpt-discord-bot-go/internal/config"
	"github.com/kapu/gpt-discord-bot-go/internal/discord"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/service/cache"
	"github.com/kapu/gpt-discord-bot-go/internal/service/database"
)

// MessageHandler reacts to plain chat messages. It is nil when the assistant
// is disabled.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg domain.IncomingMessage, selfID string) (bool, error)
}

type ChannelResolver interface {
	Channel(ctx context.Context, channelID string) (domain.ChannelInfo, error)
}

type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Session    *discordgo.Session
	Channels   ChannelResolver
	Dispatcher command.Dispatcher
	Assistant  MessageHandler
	Database   *database.Service
	Cache      *cache.CacheService
	Local      *cache.LocalCache
}

type Bot struct {
	deps    *Dependencies
	logger  *zap.Logger
	session *discordgo.Session

	mu       sync.RWMutex
	selfID   string
	removers []func()
}

func NewBot(deps *Dependencies) (*Bot, error) {
	if deps == nil {
		return nil, fmt.Errorf("bot dependencies must not be nil")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("discord session must not be nil")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("command dispatcher must not be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{deps: deps, logger: logger, session: deps.Session}, nil
}

// Start opens the gateway and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.removers = append(b.removers,
		b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
			b.onReady(ctx, s, r)
		}),
		b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			b.onInteraction(ctx, s, i)
		}),
	)
	if b.deps.Assistant != nil {
		b.removers = append(b.removers, b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
			b.onMessage(ctx, m)
		}))
	}

	b.session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages
	if b.deps.Assistant != nil {
		b.session.Identify.Intents |= discordgo.IntentMessageContent
	}

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}

	<-ctx.Done()
	return nil
}

// Shutdown closes the gateway first, then the stores it was using.
func (b *Bot) Shutdown(ctx context.Context) error {
	for _, remove := range b.removers {
		remove()
	}
	b.removers = nil

	var firstErr error
	if err := b.session.Close(); err != nil {
		firstErr = fmt.Errorf("close discord session: %w", err)
	}
	if b.deps.Local != nil {
		b.deps.Local.Close()
	}
	if b.deps.Cache != nil {
		if err := b.deps.Cache.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close cache: %w", err)
		}
	}
	if b.deps.Database != nil {
		if err := b.deps.Database.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}

	select {
	case <-ctx.Done():
		if firstErr == nil {
			firstErr = ctx.Err()
		}
	default:
	}
	return firstErr
}

func (b *Bot) SelfID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selfID
}

func (b *Bot) setSelfID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selfID = id
}

func (b *Bot) onReady(ctx context.Context, s *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	b.setSelfID(r.User.ID)
	b.logger.Info("Discord gateway ready",
		zap.String("user", r.User.Username),
		zap.String("user_id", r.User.ID),
		zap.Int("guilds", len(r.Guilds)),
	)

	cfg := b.deps.Config
	if cfg == nil || !cfg.Discord.RegisterCommands {
		return
	}
	appID := cfg.Discord.ApplicationID
	if appID == "" {
		appID = r.User.ID
	}
	registered, err := s.ApplicationCommandBulkOverwrite(appID, cfg.Discord.GuildID, discord.ApplicationCommands(), discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Error("Failed to register slash commands", zap.Error(err))
		return
	}
	b.logger.Info("Slash commands registered",
		zap.Int("count", len(registered)),
		zap.String("guild_id", cfg.Discord.GuildID),
	)
}

func (b *Bot) onInteraction(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	b.handleInteraction(ctx, i.Interaction, discord.NewInteractionResponder(s, i.Interaction))
}

func (b *Bot) onMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}
	b.handleMessage(ctx, m.Message)
}
