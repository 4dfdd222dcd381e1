package app

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/adapter"
	"github.com/kapu/gpt-discord-bot-go/internal/bot"
	"github.com/kapu/gpt-discord-bot-go/internal/command"
	"github.com/kapu/gpt-discord-bot-go/internal/config"
	"github.com/kapu/gpt-discord-bot-go/internal/constants"
	"github.com/kapu/gpt-discord-bot-go/internal/discord"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/service/assistant"
	"github.com/kapu/gpt-discord-bot-go/internal/service/cache"
	"github.com/kapu/gpt-discord-bot-go/internal/service/channel"
	"github.com/kapu/gpt-discord-bot-go/internal/service/database"
	"github.com/kapu/gpt-discord-bot-go/internal/service/lock"
	"github.com/kapu/gpt-discord-bot-go/internal/service/prompt"
	"github.com/kapu/gpt-discord-bot-go/internal/service/store"
	"github.com/kapu/gpt-discord-bot-go/internal/service/template"
	"github.com/kapu/gpt-discord-bot-go/internal/service/webhook"
)

// Container bundles assembled services for constructing runtime components like Bot.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	botDeps *bot.Dependencies
}

// NewBot instantiates a bot using the pre-built dependency graph.
func (c *Container) NewBot() (*bot.Bot, error) {
	if c == nil || c.botDeps == nil {
		return nil, fmt.Errorf("bot dependencies not initialized")
	}
	return bot.NewBot(c.botDeps)
}

// Build assembles all infrastructure services and returns a container capable of
// creating fully-wired bots. Connections are opened here so that bot.NewBot
// only wires event handlers.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Database
	db, err := database.Open(ctx, database.Config{
		Driver:     cfg.Database.Driver,
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Database:   cfg.Database.Database,
		SSLMode:    cfg.Database.SSLMode,
		SQLitePath: cfg.Database.SQLitePath,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	closers = append(closers, func() {
		_ = db.Close()
	})
	if cfg.Database.AutoMigrate {
		if err := db.MigrateUp(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	repos := store.New(db, logger)

	// Cache tiers and channel locks
	local, err := cache.NewLocalCache(cfg.Cache.LocalMaxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}
	closers = append(closers, local.Close)

	locker := lock.Chain{lock.NewKeyedMutex()}
	var (
		redisSvc *cache.CacheService
		l2       cache.Store
	)
	if cfg.Redis.Enabled {
		redisSvc, err = cache.NewCacheService(ctx, cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Warn("Redis unavailable, running with in-process cache and locks only", zap.Error(err))
			redisSvc = nil
			err = nil
		} else {
			closers = append(closers, func() {
				_ = redisSvc.Close()
			})
			l2 = redisSvc
			locker = append(locker, lock.NewRedisLocker(redisSvc.GetRedisClient(), constants.CacheKeys.ChannelLockPrefix, cfg.Cache.LockTTL, logger))
		}
	}
	templateCache := cache.NewTieredCache(local, l2, constants.CacheTTL.TemplateLocal, logger)

	templateTTL := cfg.Cache.TemplateTTL
	if templateTTL <= 0 {
		templateTTL = constants.CacheTTL.TemplateCatalog
	}

	// Domain services
	catalog := template.NewCatalog(repos.Templates, templateCache, templateTTL, logger)
	prompts := prompt.NewManager(repos.Prompts, catalog, logger)
	flags := channel.NewFlagManager(repos.Channels, logger)

	// Discord
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	client := discord.NewClient(session, discord.NewAvatarFetcher(nil), logger)
	reconciler := webhook.NewReconciler(domain.WebhookSettings{
		Name:      cfg.Webhook.Name,
		AvatarURL: cfg.Webhook.ImgURL,
	}, client, locker, cfg.Bot.WebhookFanout, logger)

	// Commands
	formatter := adapter.NewResponseFormatter()
	cmdDeps := &command.Dependencies{
		Prompts:   prompts,
		Templates: catalog,
		Channels:  flags,
		Webhooks:  reconciler,
		Formatter: formatter,
		Logger:    logger,
	}
	registry := command.NewRegistry()
	registry.Register(command.NewFixedPromptsCommand(cmdDeps))
	registry.Register(command.NewGptChannelsCommand(cmdDeps))
	registry.Register(command.NewWebhooksCommand(cmdDeps))
	dispatcher := command.NewSequentialDispatcher(registry, command.NormalizeSlashCommand, formatter, cfg.Bot.CommandTimeout, logger)

	logger.Info("Commands registered", zap.Strings("commands", registry.Names()))

	deps := &bot.Dependencies{
		Config:     cfg,
		Logger:     logger,
		Session:    session,
		Channels:   client,
		Dispatcher: dispatcher,
		Database:   db,
		Cache:      redisSvc,
		Local:      local,
	}

	// Assistant
	if cfg.Bot.EnableAssistant {
		models, err := assistant.NewModelManagerFromConfig(ctx, assistant.ModelManagerConfig{
			OpenAIAPIKey:   cfg.OpenAI.APIKey,
			OpenAIModel:    cfg.OpenAI.Model,
			GeminiAPIKey:   cfg.Gemini.APIKey,
			GeminiModel:    cfg.Gemini.Model,
			EnableFallback: cfg.Gemini.EnableFallback,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create model manager: %w", err)
		}
		deps.Assistant = assistant.NewResponder(flags, prompts, models, reconciler, client, cfg.Bot.MaxReplyLength, logger)
	}

	return &Container{
		Config:  cfg,
		Logger:  logger,
		botDeps: deps,
	}, nil
}
