package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/config"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/service/cache"
	"github.com/kapu/gpt-discord-bot-go/internal/service/database"
	"github.com/kapu/gpt-discord-bot-go/internal/service/store"
	"github.com/kapu/gpt-discord-bot-go/internal/service/template"
	"github.com/kapu/gpt-discord-bot-go/internal/util"
)

// CLI flags
var (
	file    = flag.String("file", "templates.json", "JSON array of templates to import")
	dryRun  = flag.Bool("dry-run", false, "Validate the file without writing to the database")
	replace = flag.Bool("replace", false, "Delete each listed guild's templates before importing")
	timeout = flag.Duration("timeout", time.Minute, "Overall timeout")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, "")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("Failed to open template file", zap.String("file", *file), zap.Error(err))
	}
	templates, err := template.ParseEntries(f)
	f.Close()
	if err != nil {
		logger.Fatal("Failed to parse template file", zap.Error(err))
	}
	logger.Info("Loaded templates", zap.String("file", *file), zap.Int("count", len(templates)))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *dryRun {
		// validation runs against a writer that discards the batch
		catalog := template.NewCatalog(nil, nil, 0, logger)
		if _, err := catalog.Import(ctx, dryRunWriter{}, templates, *replace); err != nil {
			logger.Fatal("Template file is invalid", zap.Error(err))
		}
		logger.Info("[DRY RUN] Template file is valid, nothing written")
		return
	}

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
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.MigrateUp(ctx); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	// Only the shared Redis tier is worth invalidating from a separate process.
	var l2 cache.Store
	if cfg.Redis.Enabled {
		redisSvc, err := cache.NewCacheService(ctx, cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Warn("Redis unavailable, cached catalogs will expire on their own", zap.Error(err))
		} else {
			defer redisSvc.Close()
			l2 = redisSvc
		}
	}

	repos := store.New(db, logger)
	catalog := template.NewCatalog(repos.Templates, l2, cfg.Cache.TemplateTTL, logger)
	created, err := catalog.Import(ctx, repos.Templates, templates, *replace)
	if err != nil {
		logger.Fatal("Template import failed", zap.Error(err))
	}

	logger.Info("Template import complete",
		zap.Int("imported", len(created)),
		zap.Bool("replace", *replace),
		zap.Duration("catalog_ttl", cfg.Cache.TemplateTTL),
	)
}

type dryRunWriter struct{}

func (dryRunWriter) Import(_ context.Context, templates []domain.Template, _ bool) ([]domain.Template, error) {
	return templates, nil
}
