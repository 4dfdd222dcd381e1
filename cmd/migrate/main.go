package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/config"
	"github.com/kapu/gpt-discord-bot-go/internal/service/database"
	"github.com/kapu/gpt-discord-bot-go/internal/util"
)

var (
	steps   = flag.Int("steps", 1, "Number of migrations to roll back with 'down'")
	timeout = flag.Duration("timeout", 2*time.Minute, "Overall timeout")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: migrate [flags] up|down|version\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, "")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

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

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = db.MigrateUp(ctx)
	case "down":
		err = db.MigrateDown(ctx, *steps)
	case "version":
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("Migration failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}

	version, err := db.MigrationVersion(ctx)
	if err != nil {
		logger.Fatal("Failed to read migration version", zap.Error(err))
	}
	logger.Info("Schema version", zap.Int64("version", version), zap.String("driver", db.Driver()))
}
