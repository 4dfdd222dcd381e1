package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Discord  DiscordConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Webhook  WebhookConfig
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
	Cache    CacheConfig
	Logging  LoggingConfig
	Bot      BotConfig
}

type DiscordConfig struct {
	Token         string
	ApplicationID string
	// GuildID scopes command registration to one guild; empty registers
	// global commands.
	GuildID          string
	RegisterCommands bool
}

type DatabaseConfig struct {
	Driver      string
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	SQLitePath  string
	AutoMigrate bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type WebhookConfig struct {
	Name   string
	ImgURL string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type GeminiConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type CacheConfig struct {
	TemplateTTL   time.Duration
	LocalMaxBytes int64
	LockTTL       time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

type BotConfig struct {
	CommandTimeout  time.Duration
	EnableAssistant bool
	MaxReplyLength  int
	WebhookFanout   int
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func Load() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadDatabase loads the same environment but validates only the database
// section. Used by the offline CLIs.
func LoadDatabase() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.validateDatabase(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func fromEnv() *Config {
	_ = godotenv.Load()

	return &Config{
		Discord: DiscordConfig{
			Token:            getEnv("DISCORD_TOKEN", ""),
			ApplicationID:    getEnv("DISCORD_APP_ID", ""),
			GuildID:          getEnv("DISCORD_GUILD_ID", ""),
			RegisterCommands: getEnvBool("DISCORD_REGISTER_COMMANDS", true),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			User:        getEnv("POSTGRES_USER", "bot"),
			Password:    getEnv("POSTGRES_PASSWORD", ""),
			Database:    getEnv("POSTGRES_DB", "gpt_discord_bot"),
			SSLMode:     getEnv("POSTGRES_SSLMODE", "disable"),
			SQLitePath:  getEnv("SQLITE_PATH", "data/bot.db"),
			AutoMigrate: getEnvBool("DATABASE_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Webhook: WebhookConfig{
			Name:   strings.TrimSpace(getEnv("WEBHOOK_NAME", "")),
			ImgURL: strings.TrimSpace(getEnv("WEBHOOK_IMG_URL", "")),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EnableFallback: getEnvBool("GEMINI_ENABLE_FALLBACK", true),
		},
		Cache: CacheConfig{
			TemplateTTL:   getEnvDuration("TEMPLATE_CACHE_TTL", time.Minute),
			LocalMaxBytes: int64(getEnvInt("LOCAL_CACHE_MAX_BYTES", 8<<20)),
			LockTTL:       getEnvDuration("CHANNEL_LOCK_TTL", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "logs/bot.log"),
		},
		Bot: BotConfig{
			CommandTimeout:  getEnvDuration("COMMAND_TIMEOUT", 10*time.Second),
			EnableAssistant: getEnvBool("ASSISTANT_ENABLED", true),
			MaxReplyLength:  getEnvInt("ASSISTANT_MAX_REPLY_LENGTH", 2000),
			WebhookFanout:   getEnvInt("WEBHOOK_DELETE_CONCURRENCY", 4),
		},
	}
}

// Validate checks hard requirements only. WEBHOOK_NAME is checked by the
// webhook commands at call time.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if c.Bot.EnableAssistant && c.OpenAI.APIKey == "" && c.Gemini.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY or GEMINI_API_KEY is required when ASSISTANT_ENABLED is true")
	}
	if c.Bot.CommandTimeout <= 0 {
		return fmt.Errorf("COMMAND_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s") or bare seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
