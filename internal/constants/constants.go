package constants

import "time"

var CacheTTL = struct {
	TemplateCatalog time.Duration
	TemplateLocal   time.Duration
}{
	TemplateCatalog: 1 * time.Minute,  // Redis copy of a guild's template list
	TemplateLocal:   15 * time.Second, // in-process copy backfilled from Redis
}

var CacheKeys = struct {
	TemplatePrefix    string
	ChannelLockPrefix string
}{
	TemplatePrefix:    "fixed_prompt_templates:",
	ChannelLockPrefix: "lock:webhook:",
}

var DiscordLimits = struct {
	MessageLength     int
	WebhookNameLength int
	AvatarMaxBytes    int64
}{
	MessageLength:     2000,
	WebhookNameLength: 80,
	AvatarMaxBytes:    8 << 20,
}

var DatabaseConfig = struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}{
	MaxOpenConns:    25,
	MaxIdleConns:    5,
	ConnMaxLifetime: 5 * time.Minute,
	PingTimeout:     5 * time.Second,
}

var LockConfig = struct {
	RetryInterval time.Duration
	DefaultTTL    time.Duration
}{
	RetryInterval: 50 * time.Millisecond,
	DefaultTTL:    30 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,                // 3 consecutive failures open the circuit
	ResetTimeout:        30 * time.Second, // default wait before half-open
	RateLimitTimeout:    10 * time.Minute, // 429 specific wait
	HealthCheckInterval: 5 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var AssistantConfig = struct {
	MaxOutputTokens int
	Temperature     float32
	DefaultSystem   string
	RequestTimeout  time.Duration
}{
	MaxOutputTokens: 1024,
	Temperature:     0.7,
	DefaultSystem:   "You are a helpful assistant in a Discord channel. Keep answers concise.",
	RequestTimeout:  60 * time.Second,
}

var HTTPConfig = struct {
	AvatarTimeout time.Duration
	UserAgent     string
}{
	AvatarTimeout: 10 * time.Second,
	UserAgent:     "gpt-discord-bot-go/1.0",
}
