package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/constants"
	"github.com/kapu/gpt-discord-bot-go/internal/util"
)

// ErrUnavailable is returned while the circuit is open.
var ErrUnavailable = fmt.Errorf("assistant providers are temporarily unavailable")

var (
	statusCodePattern = regexp.MustCompile(`\b(5\d{2})\b`)
	geminiCodePattern = regexp.MustCompile(`"code":\s*(\d{3})`)
	openaiCodePattern = regexp.MustCompile(`^(\d{3})\s`)
)

type ModelManagerConfig struct {
	OpenAIAPIKey   string
	OpenAIModel    string
	GeminiAPIKey   string
	GeminiModel    string
	EnableFallback bool
}

// ModelManager calls the primary provider and, on failure, the fallback.
// Service-side failures (5xx, timeouts, rate limits) feed a circuit breaker.
type ModelManager struct {
	primary        Provider
	fallback       Provider
	circuitBreaker *util.CircuitBreaker
	logger         *zap.Logger
}

// NewModelManagerFromConfig prefers OpenAI as primary and Gemini as
// fallback; with one key configured that provider runs alone.
func NewModelManagerFromConfig(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	var providers []Provider

	if p := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger); p != nil {
		providers = append(providers, p)
	}
	gemini, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		return nil, err
	}
	if gemini != nil && (cfg.EnableFallback || len(providers) == 0) {
		providers = append(providers, gemini)
	}

	switch len(providers) {
	case 0:
		return nil, fmt.Errorf("no assistant provider configured")
	case 1:
		logger.Info("Assistant provider configured", zap.String("primary", providers[0].Name()))
		return NewModelManager(providers[0], nil, logger), nil
	default:
		logger.Info("Assistant providers configured",
			zap.String("primary", providers[0].Name()),
			zap.String("fallback", providers[1].Name()),
		)
		return NewModelManager(providers[0], providers[1], logger), nil
	}
}

func NewModelManager(primary, fallback Provider, logger *zap.Logger) *ModelManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	mm := &ModelManager{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
	mm.circuitBreaker = util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)
	return mm
}

func (mm *ModelManager) Generate(ctx context.Context, req Request) (Result, error) {
	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		mm.logger.Warn("Assistant unavailable (circuit open)",
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
		)
		return Result{}, ErrUnavailable
	}

	if req.MaxOutputTokens <= 0 {
		req.MaxOutputTokens = constants.AssistantConfig.MaxOutputTokens
	}
	if req.Temperature <= 0 {
		req.Temperature = constants.AssistantConfig.Temperature
	}

	result, primaryErr := mm.invoke(ctx, mm.primary, req)
	if primaryErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return result, nil
	}

	if mm.fallback == nil {
		mm.recordFailure(primaryErr)
		return Result{}, primaryErr
	}

	mm.logger.Warn("Primary provider failed, trying fallback",
		zap.String("primary", mm.primary.Name()),
		zap.Error(primaryErr),
	)

	result, fallbackErr := mm.invoke(ctx, mm.fallback, req)
	if fallbackErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return result, nil
	}

	mm.recordFailure(primaryErr)
	mm.recordFailure(fallbackErr)
	return Result{}, fallbackErr
}

func (mm *ModelManager) invoke(ctx context.Context, provider Provider, req Request) (Result, error) {
	if provider == nil {
		return Result{}, fmt.Errorf("model provider is not configured")
	}
	return provider.Generate(ctx, req)
}

func (mm *ModelManager) recordFailure(err error) {
	if !isServiceFailure(err) {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	primaryOK := mm.primary != nil && mm.primary.Ping(ctx)
	fallbackOK := mm.fallback != nil && mm.fallback.Ping(ctx)

	mm.logger.Info("Assistant health check",
		zap.Bool("primary", primaryOK),
		zap.Bool("fallback", fallbackOK),
	)
	return primaryOK || fallbackOK
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return true
	}
	if isRateLimitError(err) {
		return true
	}
	if statusCodePattern.MatchString(msg) {
		return true
	}
	for _, pattern := range []*regexp.Regexp{geminiCodePattern, openaiCodePattern} {
		if matches := pattern.FindStringSubmatch(msg); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return code >= 500 && code < 600
			}
		}
	}
	return false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}
	for _, pattern := range []*regexp.Regexp{geminiCodePattern, openaiCodePattern} {
		if matches := pattern.FindStringSubmatch(msg); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return code == 429
			}
		}
	}
	return false
}
