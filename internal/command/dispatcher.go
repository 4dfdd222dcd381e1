package command

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/adapter"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
)

// CommandEvent is one parsed invocation waiting for dispatch.
type CommandEvent struct {
	Type   domain.CommandType
	Params map[string]any
}

type Dispatcher interface {
	Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...CommandEvent) (int, error)
}

// NormalizeFunc converts a domain command type plus params into the registry key
// and normalized parameter map used for execution.
type NormalizeFunc func(domain.CommandType, map[string]any) (string, map[string]any)

// NormalizeSlashCommand routes each CommandType to the handler of its
// top-level slash command and records the type under ParamAction.
func NormalizeSlashCommand(cmdType domain.CommandType, params map[string]any) (string, map[string]any) {
	params[ParamAction] = cmdType
	switch cmdType {
	case domain.CommandFixedPromptSet, domain.CommandFixedPromptRemove, domain.CommandFixedPromptView,
		domain.CommandTemplateView, domain.CommandTemplateSelect:
		return adapter.CommandNameFixedPrompts, params
	case domain.CommandGptChannelAdd, domain.CommandGptChannelRemove:
		return adapter.CommandNameGptChannels, params
	case domain.CommandWebhookAdd, domain.CommandWebhookRemove:
		return adapter.CommandNameWebhooks, params
	default:
		return "", params
	}
}

type sequentialDispatcher struct {
	registry  *Registry
	normalize NormalizeFunc
	formatter *adapter.ResponseFormatter
	timeout   time.Duration
	logger    *zap.Logger
}

// NewSequentialDispatcher creates a dispatcher that executes command events in
// the order they are received. Each event runs under its own timeout and a
// panicking handler is answered with a generic failure reply.
func NewSequentialDispatcher(registry *Registry, normalize NormalizeFunc, formatter *adapter.ResponseFormatter, timeout time.Duration, logger *zap.Logger) Dispatcher {
	return &sequentialDispatcher{
		registry:  registry,
		normalize: normalize,
		formatter: formatter,
		timeout:   timeout,
		logger:    logger,
	}
}

func (d *sequentialDispatcher) Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...CommandEvent) (int, error) {
	if d == nil || d.registry == nil || d.normalize == nil {
		return 0, nil
	}

	executed := 0
	for _, event := range events {
		if !event.Type.IsValid() {
			continue
		}

		key, params := d.normalize(event.Type, cloneParams(event.Params))
		if err := d.execute(ctx, cmdCtx, event.Type, key, params); err != nil {
			return executed, err
		}
		executed++
	}
	return executed, nil
}

func (d *sequentialDispatcher) execute(ctx context.Context, cmdCtx *domain.CommandContext, cmdType domain.CommandType, key string, params map[string]any) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() {
		err = d.registry.Execute(ctx, cmdCtx, key, params)
	})

	if recovered := catcher.Recovered(); recovered != nil {
		d.logger.Error("Command panicked",
			zap.String("command", cmdType.String()),
			zap.Any("panic", recovered.Value),
			zap.ByteString("stack", recovered.Stack),
		)
		if cmdCtx.Responder != nil {
			if replyErr := cmdCtx.Responder.Reply(ctx, d.formatter.TryAgainLater(), true); replyErr != nil {
				d.logger.Warn("Failed to answer panicked command", zap.Error(replyErr))
			}
		}
		return recovered.AsError()
	}
	return err
}

func cloneParams(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	clone := make(map[string]any, len(src))
	for k, v := range src {
		clone[k] = v
	}
	return clone
}
