// Package webhook keeps exactly one bot-owned, named webhook per channel.
package webhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/constants"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/service/lock"
	"github.com/kapu/gpt-discord-bot-go/internal/util"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

// Platform is the remote side of reconciliation.
type Platform interface {
	Channel(ctx context.Context, channelID string) (domain.ChannelInfo, error)
	FetchWebhooks(ctx context.Context, channelID string) ([]domain.WebhookRef, error)
	CreateWebhook(ctx context.Context, channelID, name, avatarURL string) (domain.WebhookRef, error)
	DeleteWebhook(ctx context.Context, ref domain.WebhookRef) error
}

type EnsureResult struct {
	Webhook        domain.WebhookRef
	Created        bool
	AlreadyPresent bool
	RemovedForeign int
}

type Reconciler struct {
	settings    domain.WebhookSettings
	platform    Platform
	locker      lock.Locker
	concurrency int
	logger      *zap.Logger
}

func NewReconciler(settings domain.WebhookSettings, platform Platform, locker lock.Locker, concurrency int, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	settings.Name = strings.TrimSpace(settings.Name)
	settings.AvatarURL = strings.TrimSpace(settings.AvatarURL)
	return &Reconciler{
		settings:    settings,
		platform:    platform,
		locker:      locker,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (r *Reconciler) Settings() domain.WebhookSettings {
	return r.settings
}

// Ensure leaves exactly one webhook named Settings().Name owned by selfID in
// channelID. Same-named webhooks of other owners are deleted first.
func (r *Reconciler) Ensure(ctx context.Context, channelID, selfID string) (EnsureResult, error) {
	if err := r.validate(); err != nil {
		return EnsureResult{}, err
	}
	if err := r.checkCapability(ctx, channelID); err != nil {
		return EnsureResult{}, err
	}

	release, err := r.locker.Lock(ctx, channelID)
	if err != nil {
		return EnsureResult{}, fmt.Errorf("lock channel %s: %w", channelID, err)
	}
	defer release()

	hooks, err := r.platform.FetchWebhooks(ctx, channelID)
	if err != nil {
		return EnsureResult{}, err
	}

	var (
		result  EnsureResult
		kept    bool
		discard []domain.WebhookRef
		foreign int
	)
	for _, h := range hooks {
		if h.Name != r.settings.Name {
			continue
		}
		switch {
		case h.OwnedBy(selfID) && !kept:
			kept = true
			result.Webhook = h
			result.AlreadyPresent = true
		case h.OwnedBy(selfID):
			// a duplicate left behind by an earlier race
			discard = append(discard, h)
		default:
			foreign++
			discard = append(discard, h)
		}
	}

	if err := r.deleteAll(ctx, discard); err != nil {
		return EnsureResult{}, err
	}
	result.RemovedForeign = foreign

	if !kept {
		avatar := ""
		if util.IsValidHTTPURL(r.settings.AvatarURL) {
			avatar = r.settings.AvatarURL
		} else if r.settings.AvatarURL != "" {
			r.logger.Warn("Ignoring malformed webhook avatar URL", zap.String("url", r.settings.AvatarURL))
		}

		created, err := r.platform.CreateWebhook(ctx, channelID, r.settings.Name, avatar)
		if err != nil {
			return EnsureResult{}, err
		}
		result.Webhook = created
		result.Created = true
	}

	r.logger.Info("Webhook ensured",
		zap.String("channel_id", channelID),
		zap.Bool("created", result.Created),
		zap.Int("removed_foreign", result.RemovedForeign),
		zap.Int("removed_total", len(discard)),
	)
	return result, nil
}

// Remove deletes every webhook named Settings().Name owned by selfID and
// returns how many were deleted. None is NotFound.
func (r *Reconciler) Remove(ctx context.Context, channelID, selfID string) (int, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	if err := r.checkCapability(ctx, channelID); err != nil {
		return 0, err
	}

	release, err := r.locker.Lock(ctx, channelID)
	if err != nil {
		return 0, fmt.Errorf("lock channel %s: %w", channelID, err)
	}
	defer release()

	hooks, err := r.platform.FetchWebhooks(ctx, channelID)
	if err != nil {
		return 0, err
	}

	var owned []domain.WebhookRef
	for _, h := range hooks {
		if h.Name == r.settings.Name && h.OwnedBy(selfID) {
			owned = append(owned, h)
		}
	}
	if len(owned) == 0 {
		return 0, errors.NewNotFoundError("no webhook to remove", "webhook")
	}

	if err := r.deleteAll(ctx, owned); err != nil {
		return 0, err
	}

	r.logger.Info("Webhook removed", zap.String("channel_id", channelID), zap.Int("count", len(owned)))
	return len(owned), nil
}

// Find returns the self-owned webhook of channelID without modifying anything.
func (r *Reconciler) Find(ctx context.Context, channelID, selfID string) (domain.WebhookRef, bool, error) {
	if r.settings.Name == "" {
		return domain.WebhookRef{}, false, nil
	}
	hooks, err := r.platform.FetchWebhooks(ctx, channelID)
	if err != nil {
		return domain.WebhookRef{}, false, err
	}
	for _, h := range hooks {
		if h.Name == r.settings.Name && h.OwnedBy(selfID) {
			return h, true, nil
		}
	}
	return domain.WebhookRef{}, false, nil
}

func (r *Reconciler) validate() error {
	if r.settings.Name == "" {
		return errors.NewValidationError("webhook name is not configured", "WEBHOOK_NAME", "")
	}
	if n := util.RuneLength(r.settings.Name); n > constants.DiscordLimits.WebhookNameLength {
		return errors.NewValidationError(
			fmt.Sprintf("webhook name is %d characters, limit is %d", n, constants.DiscordLimits.WebhookNameLength),
			"WEBHOOK_NAME", r.settings.Name,
		)
	}
	return nil
}

func (r *Reconciler) checkCapability(ctx context.Context, channelID string) error {
	info, err := r.platform.Channel(ctx, channelID)
	if err != nil {
		return err
	}
	if !info.Kind.SupportsWebhooks() {
		return errors.NewRemoteCapabilityError(channelID, info.Kind.String())
	}
	return nil
}

func (r *Reconciler) deleteAll(ctx context.Context, refs []domain.WebhookRef) error {
	if len(refs) == 0 {
		return nil
	}

	p := pool.New().WithMaxGoroutines(r.concurrency).WithErrors()
	for _, ref := range refs {
		p.Go(func() error {
			if err := r.platform.DeleteWebhook(ctx, ref); err != nil {
				r.logger.Warn("Webhook delete failed",
					zap.String("webhook_id", ref.ID),
					zap.String("channel_id", ref.ChannelID),
					zap.Error(err),
				)
				return err
			}
			return nil
		})
	}
	return p.Wait()
}
