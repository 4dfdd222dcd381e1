package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/service/database"
	"github.com/kapu/gpt-discord-bot-go/internal/service/store"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

func newManager(t *testing.T) (*FlagManager, *database.Service) {
	t.Helper()
	db, err := database.OpenMemory(context.Background(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewFlagManager(store.New(db, nil).Channels, zap.NewNop()), db
}

func TestEnableIsIdempotent(t *testing.T) {
	m, db := newManager(t)
	ctx := context.Background()

	for range 2 {
		cfg, err := m.Enable(ctx, "c1", "g1")
		require.NoError(t, err)
		assert.True(t, cfg.IsGptChannel)
	}

	var rows int
	require.NoError(t, db.GetDB().QueryRow("SELECT COUNT(*) FROM channels WHERE channel_id = ?", "c1").Scan(&rows))
	assert.Equal(t, 1, rows)

	enabled, err := m.IsEnabled(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestDisableUnregisteredChannel(t *testing.T) {
	m, db := newManager(t)
	ctx := context.Background()

	_, err := m.Disable(ctx, "c1", "g1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	var rows int
	require.NoError(t, db.GetDB().QueryRow("SELECT COUNT(*) FROM channels").Scan(&rows))
	assert.Zero(t, rows, "disable must not fabricate a row")
}

func TestEnableThenDisable(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Enable(ctx, "c1", "g1")
	require.NoError(t, err)

	cfg, err := m.Disable(ctx, "c1", "g1")
	require.NoError(t, err)
	assert.False(t, cfg.IsGptChannel)

	enabled, err := m.IsEnabled(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = m.IsEnabled(ctx, "never-seen")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestGuildRequired(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Enable(ctx, "c1", "")
	assert.True(t, errors.Is(err, errors.ErrUnsupportedContext))
	_, err = m.Disable(ctx, "c1", "")
	assert.True(t, errors.Is(err, errors.ErrUnsupportedContext))
}

func TestStoreFailure(t *testing.T) {
	m, db := newManager(t)
	require.NoError(t, db.Close())

	_, err := m.Enable(context.Background(), "c1", "g1")
	assert.True(t, errors.Is(err, errors.ErrTransientStore))
}
