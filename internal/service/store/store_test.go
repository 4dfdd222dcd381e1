package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/service/database"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

func newTestStore(t *testing.T) (*Store, *database.Service) {
	t.Helper()
	db, err := database.OpenMemory(context.Background(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, zap.NewNop()), db
}

func countPrompts(t *testing.T, db *database.Service, scope domain.Scope) int {
	t.Helper()
	var n int
	err := db.GetDB().QueryRow(
		"SELECT COUNT(*) FROM fixed_prompts WHERE channel_id = ? AND user_id = ? AND guild_id = ?",
		scope.ChannelID, scope.UserID, scope.GuildID,
	).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestFixedPromptUpsertFindDelete(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	scope := domain.NewScope("c1", "u1", "g1")

	_, ok, err := s.Prompts.FindFirst(ctx, scope)
	require.NoError(t, err)
	assert.False(t, ok)

	first, err := s.Prompts.Upsert(ctx, scope, domain.PromptFields{Prompt: "be terse"})
	require.NoError(t, err)
	assert.Equal(t, scope, first.Scope)
	assert.False(t, first.IsTemplate)
	assert.False(t, first.UpdatedAt.IsZero())

	second, err := s.Prompts.Upsert(ctx, scope, domain.PromptFields{Prompt: "from template", IsTemplate: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "upsert must update the existing row")
	assert.Equal(t, 1, countPrompts(t, db, scope))

	got, ok, err := s.Prompts.FindFirst(ctx, scope)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from template", got.Prompt)
	assert.True(t, got.IsTemplate)

	removed, ok, err := s.Prompts.Delete(ctx, scope)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, removed.ID)

	_, ok, err = s.Prompts.Delete(ctx, scope)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFixedPromptScopesAreIndependent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	guild := domain.NewScope("c1", "u1", "g1")
	dm := domain.NewScope("c1", "u1", "")
	other := domain.NewScope("c1", "u2", "g1")

	_, err := s.Prompts.Upsert(ctx, guild, domain.PromptFields{Prompt: "guild"})
	require.NoError(t, err)
	_, err = s.Prompts.Upsert(ctx, dm, domain.PromptFields{Prompt: "dm"})
	require.NoError(t, err)

	got, ok, err := s.Prompts.FindFirst(ctx, dm)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dm", got.Prompt)

	_, ok, err = s.Prompts.FindFirst(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFixedPromptConcurrentUpsertLeavesOneRow(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	scope := domain.NewScope("c1", "u1", "g1")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Prompts.Upsert(ctx, scope, domain.PromptFields{Prompt: fmt.Sprintf("p%d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, countPrompts(t, db, scope))
}

func TestTemplateFindSortedMany(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	seed := []domain.Template{
		{GuildID: "g1", Name: "second", Message: "m2", Rank: 2},
		{GuildID: "g1", Name: "first", Message: "m1", Rank: 1},
		{GuildID: "g1", Name: "tie-a", Message: "m3", Rank: 3},
		{GuildID: "g1", Name: "tie-b", Message: "m4", Rank: 3},
		{GuildID: "g1", ChannelID: "c1", Name: "channel-only", Message: "m5", Rank: 4},
		{GuildID: "g1", ChannelID: "c2", Name: "elsewhere", Message: "m6", Rank: 0},
		{GuildID: "g2", Name: "other guild", Message: "m7", Rank: 0},
	}
	for _, tmpl := range seed {
		_, err := s.Templates.Create(ctx, tmpl)
		require.NoError(t, err)
	}

	got, err := s.Templates.FindSortedMany(ctx, "g1", "c1")
	require.NoError(t, err)

	names := make([]string, len(got))
	for i, tmpl := range got {
		names[i] = tmpl.Name
	}
	assert.Equal(t, []string{"first", "second", "tie-a", "tie-b", "channel-only"}, names)

	empty, err := s.Templates.FindSortedMany(ctx, "g3", "c1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTemplateImport(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	_, err := s.Templates.Create(ctx, domain.Template{GuildID: "g1", Name: "old", Message: "m0"})
	require.NoError(t, err)

	created, err := s.Templates.Import(ctx, []domain.Template{
		{GuildID: "g1", Name: "a", Message: "m1", Rank: 1},
		{GuildID: "g1", Name: "b", Message: "m2", Rank: 2},
	}, true)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotZero(t, created[0].ID)

	got, err := s.Templates.FindSortedMany(ctx, "g1", "c1")
	require.NoError(t, err)
	require.Len(t, got, 2, "replace must drop the guild's previous templates")
	assert.Equal(t, "a", got[0].Name)

	// a closed pool surfaces as a transient store failure
	require.NoError(t, db.Close())
	_, err = s.Templates.Import(ctx, []domain.Template{{GuildID: "g1", Name: "c", Message: "m3"}}, false)
	assert.True(t, errors.Is(err, errors.ErrTransientStore))
}

func TestChannelUpsertAndUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Channels.UpdateGptChannel(ctx, "c1", false)
	require.NoError(t, err)
	assert.False(t, ok, "update must not create a row")

	cfg, err := s.Channels.UpsertGptChannel(ctx, "c1", "g1", true)
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelConfig{ChannelID: "c1", GuildID: "g1", IsGptChannel: true}, cfg)

	_, err = s.Channels.UpsertGptChannel(ctx, "c1", "g1", true)
	require.NoError(t, err)

	cfg, ok, err = s.Channels.UpdateGptChannel(ctx, "c1", false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, cfg.IsGptChannel)

	found, ok, err := s.Channels.FindFirst(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, found.IsGptChannel)
}

func TestStoreFailureIsTransient(t *testing.T) {
	s, db := newTestStore(t)
	require.NoError(t, db.Close())

	_, err := s.Prompts.Upsert(context.Background(), domain.NewScope("c", "u", "g"), domain.PromptFields{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTransientStore))
}
