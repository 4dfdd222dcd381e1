package discord

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapu/gpt-discord-bot-go/internal/adapter"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestAvatarDataURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/typed.png":
			w.Header().Set("Content-Type", "image/png; charset=binary")
			_, _ = w.Write(pngHeader)
		case "/sniffed":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pngHeader)
		case "/text":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("hello"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := NewAvatarFetcher(srv.Client())
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)

	uri, err := fetcher.DataURI(context.Background(), srv.URL+"/typed.png")
	require.NoError(t, err)
	assert.Equal(t, want, uri)

	uri, err = fetcher.DataURI(context.Background(), srv.URL+"/sniffed")
	require.NoError(t, err)
	assert.Equal(t, want, uri)

	_, err = fetcher.DataURI(context.Background(), srv.URL+"/text")
	assert.True(t, errors.Is(err, errors.ErrAPI))

	_, err = fetcher.DataURI(context.Background(), srv.URL+"/missing")
	assert.True(t, errors.Is(err, errors.ErrAPI))
}

func TestAvatarSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(append(pngHeader, make([]byte, 64)...))
	}))
	defer srv.Close()

	fetcher := NewAvatarFetcher(srv.Client())
	fetcher.maxBytes = 16

	_, err := fetcher.DataURI(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

type fakeREST struct {
	channels  map[string]*discordgo.Channel
	webhooks  []*discordgo.Webhook
	created   []string
	avatars   []string
	deleteErr error
	executed  []*discordgo.WebhookParams
	sent      []string
}

func (f *fakeREST) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if ch, ok := f.channels[channelID]; ok {
		return ch, nil
	}
	return nil, &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
}

func (f *fakeREST) ChannelWebhooks(string, ...discordgo.RequestOption) ([]*discordgo.Webhook, error) {
	return f.webhooks, nil
}

func (f *fakeREST) WebhookCreate(channelID, name, avatar string, _ ...discordgo.RequestOption) (*discordgo.Webhook, error) {
	f.created = append(f.created, name)
	f.avatars = append(f.avatars, avatar)
	return &discordgo.Webhook{ID: "new", ChannelID: channelID, Name: name, Token: "tok", User: &discordgo.User{ID: "bot"}}, nil
}

func (f *fakeREST) WebhookDelete(string, ...discordgo.RequestOption) error {
	return f.deleteErr
}

func (f *fakeREST) WebhookExecute(_, _ string, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.executed = append(f.executed, data)
	return nil, nil
}

func (f *fakeREST) ChannelMessageSend(_, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, content)
	return &discordgo.Message{Content: content}, nil
}

type fakeState map[string]*discordgo.Channel

func (s fakeState) Channel(channelID string) (*discordgo.Channel, error) {
	if ch, ok := s[channelID]; ok {
		return ch, nil
	}
	return nil, discordgo.ErrStateNotFound
}

func TestClientChannelUsesStateThenREST(t *testing.T) {
	rest := &fakeREST{channels: map[string]*discordgo.Channel{
		"rest": {ID: "rest", GuildID: "g1", Type: discordgo.ChannelTypeGuildNews},
	}}
	state := fakeState{"cached": {ID: "cached", GuildID: "g1", Type: discordgo.ChannelTypeGuildText}}
	client := newClient(rest, state, nil, nil)

	info, err := client.Channel(context.Background(), "cached")
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelKindGuildText, info.Kind)

	info, err = client.Channel(context.Background(), "rest")
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelKindGuildNews, info.Kind)

	_, err = client.Channel(context.Background(), "missing")
	require.Error(t, err)
	var apiErr *errors.BotError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientWebhooks(t *testing.T) {
	rest := &fakeREST{webhooks: []*discordgo.Webhook{
		{ID: "w1", ChannelID: "c1", Name: "Helper", User: &discordgo.User{ID: "other"}},
		nil,
		{ID: "w2", ChannelID: "c1", Name: "Helper"},
	}}
	client := newClient(rest, nil, nil, nil)

	refs, err := client.FetchWebhooks(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "other", refs[0].OwnerID)
	assert.Empty(t, refs[1].OwnerID)

	ref, err := client.CreateWebhook(context.Background(), "c1", "Helper", "")
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookRef{ID: "new", ChannelID: "c1", Name: "Helper", OwnerID: "bot", Token: "tok"}, ref)
	assert.Equal(t, []string{""}, rest.avatars)

	rest.deleteErr = &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	assert.NoError(t, client.DeleteWebhook(context.Background(), ref), "already deleted webhooks count as removed")

	rest.deleteErr = &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	err = client.DeleteWebhook(context.Background(), ref)
	assert.True(t, errors.Is(err, errors.ErrAPI))
}

func TestClientCreateWebhookWithAvatar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	rest := &fakeREST{}
	client := newClient(rest, nil, NewAvatarFetcher(srv.Client()), nil)

	_, err := client.CreateWebhook(context.Background(), "c1", "Helper", srv.URL+"/a.png")
	require.NoError(t, err)
	require.Len(t, rest.avatars, 1)
	assert.True(t, strings.HasPrefix(rest.avatars[0], "data:image/png;base64,"))
}

func TestClientDelivery(t *testing.T) {
	rest := &fakeREST{}
	client := newClient(rest, nil, nil, nil)

	require.NoError(t, client.SendMessage(context.Background(), "c1", "hi"))
	require.NoError(t, client.ExecuteWebhook(context.Background(), domain.WebhookRef{ID: "w1", Token: "t"}, "hello"))

	assert.Equal(t, []string{"hi"}, rest.sent)
	require.Len(t, rest.executed, 1)
	assert.Equal(t, "hello", rest.executed[0].Content)
	assert.NotNil(t, rest.executed[0].AllowedMentions)
}

type fakeInteractionAPI struct {
	responses []*discordgo.InteractionResponse
	edits     []string
}

func (f *fakeInteractionAPI) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeInteractionAPI) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, *edit.Content)
	return nil, nil
}

func TestInteractionResponderDeferThenReplyEdits(t *testing.T) {
	api := &fakeInteractionAPI{}
	r := NewInteractionResponder(api, &discordgo.Interaction{ChannelID: "c1"})

	require.NoError(t, r.Defer(context.Background(), true))
	require.NoError(t, r.Defer(context.Background(), true))
	require.NoError(t, r.Reply(context.Background(), "done", true))

	require.Len(t, api.responses, 1, "an interaction is acknowledged once")
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, api.responses[0].Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, api.responses[0].Data.Flags)
	assert.Equal(t, []string{"done"}, api.edits)
}

func TestInteractionResponderDirectReply(t *testing.T) {
	api := &fakeInteractionAPI{}
	r := NewInteractionResponder(api, &discordgo.Interaction{ChannelID: "c1"})

	require.NoError(t, r.Reply(context.Background(), strings.Repeat("x", 2500), false))

	require.Len(t, api.responses, 1)
	resp := api.responses[0]
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlags(0), resp.Data.Flags)
	assert.LessOrEqual(t, len([]rune(resp.Data.Content)), 2000)
}

func TestApplicationCommandsMatchParser(t *testing.T) {
	cmds := ApplicationCommands()
	require.Len(t, cmds, 3)

	for _, cmd := range cmds {
		require.NotNil(t, cmd.DefaultMemberPermissions)
		for _, path := range leafPaths(cmd.Name, cmd.Options) {
			data := dataFor(path)
			parsed := adapter.ParseInteraction(data)
			assert.NotEqual(t, domain.CommandUnknown, parsed.Type, "path %q must resolve", strings.Join(path, " "))
		}
	}

	set := cmds[0].Options[0]
	require.Equal(t, "set", set.Name)
	assert.Equal(t, domain.MaxPromptLength, set.Options[0].MaxLength)
}

func leafPaths(prefix string, opts []*discordgo.ApplicationCommandOption) [][]string {
	var out [][]string
	for _, opt := range opts {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionSubCommandGroup:
			for _, p := range leafPaths(opt.Name, opt.Options) {
				out = append(out, append([]string{prefix}, p...))
			}
		case discordgo.ApplicationCommandOptionSubCommand:
			out = append(out, []string{prefix, opt.Name})
		}
	}
	return out
}

func dataFor(path []string) discordgo.ApplicationCommandInteractionData {
	data := discordgo.ApplicationCommandInteractionData{Name: path[0]}
	var leaf *discordgo.ApplicationCommandInteractionDataOption
	for i := len(path) - 1; i >= 1; i-- {
		typ := discordgo.ApplicationCommandOptionSubCommand
		var children []*discordgo.ApplicationCommandInteractionDataOption
		if leaf != nil {
			typ = discordgo.ApplicationCommandOptionSubCommandGroup
			children = []*discordgo.ApplicationCommandInteractionDataOption{leaf}
		}
		leaf = &discordgo.ApplicationCommandInteractionDataOption{Name: path[i], Type: typ, Options: children}
	}
	if leaf != nil {
		data.Options = []*discordgo.ApplicationCommandInteractionDataOption{leaf}
	}
	return data
}
