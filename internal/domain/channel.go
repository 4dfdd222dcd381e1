package domain

// ChannelConfig holds per-channel bot settings. A missing row is equivalent
// to IsGptChannel == false.
type ChannelConfig struct {
	ChannelID    string
	GuildID      string
	IsGptChannel bool
}

// ChannelKind is the platform channel type reduced to what this bot cares about.
type ChannelKind string

const (
	ChannelKindGuildText  ChannelKind = "guild_text"
	ChannelKindGuildNews  ChannelKind = "guild_news"
	ChannelKindThread     ChannelKind = "thread"
	ChannelKindVoice      ChannelKind = "voice"
	ChannelKindDM         ChannelKind = "dm"
	ChannelKindGroupDM    ChannelKind = "group_dm"
	ChannelKindOther      ChannelKind = "other"
	ChannelKindUnresolved ChannelKind = "unresolved"
)

func (k ChannelKind) String() string {
	return string(k)
}

// SupportsWebhooks reports whether a bot may create webhooks in channels of
// this kind.
func (k ChannelKind) SupportsWebhooks() bool {
	switch k {
	case ChannelKindGuildText, ChannelKindGuildNews:
		return true
	default:
		return false
	}
}

type ChannelInfo struct {
	ID      string
	GuildID string
	Kind    ChannelKind
}
