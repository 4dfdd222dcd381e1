package domain

import "fmt"

// Scope identifies at most one active fixed prompt. GuildID is empty for
// direct-message channels.
type Scope struct {
	ChannelID string
	UserID    string
	GuildID   string
}

func NewScope(channelID, userID, guildID string) Scope {
	return Scope{ChannelID: channelID, UserID: userID, GuildID: guildID}
}

func (s Scope) HasGuild() bool {
	return s.GuildID != ""
}

func (s Scope) String() string {
	if s.GuildID == "" {
		return fmt.Sprintf("dm/%s/%s", s.ChannelID, s.UserID)
	}
	return fmt.Sprintf("%s/%s/%s", s.GuildID, s.ChannelID, s.UserID)
}
