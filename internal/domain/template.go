package domain

// Template is a guild-owned reusable prompt. ChannelID narrows it to one
// channel; empty means guild-wide. Catalogs are ordered by (Rank, ID).
type Template struct {
	ID        int64  `json:"id"`
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id,omitempty"`
	Name      string `json:"name"`
	Message   string `json:"message"`
	Rank      int64  `json:"rank"`
}
