package domain

// WebhookRef is a webhook as seen on the remote platform. It is never
// persisted locally.
type WebhookRef struct {
	ID        string
	ChannelID string
	Name      string
	OwnerID   string
	Token     string
}

func (w WebhookRef) OwnedBy(userID string) bool {
	return userID != "" && w.OwnerID == userID
}

// WebhookSettings is the static webhook configuration injected into the
// reconciler at construction.
type WebhookSettings struct {
	Name      string
	AvatarURL string
}
