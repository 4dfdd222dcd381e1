package domain

import "time"

// MaxPromptLength mirrors the length limit declared on the slash command
// option; Discord counts characters, not bytes.
const MaxPromptLength = 1950

// FixedPrompt is the single active prompt of a Scope. IsTemplate marks text
// copied from a Template at selection time; there is no live reference back.
type FixedPrompt struct {
	ID         int64
	Scope      Scope
	Prompt     string
	IsTemplate bool
	UpdatedAt  time.Time
}

// PromptFields is the mutable part of a FixedPrompt.
type PromptFields struct {
	Prompt     string
	IsTemplate bool
}
