package ai

import (
	"context"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completion is the reply for one gateway call together with the usage it reported.
type Completion struct {
	Text        string
	TotalTokens int
}

// Gateway turns an ordered transcript into the next assistant reply.
type Gateway interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}
