package llm

import (
	"context"

	"github.com/vetchat/chatbot-server-go/internal/model"
)

// Prompt is a provider-neutral generation request.
type Prompt struct {
	System      string
	History     []model.Message
	User        string
	MaxTokens   int
	Temperature float32
}

// Provider is a hosted text-generation service reachable under one or more model names.
type Provider interface {
	Name() string
	// Models lists candidate models in the order they should be tried.
	Models() []string
	Generate(ctx context.Context, model string, prompt Prompt) (string, error)
}

func roleLabel(role model.MessageRole) string {
	if role == model.RoleUser {
		return "User"
	}
	return "Assistant"
}
