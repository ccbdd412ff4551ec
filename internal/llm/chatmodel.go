package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/vetchat/chatbot-server-go/internal/model"
)

const (
	DefaultGroqBaseURL    = "https://api.groq.com/openai/v1"
	DefaultGroqModel      = "llama-3.3-70b-versatile"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// ChatModelProvider adapts a message-based eino chat model to a single-model Provider.
type ChatModelProvider struct {
	name      string
	modelName string
	chat      einomodel.BaseChatModel
}

func NewChatModelProvider(name, modelName string, chat einomodel.BaseChatModel) *ChatModelProvider {
	return &ChatModelProvider{name: name, modelName: modelName, chat: chat}
}

// NewGroqProvider talks to Groq through its OpenAI-compatible endpoint.
func NewGroqProvider(ctx context.Context, apiKey, baseURL, modelName string) (*ChatModelProvider, error) {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	if modelName == "" {
		modelName = DefaultGroqModel
	}
	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		Model:   modelName,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create groq chat model: %w", err)
	}
	return NewChatModelProvider("groq", modelName, chat), nil
}

func NewClaudeProvider(ctx context.Context, apiKey, modelName string) (*ChatModelProvider, error) {
	if modelName == "" {
		modelName = DefaultAnthropicModel
	}
	chat, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:    apiKey,
		Model:     modelName,
		MaxTokens: 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("create claude chat model: %w", err)
	}
	return NewChatModelProvider("anthropic", modelName, chat), nil
}

func (p *ChatModelProvider) Name() string     { return p.name }
func (p *ChatModelProvider) Models() []string { return []string{p.modelName} }

func (p *ChatModelProvider) Generate(ctx context.Context, modelName string, prompt Prompt) (string, error) {
	opts := []einomodel.Option{einomodel.WithModel(modelName)}
	if prompt.MaxTokens > 0 {
		opts = append(opts, einomodel.WithMaxTokens(prompt.MaxTokens))
	}
	if prompt.Temperature > 0 {
		opts = append(opts, einomodel.WithTemperature(prompt.Temperature))
	}

	resp, err := p.chat.Generate(ctx, toSchemaMessages(prompt), opts...)
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", p.name, err)
	}
	if resp == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Content), nil
}

func toSchemaMessages(p Prompt) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(p.History)+2)
	if p.System != "" {
		msgs = append(msgs, &schema.Message{Role: schema.System, Content: p.System})
	}
	for _, m := range p.History {
		role := schema.Assistant
		if m.Role == model.RoleUser {
			role = schema.User
		}
		msgs = append(msgs, &schema.Message{Role: role, Content: m.Content})
	}
	return append(msgs, &schema.Message{Role: schema.User, Content: p.User})
}
