package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider calls the Gemini API and falls back across its model list.
type GeminiProvider struct {
	client *genai.Client
	models []string
}

func NewGeminiProvider(ctx context.Context, apiKey string, models []string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, models: models}, nil
}

func (p *GeminiProvider) Name() string     { return "gemini" }
func (p *GeminiProvider) Models() []string { return p.models }

func (p *GeminiProvider) Generate(ctx context.Context, model string, prompt Prompt) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if prompt.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(prompt.MaxTokens)
	}
	if prompt.Temperature > 0 {
		temp := prompt.Temperature
		cfg.Temperature = &temp
	}

	res, err := p.client.Models.GenerateContent(ctx, model, genai.Text(flattenPrompt(prompt)), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return strings.TrimSpace(res.Text()), nil
}

// flattenPrompt renders a prompt as a single "User:/Assistant:" transcript.
// A prompt without a system part is sent as the bare user text.
func flattenPrompt(p Prompt) string {
	if p.System == "" && len(p.History) == 0 {
		return p.User
	}

	var b strings.Builder
	b.WriteString(p.System)
	b.WriteString("\n\nConversation History:\n")
	for _, m := range p.History {
		fmt.Fprintf(&b, "%s: %s\n", roleLabel(m.Role), m.Content)
	}
	fmt.Fprintf(&b, "\nUser: %s\nAssistant:", p.User)
	return b.String()
}
