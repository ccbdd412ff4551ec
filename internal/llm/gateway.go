package llm

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vetchat/chatbot-server-go/internal/model"
)

type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

type IntentResult struct {
	Intent     model.Intent `json:"intent"`
	Confidence Confidence   `json:"confidence"`
}

// Gateway tries every configured provider model in priority order until one answers.
type Gateway struct {
	providers      []Provider
	attemptTimeout time.Duration
	metrics        *Metrics
}

// NewGateway keeps providers in the given order. metrics may be nil.
func NewGateway(providers []Provider, attemptTimeout time.Duration, metrics *Metrics) *Gateway {
	return &Gateway{
		providers:      providers,
		attemptTimeout: attemptTimeout,
		metrics:        metrics,
	}
}

// Providers lists the configured provider names in priority order.
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.providers))
	for _, p := range g.providers {
		names = append(names, p.Name())
	}
	return names
}

// GenerateResponse answers a general veterinary question with the recent history as context.
func (g *Gateway) GenerateResponse(ctx context.Context, userMessage string, history []model.Message) (string, error) {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	prompt := Prompt{
		System:      systemPrompt,
		History:     history,
		User:        userMessage,
		MaxTokens:   responseMaxTokens,
		Temperature: responseTemperature,
	}

	a, err := g.run(ctx, "response", prompt, nil)
	if err != nil {
		return "", err
	}
	return a.Text, nil
}

// DetectIntent never fails: with no provider reachable it reports general_qa with low confidence.
func (g *Gateway) DetectIntent(ctx context.Context, userMessage string) IntentResult {
	prompt := Prompt{User: intentPrompt(userMessage), MaxTokens: intentMaxTokens}

	a, err := g.run(ctx, "intent", prompt, nil)
	if err != nil {
		return IntentResult{Intent: model.IntentGeneralQA, Confidence: ConfidenceLow}
	}
	if strings.Contains(strings.ToLower(a.Text), string(model.IntentAppointmentBooking)) {
		return IntentResult{Intent: model.IntentAppointmentBooking, Confidence: ConfidenceHigh}
	}
	return IntentResult{Intent: model.IntentGeneralQA, Confidence: ConfidenceHigh}
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractAppointmentInfo merges booking fields found in userMessage into current.
// Any failure leaves current unchanged.
func (g *Gateway) ExtractAppointmentInfo(ctx context.Context, userMessage string, current *model.BookingData) model.BookingData {
	var base model.BookingData
	if current != nil {
		base = *current
	}
	currentJSON, _ := json.MarshalIndent(base, "", "  ")
	prompt := Prompt{User: extractionPrompt(userMessage, string(currentJSON)), MaxTokens: extractionMaxTokens}

	var extracted model.BookingData
	var noJSON bool
	_, err := g.run(ctx, "extraction", prompt, func(text string) error {
		span := jsonObjectPattern.FindString(text)
		if span == "" {
			noJSON = true
			return nil
		}
		parsed, err := parseBookingJSON(span)
		if err != nil {
			return err
		}
		extracted = parsed
		return nil
	})
	if err != nil || noJSON {
		return base
	}
	return base.Merge(extracted)
}

func parseBookingJSON(span string) (model.BookingData, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return model.BookingData{}, err
	}
	field := func(key string) *string {
		switch v := raw[key].(type) {
		case string:
			s := strings.TrimSpace(v)
			if s == "" || strings.EqualFold(s, "null") {
				return nil
			}
			return &s
		case float64:
			s := strconv.FormatFloat(v, 'f', -1, 64)
			return &s
		}
		return nil
	}
	return model.BookingData{
		OwnerName:     field("ownerName"),
		PetName:       field("petName"),
		PhoneNumber:   field("phoneNumber"),
		PreferredDate: field("preferredDate"),
		PreferredTime: field("preferredTime"),
		Notes:         field("notes"),
	}, nil
}

// run makes one attempt per provider model in order. accept may reject a
// response, which counts as an invalid_response failure.
func (g *Gateway) run(ctx context.Context, op string, prompt Prompt, accept func(text string) error) (Attempt, error) {
	for _, p := range g.providers {
		for _, m := range p.Models() {
			if err := ctx.Err(); err != nil {
				return Attempt{}, err
			}

			a := g.attempt(ctx, p, m, prompt)
			if a.OK() && accept != nil {
				if err := accept(a.Text); err != nil {
					a.Err, a.Kind = err, KindInvalidResponse
				}
			}
			g.metrics.observe(a)

			if a.OK() {
				log.Debug().
					Str("op", op).
					Str("provider", a.Provider).
					Str("model", a.Model).
					Dur("latency", a.Latency).
					Msg("llm attempt succeeded")
				return a, nil
			}
			log.Warn().
				Err(a.Err).
				Str("op", op).
				Str("provider", a.Provider).
				Str("model", a.Model).
				Str("kind", string(a.Kind)).
				Msg("llm attempt failed")
		}
	}

	log.Error().Str("op", op).Strs("providers", g.Providers()).Msg("all llm providers failed")
	return Attempt{}, ErrAllProvidersUnavailable
}

func (g *Gateway) attempt(ctx context.Context, p Provider, modelName string, prompt Prompt) Attempt {
	attemptCtx := ctx
	if g.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, g.attemptTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := p.Generate(attemptCtx, modelName, prompt)
	a := Attempt{Provider: p.Name(), Model: modelName, Latency: time.Since(start)}

	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		a.Err, a.Kind = err, classify(err)
		return a
	}
	a.Text = text
	return a
}

// IsUnavailable reports whether err means no provider could answer.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrAllProvidersUnavailable)
}
