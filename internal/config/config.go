package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var defaultGeminiModels = []string{"gemini-2.0-flash", "gemini-1.5-flash-latest", "gemini-pro"}

type Config struct {
	Port        int    `env:"PORT" envDefault:"5000"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	NatsURL     string `env:"NATS_URL"`
	FrontendURL string `env:"FRONTEND_URL"`
	StaticDir   string `env:"STATIC_DIR" envDefault:"frontend/dist"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	GeminiAPIKey    string   `env:"GEMINI_API_KEY"`
	GeminiModels    []string `env:"GEMINI_MODELS" envSeparator:","`
	GroqAPIKey      string   `env:"GROQ_API_KEY"`
	GroqModel       string   `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	GroqBaseURL     string   `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	AnthropicAPIKey string   `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string   `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`

	LLMAttemptTimeoutSeconds    int `env:"LLM_ATTEMPT_TIMEOUT_SECONDS" envDefault:"30"`
	SessionIdleDays             int `env:"SESSION_IDLE_DAYS" envDefault:"30"`
	SessionSweepIntervalMinutes int `env:"SESSION_SWEEP_INTERVAL_MINUTES" envDefault:"60"`
	ChatRateLimitPerMin         int `env:"CHAT_RATE_LIMIT_PER_MIN" envDefault:"30"`
	ChatLockTTLSeconds          int `env:"CHAT_LOCK_TTL_SECONDS" envDefault:"30"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) LLMAttemptTimeout() time.Duration {
	return time.Duration(c.LLMAttemptTimeoutSeconds) * time.Second
}

func (c *Config) SessionIdleAge() time.Duration {
	return time.Duration(c.SessionIdleDays) * 24 * time.Hour
}

func (c *Config) SessionSweepInterval() time.Duration {
	return time.Duration(c.SessionSweepIntervalMinutes) * time.Minute
}

func (c *Config) ChatLockTTL() time.Duration {
	return time.Duration(c.ChatLockTTLSeconds) * time.Second
}

// AllowedOrigins returns the CORS origins for the widget and demo site.
func (c *Config) AllowedOrigins() []string {
	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	return origins
}

func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" && c.GroqAPIKey == "" && c.AnthropicAPIKey == "" {
		return errors.New("at least one of GEMINI_API_KEY, GROQ_API_KEY or ANTHROPIC_API_KEY must be set")
	}
	if c.SessionIdleDays <= 0 {
		return fmt.Errorf("SESSION_IDLE_DAYS must be positive, got %d", c.SessionIdleDays)
	}
	if c.LLMAttemptTimeoutSeconds <= 0 {
		return fmt.Errorf("LLM_ATTEMPT_TIMEOUT_SECONDS must be positive, got %d", c.LLMAttemptTimeoutSeconds)
	}
	if c.SessionSweepIntervalMinutes <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL_MINUTES must be positive, got %d", c.SessionSweepIntervalMinutes)
	}
	if c.ChatLockTTLSeconds <= 0 {
		return fmt.Errorf("CHAT_LOCK_TTL_SECONDS must be positive, got %d", c.ChatLockTTLSeconds)
	}
	if c.ChatRateLimitPerMin <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT_PER_MIN must be positive, got %d", c.ChatRateLimitPerMin)
	}

	if c.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is empty: primary provider disabled, falling back to secondary providers only")
	}
	if c.NatsURL == "" {
		log.Info().Msg("NATS_URL is empty: appointment events will not be published")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.GeminiModels) == 0 {
		cfg.GeminiModels = append([]string(nil), defaultGeminiModels...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
