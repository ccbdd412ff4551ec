package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("SessionIdleAge converts days to duration", func(t *testing.T) {
		cfg := &Config{SessionIdleDays: 30}
		assert.Equal(t, 30*24*time.Hour, cfg.SessionIdleAge())
	})

	t.Run("LLMAttemptTimeout converts seconds to duration", func(t *testing.T) {
		cfg := &Config{LLMAttemptTimeoutSeconds: 12}
		assert.Equal(t, 12*time.Second, cfg.LLMAttemptTimeout())
	})

	t.Run("AllowedOrigins appends frontend url", func(t *testing.T) {
		cfg := &Config{}
		assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins())

		cfg.FrontendURL = "https://clinic.example.com"
		assert.Contains(t, cfg.AllowedOrigins(), "https://clinic.example.com")
	})
}

func TestLoad(t *testing.T) {
	keys := []string{
		"PORT", "DATABASE_URL", "REDIS_URL", "GEMINI_API_KEY", "GROQ_API_KEY",
		"ANTHROPIC_API_KEY", "GEMINI_MODELS", "LOG_LEVEL", "SESSION_IDLE_DAYS",
		"LLM_ATTEMPT_TIMEOUT_SECONDS", "SESSION_SWEEP_INTERVAL_MINUTES",
		"CHAT_LOCK_TTL_SECONDS", "CHAT_RATE_LIMIT_PER_MIN",
	}
	originalEnv := make(map[string]string, len(keys))
	for _, k := range keys {
		originalEnv[k] = os.Getenv(k)
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	reset := func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	}

	t.Run("loads config with defaults", func(t *testing.T) {
		reset()
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("GEMINI_API_KEY", "gemini-key")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 5000, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-flash-latest", "gemini-pro"}, cfg.GeminiModels)
		assert.Equal(t, "llama-3.3-70b-versatile", cfg.GroqModel)
		assert.Equal(t, 30, cfg.SessionIdleDays)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		reset()
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("GROQ_API_KEY", "groq-key")
		os.Setenv("PORT", "8080")
		os.Setenv("GEMINI_MODELS", "gemini-2.5-flash,gemini-2.0-flash")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash"}, cfg.GeminiModels)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		reset()
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("GEMINI_API_KEY", "gemini-key")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without any provider key", func(t *testing.T) {
		reset()
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	})

	t.Run("rejects non-positive idle age", func(t *testing.T) {
		reset()
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
		os.Setenv("SESSION_IDLE_DAYS", "0")

		_, err := Load()
		assert.Error(t, err)
	})
	for _, key := range []string{
		"LLM_ATTEMPT_TIMEOUT_SECONDS",
		"SESSION_SWEEP_INTERVAL_MINUTES",
		"CHAT_LOCK_TTL_SECONDS",
		"CHAT_RATE_LIMIT_PER_MIN",
	} {
		for _, value := range []string{"0", "-5"} {
			t.Run("rejects "+key+"="+value, func(t *testing.T) {
				reset()
				os.Setenv("DATABASE_URL", "postgres://localhost/test")
				os.Setenv("REDIS_URL", "redis://localhost:6379")
				os.Setenv("GEMINI_API_KEY", "gemini-key")
				os.Setenv(key, value)

				_, err := Load()
				require.Error(t, err)
				assert.Contains(t, err.Error(), key)
			})
		}
	}

	t.Run("defaults keep sweep and lock positive", func(t *testing.T) {
		reset()
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("GEMINI_API_KEY", "gemini-key")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, time.Hour, cfg.SessionSweepInterval())
		assert.Equal(t, 30*time.Second, cfg.ChatLockTTL())
		assert.Equal(t, 30, cfg.ChatRateLimitPerMin)
	})
}
