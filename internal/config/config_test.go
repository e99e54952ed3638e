package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GOVHUB_JWT_SECRET", "")
	t.Setenv("GOVHUB_HISTORY_LIMIT", "")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "dev-secret-change-me", cfg.JWTSecret)
	assert.Equal(t, "govhub_session", cfg.SessionCookie)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GOVHUB_HTTP_ADDR", ":9090")
	t.Setenv("GOVHUB_JWT_SECRET", "s3cret")
	t.Setenv("GOVHUB_HISTORY_LIMIT", "25")
	t.Setenv("GOVHUB_AI_PROVIDER", "claude")
	t.Setenv("GOVHUB_AI_API_KEY", "key")
	t.Setenv("GOVHUB_AI_BASE_URL", "http://llm-gateway:8080")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, "claude", cfg.AI.Provider)
	assert.Equal(t, "key", cfg.AI.APIKey)
	assert.Equal(t, "http://llm-gateway:8080", cfg.AI.BaseURL)
}

func TestLoadIgnoresInvalidHistoryLimit(t *testing.T) {
	t.Setenv("GOVHUB_HISTORY_LIMIT", "-3")
	assert.Equal(t, 10, Load().HistoryLimit)

	t.Setenv("GOVHUB_HISTORY_LIMIT", "abc")
	assert.Equal(t, 10, Load().HistoryLimit)
}
