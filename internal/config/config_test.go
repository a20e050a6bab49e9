package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://localhost/publisher_inbox_test"

extraction:
  strategy: "bedrock"
  max_retries: 5

thresholds:
  auto_approve: 0.9
  medium_review: 0.75
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "postgres://localhost/publisher_inbox_test", cfg.Database.URL)
	assert.Equal(t, "bedrock", cfg.Extraction.Strategy)
	assert.Equal(t, 5, cfg.Extraction.MaxRetries)

	// Explicit values survive, unset values get defaults.
	assert.Equal(t, 0.9, cfg.Thresholds.AutoApprove)
	assert.Equal(t, 0.75, cfg.Thresholds.MediumReview)
	assert.Equal(t, 0.50, cfg.Thresholds.LowReview)
	assert.Equal(t, 0.60, cfg.Thresholds.OfferingMatch)
	assert.Equal(t, 0.70, cfg.Thresholds.FieldUpdate)
	assert.Equal(t, 48, cfg.Thresholds.AutoApproveDelayHours)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 8080\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Extraction.Strategy)
	assert.Equal(t, "gpt-4o", cfg.Extraction.OpenAI.Model)
	assert.Equal(t, 3, cfg.Extraction.MaxRetries)
	assert.Equal(t, "strict", cfg.Resolver.Policy)
	assert.Equal(t, 168, cfg.Resolver.InvitationTTLHours)
	assert.Equal(t, 0.85, cfg.Thresholds.AutoApprove)
	assert.Equal(t, "publisher:inbound:queue", cfg.Ingest.QueueKey)
	assert.Equal(t, 4, cfg.Ingest.Concurrency)
	assert.Equal(t, 300, cfg.Sweeper.TickIntervalSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://override/db")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EXTRACTION_STRATEGY", "bedrock")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres://override/db", cfg.Database.URL)
	assert.Equal(t, "sk-test", cfg.Extraction.OpenAI.APIKey)
	assert.Equal(t, "bedrock", cfg.Extraction.Strategy)

	// Everything not overridden falls back to defaults.
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.85, cfg.Thresholds.AutoApprove)
}
