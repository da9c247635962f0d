package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "AI_PROVIDER", "PIPELINE_SETTLE_DELAY", "ENRICH_CONCURRENCY", "AI_STUB_MODE", "GOOGLE_CLIENT_ID"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini", cfg.AIProvider)
	assert.Equal(t, 1500*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 4, cfg.EnrichConcurrency)
	assert.False(t, cfg.AIStubMode)
	assert.False(t, cfg.AuthEnabled())
	assert.NotEmpty(t, cfg.SessionSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PIPELINE_SETTLE_DELAY", "250")
	t.Setenv("VIDEO_POLL_INTERVAL", "2s")
	t.Setenv("AI_STUB_MODE", "true")
	t.Setenv("ENRICH_CONCURRENCY", "not-a-number")
	t.Setenv("ENV", "Production")

	cfg := Load()
	assert.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 2*time.Second, cfg.VideoPollInterval)
	assert.True(t, cfg.AIStubMode)
	assert.Equal(t, 4, cfg.EnrichConcurrency)
	assert.True(t, cfg.IsProduction())
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, ".env"), "TREND_NICHE=Fitness\nPORT=9999\n")
	t.Setenv("PORT", "7070")
	t.Setenv("TREND_NICHE", "")
	os.Unsetenv("TREND_NICHE")

	cfg := Load()
	assert.Equal(t, "Fitness", cfg.TrendNiche)
	assert.Equal(t, "7070", cfg.Port)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
