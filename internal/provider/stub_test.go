package provider

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimdaga/viralpilot/internal/catalog"
)

func TestStubPostsFollowPromptMarkers(t *testing.T) {
	s := NewStubGateway(0)
	prompt := "Write posts.\nPLATFORMS: LinkedIn, Twitter\nPOSTS REQUIRED: 3\n"

	raw, err := s.CompleteStructured(context.Background(), StructuredRequest{Prompt: prompt})
	require.NoError(t, err)
	assert.Contains(t, raw, `"platform":"Twitter"`)
	assert.Contains(t, raw, `"archetype":"CONTRARIAN"`)
}

func TestStubRespectsCancellation(t *testing.T) {
	s := NewStubGateway(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GenerateImage(ctx, ImageRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGatewaySelection(t *testing.T) {
	gw, err := NewGateway(context.Background(), Config{Provider: "stub"}, slog.Default())
	require.NoError(t, err)
	_, ok := gw.(*StubGateway)
	assert.True(t, ok)

	gw, err = NewGateway(context.Background(), Config{Provider: "groq", APIKey: "k"}, nil)
	require.NoError(t, err)
	_, ok = gw.(*Breaker)
	assert.True(t, ok)

	_, err = NewGateway(context.Background(), Config{Provider: "mystery"}, nil)
	assert.Error(t, err)
}

func TestWithCatalogDefaults(t *testing.T) {
	cfg := WithCatalogDefaults(Config{Provider: "Google"}, catalogForTest(t))
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "imagen-4.0-generate-001", cfg.ImageModel)
	assert.Equal(t, "veo-3.1-fast-generate-preview", cfg.VideoModel)

	cfg = WithCatalogDefaults(Config{Provider: "openai", Model: "gpt-custom"}, catalogForTest(t))
	assert.Equal(t, "gpt-custom", cfg.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
}

func TestValidateUnknownProvider(t *testing.T) {
	v := Validate(context.Background(), Credential{Provider: "nobody"}, Config{})
	assert.False(t, v.Valid)
	assert.Contains(t, v.Error, "unknown AI provider")

	assert.True(t, Validate(context.Background(), Credential{Provider: "stub"}, Config{}).Valid)
}

func catalogForTest(t *testing.T) *catalog.Catalog {
	t.Helper()
	return catalog.Default()
}
