package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jimdaga/viralpilot/internal/catalog"
)

// ProviderStub selects the offline gateway
const ProviderStub = "stub"

// WithCatalogDefaults fills empty model and endpoint fields from the
// provider's catalog entry.
func WithCatalogDefaults(cfg Config, cat *catalog.Catalog) Config {
	cfg.Provider = normalizedProvider(cfg.Provider)
	info, ok := cat.Provider(cfg.Provider)
	if !ok {
		return cfg
	}
	cfg.Model = pick(cfg.Model, info.DefaultModel)
	cfg.ResearchModel = pick(cfg.ResearchModel, info.ResearchModel)
	cfg.ImageModel = pick(cfg.ImageModel, info.ImageModel)
	cfg.VideoModel = pick(cfg.VideoModel, info.VideoModel)
	cfg.SpeechModel = pick(cfg.SpeechModel, info.SpeechModel)
	cfg.BaseURL = pick(cfg.BaseURL, info.BaseURL)
	return cfg
}

// NewGateway builds the gateway for cfg.Provider behind a circuit breaker.
// The stub gateway is returned unwrapped.
func NewGateway(ctx context.Context, cfg Config, logger *slog.Logger) (Gateway, error) {
	cfg = WithCatalogDefaults(cfg, catalog.Default())

	var gw Gateway
	switch cfg.Provider {
	case ProviderStub:
		return NewStubGateway(cfg.StubDelay), nil
	case "gemini":
		g, err := NewGeminiGateway(ctx, cfg)
		if err != nil {
			return nil, err
		}
		gw = g
	case "openai", "openrouter", "groq", "perplexity":
		g, err := NewOpenAIGateway(cfg)
		if err != nil {
			return nil, err
		}
		gw = g
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}

	if logger != nil {
		logger = logger.With("provider", cfg.Provider)
	}
	return NewBreaker(gw, DefaultBreakerConfig(), logger), nil
}

// Validate checks a credential for any provider without needing a gateway
// built from a previously saved key.
func Validate(ctx context.Context, cred Credential, base Config) Validation {
	cfg := base
	cfg.Provider = cred.Provider
	cfg.APIKey = cred.APIKey
	cfg.Model = cred.Model
	cfg.BaseURL = cred.BaseURL
	cfg = WithCatalogDefaults(cfg, catalog.Default())
	cred.Model = cfg.Model

	switch cfg.Provider {
	case ProviderStub:
		return Validation{Valid: true}
	case "gemini":
		return validateGemini(ctx, cred, cfg)
	case "openai", "openrouter", "groq", "perplexity":
		if cred.APIKey == "" {
			return Validation{Error: "API key is required"}
		}
		g, err := NewOpenAIGateway(cfg)
		if err != nil {
			return Validation{Error: err.Error()}
		}
		return g.ValidateCredential(ctx, cred)
	default:
		return Validation{Error: fmt.Sprintf("unknown AI provider %q", cred.Provider)}
	}
}
