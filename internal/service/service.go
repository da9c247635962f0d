// Package service is the application layer: it resolves a user's saved
// credentials into gateways and drives the pipeline, enrichment, history,
// background jobs and publishing on their behalf.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/catalog"
	"github.com/jimdaga/viralpilot/internal/enrichment"
	"github.com/jimdaga/viralpilot/internal/media"
	"github.com/jimdaga/viralpilot/internal/pipeline"
	"github.com/jimdaga/viralpilot/internal/provider"
	"github.com/jimdaga/viralpilot/internal/store"
	"github.com/jimdaga/viralpilot/internal/streams"
	"github.com/jimdaga/viralpilot/internal/wordpress"
)

// Observer collects run, phase, provider and enrichment metrics
type Observer interface {
	provider.Observer
	enrichment.Recorder
	ObservePhase(step string)
	ObserveRun(outcome string)
}

// Run outcomes reported to the Observer
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"
)

// Options are the server-wide defaults applied to every user
type Options struct {
	// Provider carries timeouts, stub delay and the server's own key used
	// for scheduled work. Per-user credentials override its identity fields.
	Provider   provider.Config
	StubMode   bool
	Pipeline   pipeline.Options
	Enrichment enrichment.Options
}

// Deps are the collaborators of a Service. Jobs, Events and Observer are optional.
type Deps struct {
	Store     *store.Store
	Catalog   *catalog.Catalog
	Media     media.Store
	WordPress *wordpress.Client
	Jobs      Enqueuer
	Events    *streams.Publisher
	Observer  Observer
	Logger    *slog.Logger
}

// Service implements the campaign use cases
type Service struct {
	store    *store.Store
	catalog  *catalog.Catalog
	media    media.Store
	wp       *wordpress.Client
	jobs     Enqueuer
	events   *streams.Publisher
	observer Observer
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Service.
func New(deps Deps, opts Options) *Service {
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.WordPress == nil {
		deps.WordPress = wordpress.NewClient(nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Observer != nil {
		opts.Enrichment.Recorder = deps.Observer
	}
	return &Service{
		store:    deps.Store,
		catalog:  deps.Catalog,
		media:    deps.Media,
		wp:       deps.WordPress,
		jobs:     deps.Jobs,
		events:   deps.Events,
		observer: deps.Observer,
		opts:     opts,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Catalog returns the reference data requests are validated against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Gateway builds the provider gateway for a user from their saved, validated
// credential. In stub mode every user gets the offline gateway.
func (s *Service) Gateway(ctx context.Context, userID uint) (provider.Gateway, error) {
	cfg := s.opts.Provider
	if s.opts.StubMode {
		cfg.Provider = provider.ProviderStub
		return s.buildGateway(ctx, cfg)
	}

	saved, err := s.store.AIConfig(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: AI provider is not configured", campaign.ErrPrecondition)
	}
	if err != nil {
		return nil, err
	}
	if !saved.Validated {
		return nil, fmt.Errorf("%w: AI provider credentials have not been validated", campaign.ErrPrecondition)
	}

	cfg.Provider = saved.Credential.Provider
	cfg.APIKey = saved.Credential.APIKey
	cfg.Model = saved.Credential.Model
	cfg.BaseURL = saved.Credential.BaseURL
	return s.buildGateway(ctx, cfg)
}

// DefaultGateway builds a gateway from the server's own configuration, for
// scheduled work that runs on behalf of no user.
func (s *Service) DefaultGateway(ctx context.Context) (provider.Gateway, error) {
	cfg := s.opts.Provider
	if s.opts.StubMode {
		cfg.Provider = provider.ProviderStub
	}
	return s.buildGateway(ctx, cfg)
}

func (s *Service) buildGateway(ctx context.Context, cfg provider.Config) (provider.Gateway, error) {
	gw, err := provider.NewGateway(ctx, cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s gateway: %w", cfg.Provider, err)
	}
	if s.observer == nil {
		return gw, nil
	}
	return provider.Instrument(gw, s.observer), nil
}

func (s *Service) enricher(gw provider.Gateway) *enrichment.Enricher {
	return enrichment.New(gw, s.media, s.opts.Enrichment, s.logger)
}
