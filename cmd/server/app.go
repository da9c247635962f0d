package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/config"
	"github.com/jimdaga/viralpilot/internal/database"
	"github.com/jimdaga/viralpilot/internal/enrichment"
	"github.com/jimdaga/viralpilot/internal/health"
	"github.com/jimdaga/viralpilot/internal/logging"
	"github.com/jimdaga/viralpilot/internal/media"
	"github.com/jimdaga/viralpilot/internal/metrics"
	"github.com/jimdaga/viralpilot/internal/models"
	"github.com/jimdaga/viralpilot/internal/pipeline"
	"github.com/jimdaga/viralpilot/internal/provider"
	"github.com/jimdaga/viralpilot/internal/service"
	"github.com/jimdaga/viralpilot/internal/store"
	"github.com/jimdaga/viralpilot/internal/streams"
	"github.com/jimdaga/viralpilot/internal/worker"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// app holds the components shared by the serve and worker commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *gorm.DB
	store     *store.Store
	media     *media.DiskStore
	rdb       *redis.Client
	jobs      *worker.Client
	metrics   *metrics.Metrics
	svc       *service.Service
	devUserID uint
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}

	if cfg.EncryptionKey != "" {
		if err := models.InitEncryption(cfg.EncryptionKey); err != nil {
			return nil, fmt.Errorf("failed to initialize encryption: %w", err)
		}
	} else if cfg.IsProduction() {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required in production")
	} else {
		logger.Warn("ENCRYPTION_KEY not set, saved credentials are stored unencrypted")
	}

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := database.RunMigrations(db); err != nil {
		a.Close()
		return nil, err
	}
	a.store = store.New(db, store.Options{HistoryLimit: cfg.HistoryLimit, LikedLimit: cfg.LikedLimit})

	if !cfg.AuthEnabled() {
		if err := database.SeedDevData(db); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to seed dev data: %w", err)
		}
		a.devUserID, err = a.store.UpsertUser(ctx, database.DevUserEmail, "")
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.media, err = media.NewDiskStore(cfg.MediaDir, cfg.MediaURLPrefix)
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := service.Deps{
		Store:    a.store,
		Media:    a.media,
		Observer: a.metrics,
		Logger:   logger,
	}
	if cfg.RedisURL != "" {
		a.rdb, err = streams.Connect(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.jobs, err = worker.NewClient(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		deps.Events = streams.NewPublisher(a.rdb)
		deps.Jobs = a.jobs
	} else {
		logger.Info("REDIS_URL not set, media jobs run in-process and run replay is disabled")
	}

	a.svc = service.New(deps, serviceOptions(cfg))
	return a, nil
}

func providerConfig(cfg *config.Config) provider.Config {
	return provider.Config{
		Provider:      cfg.AIProvider,
		APIKey:        cfg.AIAPIKey,
		Model:         cfg.AIModel,
		ResearchModel: cfg.AIResearchModel,
		CallTimeout:   cfg.AICallTimeout,
		StubDelay:     cfg.AIStubDelay,
	}
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Profile:     campaign.ParseProfile(cfg.PipelineProfile),
		SettleDelay: cfg.SettleDelay,
	}
}

func enrichmentOptions(cfg *config.Config) enrichment.Options {
	return enrichment.Options{
		Concurrency:       cfg.EnrichConcurrency,
		VideoPollInterval: cfg.VideoPollInterval,
		VideoMaxPolls:     cfg.VideoMaxPolls,
	}
}

func serviceOptions(cfg *config.Config) service.Options {
	return service.Options{
		Provider:   providerConfig(cfg),
		StubMode:   cfg.AIStubMode,
		Pipeline:   pipelineOptions(cfg),
		Enrichment: enrichmentOptions(cfg),
	}
}

// readyChecks are the dependencies /ready reports on.
func (a *app) readyChecks() map[string]health.Check {
	checks := map[string]health.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if a.rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		}
	}
	return checks
}

func (a *app) Close() {
	if a.jobs != nil {
		if err := a.jobs.Close(); err != nil {
			a.logger.Warn("Failed to close job client", "error", err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", "error", err)
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("Failed to close database", "error", err)
		}
	}
}
