package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/viralpilot/internal/auth"
	"github.com/jimdaga/viralpilot/internal/database"
	"github.com/jimdaga/viralpilot/internal/server"
	"github.com/jimdaga/viralpilot/internal/streams"
	"github.com/jimdaga/viralpilot/internal/worker"
	"github.com/spf13/cobra"
)

var embedWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Runs the HTTP API. With REDIS_URL set the background worker is embedded
in the same process unless --embed-worker=false.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&embedWorker, "embed-worker", true, "process background jobs in this process when REDIS_URL is set")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	auth.InitProviders(cfg, a.logger)

	if a.rdb != nil && embedWorker {
		stopWorker, err := worker.Start(cfg, a.svc, a.logger)
		if err != nil {
			return err
		}
		defer stopWorker()

		if cfg.TrendSchedule != "" {
			stopScheduler, err := worker.StartScheduler(cfg, a.logger)
			if err != nil {
				return err
			}
			defer stopScheduler()
		}
	}

	deps := server.Deps{
		Service: a.svc,
		Store:   a.store,
		Metrics: a.metrics,
		Ready:   a.readyChecks(),
		Logger:  a.logger,
	}
	if a.rdb != nil {
		deps.Follower = streams.NewFollower(a.rdb, a.logger)
	}
	router := server.New(deps, server.Options{
		SessionSecret:  cfg.SessionSecret,
		Secure:         cfg.IsProduction(),
		OAuth:          cfg.AuthEnabled(),
		DevUserID:      a.devUserID,
		DevUserEmail:   database.DevUserEmail,
		MediaDir:       cfg.MediaDir,
		MediaURLPrefix: cfg.MediaURLPrefix,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "port", cfg.Port, "env", cfg.Env, "stub_mode", cfg.AIStubMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
