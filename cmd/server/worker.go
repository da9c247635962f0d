package main

import (
	"fmt"

	"github.com/jimdaga/viralpilot/internal/worker"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process background media, publish and trend jobs",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required to run the worker")
	}

	if a.cfg.TrendSchedule != "" {
		stopScheduler, err := worker.StartScheduler(a.cfg, a.logger)
		if err != nil {
			return err
		}
		defer stopScheduler()
	}

	// Run blocks and handles its own signal interception
	return worker.Run(a.cfg, a.svc, a.logger)
}
