package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/club-management/internal/suspension"
	"github.com/frahmantamala/club-management/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers such as the scheduled suspension pass.`,
}

var suspensionWorkerCmd = &cobra.Command{
	Use:   "suspensions",
	Short: "Run the suspension schedule",
	Long:  `Evaluate every member against the dues policy on a cron schedule (club.suspension_schedule).`,
	Run: func(cmd *cobra.Command, args []string) {
		startSuspensionWorker()
	},
}

var (
	suspensionSchedule string
	runOnce            bool
)

func startSuspensionWorker() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	if suspensionSchedule != "" {
		cfg.Club.SuspensionSchedule = suspensionSchedule
	}

	a, err := newApp(context.Background(), cfg, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if runOnce {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		res, err := a.suspensions.ApplySuspensions(ctx, time.Now())
		if err != nil {
			lg.Error("suspension run failed", "error", err)
		} else {
			lg.Info("suspension run finished", "applied", res.Applied, "cleared", res.Cleared)
		}
		a.close(ctx)
		return
	}

	stop, err := startSuspensionSchedule(a)
	if err != nil {
		lg.Error("failed to start suspension schedule", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	lg.Info("suspension worker is running. Press Ctrl+C to stop.", "schedule", cfg.Club.SuspensionSchedule)

	sig := <-sigChan
	lg.Info("received signal, shutting down suspension worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stop(ctx)
	a.close(ctx)
}

// startSuspensionSchedule starts the cron job and returns its stop function.
func startSuspensionSchedule(a *app) (func(context.Context), error) {
	job, err := suspension.NewJob(a.suspensions, a.cfg.Club.SuspensionSchedule, a.cfg.Club.Location(), 5*time.Minute, a.logger)
	if err != nil {
		return nil, fmt.Errorf("invalid suspension schedule %q: %w", a.cfg.Club.SuspensionSchedule, err)
	}
	job.Start()
	return job.Stop, nil
}

func init() {
	suspensionWorkerCmd.Flags().StringVar(&suspensionSchedule, "schedule", "", "cron expression (overrides config)")
	suspensionWorkerCmd.Flags().BoolVar(&runOnce, "once", false, "run a single pass and exit")

	workerCmd.AddCommand(suspensionWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
