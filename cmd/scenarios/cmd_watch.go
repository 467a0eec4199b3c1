package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emunsing/webscenarios/internal/report"
	"github.com/emunsing/webscenarios/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rerun all scenarios whenever the workspace file changes",
	Long: `Watches the workspace file and, after each settled burst of changes,
reloads the scenarios, reruns them, and reprints the consolidated
results. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rerun := func(ctx context.Context) {
		reg, err := loadRegistry()
		if err != nil {
			logger.Error("workspace reload failed", zap.Error(err))
			return
		}
		runTolerant(ctx, reg)
		if err := report.WriteText(os.Stdout, report.Rows(reg.List())); err != nil {
			logger.Error("report write failed", zap.Error(err))
		}
		fmt.Println()
	}

	// Initial pass before the first file event.
	rerun(ctx)

	w, err := watch.New(cfg.Workspace, cfg.GetDebounce(), rerun, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	<-ctx.Done()
	w.Stop()

	stats := w.GetStats()
	logger.Info("watch finished",
		zap.Int("events", stats.Events),
		zap.Int("reloads", stats.Reloads),
		zap.Int("errors", stats.Errors))
	return nil
}
