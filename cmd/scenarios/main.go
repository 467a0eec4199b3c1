package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emunsing/webscenarios/internal/config"
	"github.com/emunsing/webscenarios/internal/logging"
	"github.com/emunsing/webscenarios/internal/registry"
	"github.com/emunsing/webscenarios/internal/stage"
	"github.com/emunsing/webscenarios/internal/workspace"
)

const version = "0.1.0"

var (
	// Global flags
	configPath    string
	workspaceFlag string
	verbose       bool

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "scenarios - change-aware what-if scenario runner",
	Long: `scenarios manages a set of independent what-if scenarios, each holding
design inputs (x, y) and financing inputs (years, interest_annual), and
recomputes derived outputs on demand.

Recomputation is change-aware: each settings group is fingerprinted, and a
run only re-executes the stages whose inputs actually changed since the
previous run. Unchanged results are carried over.

Scenarios persist between invocations in a JSON workspace file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if workspaceFlag != "" {
			cfg.Workspace = workspaceFlag
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the scenarios version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scenarios %s\n", version)
	},
}

func defaultConfigPath() string {
	if p := os.Getenv("SCENARIOS_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath
}

// newRegistry builds an empty registry wired to the configured
// performance cache and run parallelism.
func newRegistry() (*registry.Registry, error) {
	perf, err := stage.NewCachedPerformance(nil, cfg.Run.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build performance cache: %w", err)
	}
	return registry.New(registry.Options{
		Performance: perf,
		RunLimit:    cfg.Run.Parallelism,
		Logger:      logger,
	}), nil
}

// loadRegistry builds a registry populated from the workspace file.
func loadRegistry() (*registry.Registry, error) {
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	docs, err := workspace.Load(cfg.Workspace)
	if err != nil {
		return nil, err
	}
	if err := workspace.Restore(reg, docs); err != nil {
		return nil, err
	}
	logger.Debug("workspace loaded",
		zap.String("path", cfg.Workspace),
		zap.Int("scenarios", reg.Len()))
	return reg, nil
}

// saveRegistry writes the registry's scenarios back to the workspace file.
func saveRegistry(reg *registry.Registry) error {
	docs, err := workspace.Snapshot(reg)
	if err != nil {
		return err
	}
	return workspace.Save(cfg.Workspace, docs)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Configuration file (or set SCENARIOS_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "Workspace file (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Add commands to root
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
