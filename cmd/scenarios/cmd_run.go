package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emunsing/webscenarios/internal/registry"
	"github.com/emunsing/webscenarios/internal/report"
	"github.com/emunsing/webscenarios/internal/stage"
)

var (
	runAll bool

	resultsFormat string
	resultsOut    string
	resultsRun    bool
)

var runCmd = &cobra.Command{
	Use:   "run [id]",
	Short: "Recompute a scenario (or all scenarios with --all)",
	Long: `Runs the recomputation pipeline for one scenario. Only the stages whose
settings changed since the previous run are re-executed; unchanged
results are carried over.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Print the consolidated results of all scenarios",
	Args:  cobra.NoArgs,
	RunE:  runResults,
}

func init() {
	runCmd.Flags().BoolVar(&runAll, "all", false, "Run every scenario")

	resultsCmd.Flags().StringVar(&resultsFormat, "format", "text", "Output format: text, csv, or json")
	resultsCmd.Flags().StringVar(&resultsOut, "out", "", "Write to a file instead of stdout")
	resultsCmd.Flags().BoolVar(&resultsRun, "run", true, "Recompute scenarios before rendering")
}

func runRun(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if runAll {
		if len(args) > 0 {
			return fmt.Errorf("give either an id or --all, not both")
		}
		if _, err := reg.RunAll(ctx); err != nil {
			return err
		}
		return report.WriteText(os.Stdout, report.Rows(reg.List()))
	}

	if len(args) == 0 {
		return fmt.Errorf("scenario id required (or --all)")
	}
	id, err := reg.Resolve(args[0])
	if err != nil {
		return err
	}
	out, err := reg.Run(ctx, id)
	if err != nil {
		return err
	}
	printOutput(out)
	return nil
}

func runResults(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	if resultsRun {
		runTolerant(cmd.Context(), reg)
	}

	var w io.Writer = os.Stdout
	if resultsOut != "" {
		f, err := os.Create(resultsOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	rows := report.Rows(reg.List())
	switch resultsFormat {
	case "text":
		return report.WriteText(w, rows)
	case "csv":
		return report.WriteCSV(w, rows)
	case "json":
		return report.WriteJSON(w, rows)
	default:
		return fmt.Errorf("unknown format %q (valid: text, csv, json)", resultsFormat)
	}
}

// runTolerant recomputes every scenario it can, skipping those whose
// inputs are incomplete so the report still renders the rest.
func runTolerant(ctx context.Context, reg *registry.Registry) {
	for _, id := range reg.IDs() {
		if _, err := reg.Run(ctx, id); err != nil {
			if errors.Is(err, registry.ErrInvalidInput) || errors.Is(err, registry.ErrNotFound) {
				logger.Warn("scenario skipped",
					zap.String("id", report.ShortID(id)),
					zap.Error(err))
				continue
			}
			logger.Error("scenario run failed",
				zap.String("id", report.ShortID(id)),
				zap.Error(err))
		}
	}
}

func printOutput(out stage.Output) {
	fmt.Printf("performance:     %s\n", strconv.FormatFloat(out.Performance, 'g', -1, 64))
	fmt.Printf("principal:       %s\n", strconv.FormatFloat(out.Principal, 'g', -1, 64))
	fmt.Printf("monthly_payment: %s\n", strconv.FormatFloat(out.MonthlyPayment, 'g', -1, 64))
}
