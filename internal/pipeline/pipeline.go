// Package pipeline orders the computation stages and decides, from the
// change flags produced by fingerprint detection, which stages actually
// rerun. Unchanged results are carried over from the previous output so
// callers always receive a fully populated result.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/emunsing/webscenarios/internal/settings"
	"github.com/emunsing/webscenarios/internal/stage"
)

// Runner executes the recomputation pipeline for one scenario.
type Runner struct {
	perf   stage.PerformanceFunc
	logger *zap.Logger
}

// New returns a Runner using the given performance stage. A nil perf
// falls back to stage.Performance and a nil logger to a no-op logger.
func New(perf stage.PerformanceFunc, logger *zap.Logger) *Runner {
	if perf == nil {
		perf = stage.Performance
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{perf: perf, logger: logger}
}

// Run produces the next output for the resolved settings b. prev is the
// output of the previous run, or nil on the first run. The design stage
// reruns only when designChanged is set; the financial stage reruns when
// either flag is set. Fields owned by a skipped stage keep their prev
// value (zero when prev is nil).
func (r *Runner) Run(ctx context.Context, b settings.Bundle, prev *stage.Output, designChanged, financialChanged bool) (stage.Output, error) {
	var out stage.Output
	if prev != nil {
		out = *prev
	}

	if designChanged {
		perf, err := r.perf(ctx, b.Design)
		if err != nil {
			return stage.Output{}, err
		}
		out.Performance = perf
	}

	if designChanged || financialChanged {
		out.Principal, out.MonthlyPayment = stage.Financial(b.Design, b.Financial)
	}

	r.logger.Debug("pipeline run complete",
		zap.Bool("design_changed", designChanged),
		zap.Bool("financial_changed", financialChanged),
		zap.Float64("performance", out.Performance),
		zap.Float64("monthly_payment", out.MonthlyPayment))

	return out, nil
}
