// Package stage holds the pure computation stages of a scenario and the
// consolidated output they produce.
//
// Stages are pure functions over settings groups. Each stage declares which
// groups it depends on; the pipeline uses that declaration to decide when a
// stage must be recomputed.
package stage

import (
	"context"
	"math"

	"github.com/emunsing/webscenarios/internal/settings"
)

// Output is the consolidated result of one pipeline run. It is always fully
// populated: stages that were not recomputed are filled from the previous
// output. An Output is superseded on recomputation, never mutated.
type Output struct {
	Performance    float64 `json:"performance"`
	Principal      float64 `json:"principal"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// PerformanceFunc computes the design-stage metric. The stage depends on the
// design group only. It is injected into the pipeline so a slow production
// model can replace the built-in one without touching the recompute policy.
type PerformanceFunc func(ctx context.Context, d settings.Design) (float64, error)

// Performance is the built-in design stage.
func Performance(_ context.Context, d settings.Design) (float64, error) {
	return d.X * d.X, nil
}

// Financial computes the principal and the monthly payment. The stage depends
// on both the design and the financial group, because the principal derives
// from design fields.
//
// principal = x * y, amortized over years * 12 monthly periods at the annual
// rate divided by 12. A zero monthly rate degrades to straight division, and
// zero periods yields a zero payment rather than a division fault.
func Financial(d settings.Design, f settings.Financial) (principal, payment float64) {
	principal = d.X * d.Y
	periods := f.Years * 12
	monthlyRate := f.InterestAnnual / 12

	if monthlyRate == 0 {
		if periods > 0 {
			return principal, principal / periods
		}
		return principal, 0
	}

	growth := math.Pow(1+monthlyRate, periods)
	payment = principal * (monthlyRate * growth) / (growth - 1)
	return principal, payment
}
