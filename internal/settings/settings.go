// Package settings defines the input groups a scenario is computed from.
//
// Each group is a flat, fixed-field record of numeric values. Complete groups
// (Design, Financial) always hold a value for every field. The *Input forms
// carry fields as entered by a collaborator, where nil means "no value
// entered"; they resolve to complete groups at run time.
package settings

import (
	"errors"
	"fmt"
	"math"
)

// Default field values, applied when a scenario is created without explicit
// settings and when an imported document omits a field.
const (
	DefaultX              = 1.0
	DefaultY              = 2.0
	DefaultYears          = 10.0
	DefaultInterestAnnual = 0.05
)

// Input validation errors.
var (
	// ErrMissingField is returned when a required input field has no value.
	ErrMissingField = errors.New("missing field value")

	// ErrNotFinite is returned when an input field is NaN or infinite.
	ErrNotFinite = errors.New("field value must be finite")
)

// Design groups the design-stage inputs of one scenario.
// Two Design values are equal iff all fields are equal.
type Design struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Fields returns the canonical name-to-value map used for fingerprinting.
func (d Design) Fields() map[string]float64 {
	return map[string]float64{"x": d.X, "y": d.Y}
}

// Financial groups the financing inputs of one scenario.
type Financial struct {
	Years          float64 `json:"years" yaml:"years"`
	InterestAnnual float64 `json:"interest_annual" yaml:"interest_annual"`
}

// Fields returns the canonical name-to-value map used for fingerprinting.
func (f Financial) Fields() map[string]float64 {
	return map[string]float64{"years": f.Years, "interest_annual": f.InterestAnnual}
}

// Bundle is the complete, resolved settings of one scenario.
type Bundle struct {
	Design    Design
	Financial Financial
}

// DefaultDesign returns a Design populated with the default field values.
func DefaultDesign() Design {
	return Design{X: DefaultX, Y: DefaultY}
}

// DefaultFinancial returns a Financial populated with the default field values.
func DefaultFinancial() Financial {
	return Financial{Years: DefaultYears, InterestAnnual: DefaultInterestAnnual}
}

// DefaultBundle returns a Bundle populated with the default field values.
func DefaultBundle() Bundle {
	return Bundle{Design: DefaultDesign(), Financial: DefaultFinancial()}
}

// Float64 returns a pointer to v, for building inputs literally.
func Float64(v float64) *float64 {
	return &v
}

// DesignInput carries design fields as entered. A nil field means the
// collaborator supplied no value for it.
type DesignInput struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// Resolve converts the input to a complete Design. It fails when any field is
// absent or not a finite number; it never substitutes defaults.
func (in DesignInput) Resolve() (Design, error) {
	x, err := fieldValue("design.x", in.X)
	if err != nil {
		return Design{}, err
	}
	y, err := fieldValue("design.y", in.Y)
	if err != nil {
		return Design{}, err
	}
	return Design{X: x, Y: y}, nil
}

// Clone returns a deep copy of the input.
func (in DesignInput) Clone() DesignInput {
	return DesignInput{X: clonePtr(in.X), Y: clonePtr(in.Y)}
}

// FinancialInput carries financing fields as entered. A nil field means the
// collaborator supplied no value for it.
type FinancialInput struct {
	Years          *float64 `json:"years,omitempty"`
	InterestAnnual *float64 `json:"interest_annual,omitempty"`
}

// Resolve converts the input to a complete Financial. It fails when any field
// is absent or not a finite number; it never substitutes defaults.
func (in FinancialInput) Resolve() (Financial, error) {
	years, err := fieldValue("financial.years", in.Years)
	if err != nil {
		return Financial{}, err
	}
	interest, err := fieldValue("financial.interest_annual", in.InterestAnnual)
	if err != nil {
		return Financial{}, err
	}
	return Financial{Years: years, InterestAnnual: interest}, nil
}

// Clone returns a deep copy of the input.
func (in FinancialInput) Clone() FinancialInput {
	return FinancialInput{Years: clonePtr(in.Years), InterestAnnual: clonePtr(in.InterestAnnual)}
}

// Input carries the as-entered settings of one scenario.
type Input struct {
	Design    DesignInput    `json:"design"`
	Financial FinancialInput `json:"financial"`
}

// Resolve converts the input to a complete Bundle, failing on the first
// absent or non-finite field.
func (in Input) Resolve() (Bundle, error) {
	d, err := in.Design.Resolve()
	if err != nil {
		return Bundle{}, err
	}
	f, err := in.Financial.Resolve()
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{Design: d, Financial: f}, nil
}

// Clone returns a deep copy of the input.
func (in Input) Clone() Input {
	return Input{Design: in.Design.Clone(), Financial: in.Financial.Clone()}
}

// WithDefaults returns a copy of the input with every absent field filled
// from the package defaults. Present fields are kept as-is.
func (in Input) WithDefaults() Input {
	out := in.Clone()
	if out.Design.X == nil {
		out.Design.X = Float64(DefaultX)
	}
	if out.Design.Y == nil {
		out.Design.Y = Float64(DefaultY)
	}
	if out.Financial.Years == nil {
		out.Financial.Years = Float64(DefaultYears)
	}
	if out.Financial.InterestAnnual == nil {
		out.Financial.InterestAnnual = Float64(DefaultInterestAnnual)
	}
	return out
}

// InputFromBundle returns the input form of a complete bundle.
func InputFromBundle(b Bundle) Input {
	return Input{
		Design:    DesignInput{X: Float64(b.Design.X), Y: Float64(b.Design.Y)},
		Financial: FinancialInput{Years: Float64(b.Financial.Years), InterestAnnual: Float64(b.Financial.InterestAnnual)},
	}
}

// DefaultInput returns an input populated with the default field values.
func DefaultInput() Input {
	return InputFromBundle(DefaultBundle())
}

func fieldValue(name string, p *float64) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	if math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, fmt.Errorf("%w: %s", ErrNotFinite, name)
	}
	return *p, nil
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
