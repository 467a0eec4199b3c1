// Package registry owns all scenario state and exposes the operations the
// CLI and workspace layers drive: add, update, run, copy, remove, and
// JSON export/import. Every operation is atomic with respect to the
// registry's in-memory state.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emunsing/webscenarios/internal/fingerprint"
	"github.com/emunsing/webscenarios/internal/pipeline"
	"github.com/emunsing/webscenarios/internal/settings"
	"github.com/emunsing/webscenarios/internal/stage"
)

// DefaultRunLimit caps how many scenarios RunAll computes at once.
const DefaultRunLimit = 4

// Persisted is the part of a scenario that survives export and workspace
// saves: the settings as entered, with nil fields where the user has not
// supplied a value yet.
type Persisted struct {
	Input settings.Input
}

// Runtime is per-scenario bookkeeping recorded by Run. It never leaves
// the process through export.
type Runtime struct {
	DesignFingerprint    string
	FinancialFingerprint string
	LastOutput           *stage.Output
}

type scenario struct {
	id        string
	persisted Persisted
	runtime   Runtime
}

func (s *scenario) clone(id string) *scenario {
	dup := &scenario{
		id:        id,
		persisted: Persisted{Input: s.persisted.Input.Clone()},
		runtime: Runtime{
			DesignFingerprint:    s.runtime.DesignFingerprint,
			FinancialFingerprint: s.runtime.FinancialFingerprint,
		},
	}
	if s.runtime.LastOutput != nil {
		out := *s.runtime.LastOutput
		dup.runtime.LastOutput = &out
	}
	return dup
}

func (s *scenario) snapshot() Snapshot {
	snap := Snapshot{ID: s.id, Input: s.persisted.Input.Clone()}
	if s.runtime.LastOutput != nil {
		out := *s.runtime.LastOutput
		snap.LastOutput = &out
	}
	return snap
}

// Snapshot is a read-only view of one scenario. LastOutput is nil until
// the scenario has been run at least once.
type Snapshot struct {
	ID         string
	Input      settings.Input
	LastOutput *stage.Output
}

// Options configures a Registry.
type Options struct {
	// Performance overrides the performance stage, letting callers swap
	// in a cached or otherwise instrumented implementation. Nil uses
	// stage.Performance.
	Performance stage.PerformanceFunc

	// RunLimit caps RunAll concurrency. Zero or negative means
	// DefaultRunLimit.
	RunLimit int

	// Logger receives operation-level debug logs. Nil disables logging.
	Logger *zap.Logger
}

// Registry manages the scenarios of one workspace.
type Registry struct {
	mu        sync.RWMutex
	scenarios map[string]*scenario
	runner    *pipeline.Runner
	runLimit  int
	logger    *zap.Logger
}

// New creates an empty Registry.
func New(opts Options) *Registry {
	limit := opts.RunLimit
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		scenarios: make(map[string]*scenario),
		runner:    pipeline.New(opts.Performance, logger),
		runLimit:  limit,
		logger:    logger,
	}
}

// Add creates a scenario holding the given input and returns its id. No
// fingerprints or output are recorded until the first Run.
func (r *Registry) Add(input settings.Input) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.scenarios[id] = &scenario{id: id, persisted: Persisted{Input: input.Clone()}}
	r.mu.Unlock()

	r.logger.Debug("scenario added", zap.String("id", id))
	return id
}

// UpdateDesign replaces the design group of the named scenario. It is a
// pure data replacement; no recomputation happens until the next Run.
func (r *Registry) UpdateDesign(id string, d settings.DesignInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sc, ok := r.scenarios[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sc.persisted.Input.Design = d.Clone()
	return nil
}

// UpdateFinancial replaces the financial group of the named scenario. It
// is a pure data replacement; no recomputation happens until the next Run.
func (r *Registry) UpdateFinancial(id string, f settings.FinancialInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sc, ok := r.scenarios[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sc.persisted.Input.Financial = f.Clone()
	return nil
}

// UpdateInputs replaces both settings groups of the named scenario.
func (r *Registry) UpdateInputs(id string, input settings.Input) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sc, ok := r.scenarios[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sc.persisted.Input = input.Clone()
	return nil
}

// Get returns a snapshot of the named scenario.
func (r *Registry) Get(id string) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sc, ok := r.scenarios[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sc.snapshot(), nil
}

// List returns a snapshot of every scenario, ordered by id.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(r.scenarios))
	for _, sc := range r.scenarios {
		snaps = append(snaps, sc.snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps
}

// IDs returns every scenario id, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.scenarios))
	for id := range r.scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports how many scenarios the registry holds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scenarios)
}

// Resolve expands an id or unique id prefix to a full scenario id, so
// the shortened ids shown in listings can be used in commands.
func (r *Registry) Resolve(idOrPrefix string) (string, error) {
	if idOrPrefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.scenarios[idOrPrefix]; ok {
		return idOrPrefix, nil
	}

	match := ""
	for id := range r.scenarios {
		if strings.HasPrefix(id, idOrPrefix) {
			if match != "" {
				return "", fmt.Errorf("%w: ambiguous id prefix %q", ErrNotFound, idOrPrefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	return match, nil
}

// Run recomputes the named scenario. Change detection compares the
// resolved settings against the fingerprints recorded by the previous
// run; stages whose inputs are unchanged carry their previous results
// over. On success the new output and refreshed fingerprints are
// persisted and the output returned. On any failure the scenario's
// recorded fingerprints and output are left untouched.
func (r *Registry) Run(ctx context.Context, id string) (stage.Output, error) {
	r.mu.RLock()
	sc, ok := r.scenarios[id]
	if !ok {
		r.mu.RUnlock()
		return stage.Output{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	input := sc.persisted.Input.Clone()
	prior := sc.runtime
	r.mu.RUnlock()

	bundle, err := input.Resolve()
	if err != nil {
		return stage.Output{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	designChanged, designFP := fingerprint.Detect(bundle.Design.Fields(), prior.DesignFingerprint)
	financialChanged, financialFP := fingerprint.Detect(bundle.Financial.Fields(), prior.FinancialFingerprint)

	// Stages run outside the lock so a slow performance stage does not
	// block the rest of the registry.
	out, err := r.runner.Run(ctx, bundle, prior.LastOutput, designChanged, financialChanged)
	if err != nil {
		return stage.Output{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok = r.scenarios[id]
	if !ok {
		// Removed while the stages were running.
		return stage.Output{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sc.runtime = Runtime{
		DesignFingerprint:    designFP,
		FinancialFingerprint: financialFP,
		LastOutput:           &out,
	}

	r.logger.Debug("scenario run",
		zap.String("id", id),
		zap.Bool("design_changed", designChanged),
		zap.Bool("financial_changed", financialChanged))
	return out, nil
}

// RunAll recomputes every scenario, at most RunLimit at a time, and
// returns the outputs keyed by scenario id. Scenarios removed while the
// batch is in flight are skipped; the first hard failure cancels the
// remaining runs and is returned.
func (r *Registry) RunAll(ctx context.Context) (map[string]stage.Output, error) {
	ids := r.IDs()

	var mu sync.Mutex
	results := make(map[string]stage.Output, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.runLimit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			out, err := r.Run(ctx, id)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("scenario %s: %w", id, err)
			}
			mu.Lock()
			results[id] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Copy deep-copies a scenario under a new id. Fingerprints and the last
// output are carried over, so running the copy with unchanged inputs
// recomputes nothing.
func (r *Registry) Copy(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.scenarios[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	newID := uuid.NewString()
	r.scenarios[newID] = src.clone(newID)

	r.logger.Debug("scenario copied", zap.String("from", id), zap.String("to", newID))
	return newID, nil
}

// Remove deletes the named scenario.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scenarios[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.scenarios, id)

	r.logger.Debug("scenario removed", zap.String("id", id))
	return nil
}
