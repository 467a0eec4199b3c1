// Package workspace persists scenarios between CLI invocations as one
// JSON document built from the per-scenario export format. Fingerprints
// and outputs are never written, so after a reload the first run of each
// scenario recomputes everything.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/emunsing/webscenarios/internal/registry"
)

// document is the on-disk shape: export documents keyed by scenario id.
type document struct {
	Scenarios map[string]json.RawMessage `json:"scenarios"`
}

// Load reads the workspace file. A missing file is an empty workspace.
func Load(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("failed to read workspace: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: workspace %s: %v", registry.ErrSerialization, path, err)
	}
	if doc.Scenarios == nil {
		doc.Scenarios = map[string]json.RawMessage{}
	}
	return doc.Scenarios, nil
}

// Save writes the workspace file through a temp file and rename, so an
// interrupted write cannot truncate the previous copy.
func Save(path string, scenarios map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	data, err := json.MarshalIndent(document{Scenarios: scenarios}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", registry.ErrSerialization, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write workspace: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace workspace: %w", err)
	}
	return nil
}

// Restore inserts every saved scenario into the registry under its saved
// id, so ids printed by one CLI invocation stay valid in the next.
func Restore(reg *registry.Registry, scenarios map[string]json.RawMessage) error {
	ids := make([]string, 0, len(scenarios))
	for id := range scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := reg.Restore(id, scenarios[id]); err != nil {
			return fmt.Errorf("scenario %s: %w", id, err)
		}
	}
	return nil
}

// Snapshot exports every scenario in the registry, keyed by id.
func Snapshot(reg *registry.Registry) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, reg.Len())
	for _, id := range reg.IDs() {
		data, err := reg.Export(id)
		if err != nil {
			return nil, err
		}
		out[id] = data
	}
	return out, nil
}
