package registry

import (
	"encoding/json"
	"fmt"

	"github.com/emunsing/webscenarios/internal/settings"
)

// Export serializes the scenario's settings groups as pretty-printed
// JSON. Internal bookkeeping (id, fingerprints, last output) is never
// part of the document.
func (r *Registry) Export(id string) ([]byte, error) {
	snap, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(snap.Input, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}

// Import parses an export document, fills absent fields with the stock
// defaults, and adds the result as a new scenario. Unknown keys in the
// document are ignored.
func (r *Registry) Import(data []byte) (string, error) {
	input, err := decodeInput(data)
	if err != nil {
		return "", err
	}
	return r.Add(input.WithDefaults()), nil
}

// Restore inserts a scenario under a previously allocated id, preserving
// the settings exactly as decoded. The workspace layer uses it to reload
// saved scenarios without reassigning their ids.
func (r *Registry) Restore(id string, data []byte) error {
	input, err := decodeInput(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scenarios[id]; ok {
		return fmt.Errorf("%w: duplicate scenario id %q", ErrSerialization, id)
	}
	r.scenarios[id] = &scenario{id: id, persisted: Persisted{Input: input}}
	return nil
}

func decodeInput(data []byte) (settings.Input, error) {
	var input settings.Input
	if err := json.Unmarshal(data, &input); err != nil {
		return settings.Input{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return input, nil
}
