// Package mode provides the ordered set of alarm modes and the current selection.
package mode

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/zainalm/sirenbox/internal/domain/pattern"
)

// CustomName is the reserved name of the upload-backed mode.
const CustomName = "custom"

// Mode is a named alarm bound to one audio asset. Pattern is nil for the
// custom mode, whose asset comes from uploads.
type Mode struct {
	Name      string
	AssetPath string
	Pattern   pattern.Pattern
}

// Custom reports whether this is the upload-backed mode.
func (m Mode) Custom() bool {
	return m.Pattern == nil
}

// Registry is a fixed, ordered, cyclic set of modes with exactly one
// current selection.
type Registry struct {
	mu    sync.RWMutex
	modes []Mode
	idx   int
}

// NewRegistry creates a registry with the first mode selected.
func NewRegistry(modes []Mode) (*Registry, error) {
	if len(modes) == 0 {
		return nil, errors.New("at least one mode is required")
	}
	return &Registry{modes: modes}, nil
}

// Current returns the currently selected mode.
func (r *Registry) Current() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modes[r.idx]
}

// Advance moves the selection to the next mode, wrapping to the first,
// and returns it.
func (r *Registry) Advance() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idx = (r.idx + 1) % len(r.modes)
	return r.modes[r.idx]
}

// Names returns the mode names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.modes))
	for i, m := range r.modes {
		names[i] = m.Name
	}
	return names
}

// All returns a copy of the modes in order.
func (r *Registry) All() []Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Mode, len(r.modes))
	copy(out, r.modes)
	return out
}

// Lookup returns the mode with the given name.
func (r *Registry) Lookup(name string) (Mode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}
