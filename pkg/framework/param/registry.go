package param

import (
	"fmt"
	"strings"
	"sync"
)

// Registry manages plugin parameters. It is for the host and control
// threads; the audio thread should hold on to *Parameter directly.
type Registry struct {
	params   map[uint32]*Parameter
	nameToID map[string]uint32
	order    []uint32 // Maintain order for indexed access
	mu       sync.RWMutex
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params:   make(map[uint32]*Parameter),
		nameToID: make(map[string]uint32),
		order:    make([]uint32, 0),
	}
}

// Add registers new parameters. IDs and names (case-insensitive) must be unique.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if existing, exists := r.params[p.ID]; exists {
			return fmt.Errorf("parameter ID %d already used by %q: %w", p.ID, existing.Name, ErrDuplicateParameter)
		}
		key := strings.ToLower(p.Name)
		if _, exists := r.nameToID[key]; exists {
			return fmt.Errorf("parameter name %q: %w", p.Name, ErrDuplicateParameter)
		}

		r.params[p.ID] = p
		r.nameToID[key] = p.ID
		r.order = append(r.order, p.ID)
	}

	return nil
}

// Get retrieves a parameter by ID
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// GetByName retrieves a parameter by case-insensitive name
func (r *Registry) GetByName(name string) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.nameToID[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return r.params[id]
}

// GetByIndex retrieves a parameter by index
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}

	id := r.order[index]
	return r.params[id]
}

// Count returns the number of parameters
func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int32(len(r.order))
}

// All returns all parameters in order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}

	return result
}

// ResetToDefaults restores every parameter to its default value.
func (r *Registry) ResetToDefaults() {
	for _, p := range r.All() {
		p.ResetToDefault()
	}
}
