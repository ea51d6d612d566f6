package effects

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"surfacefx/contact"
)

// Registry indexes effects instances by the body they are attached to so a
// contact between two instrumented bodies is voiced only once.
type Registry struct {
	mu     sync.RWMutex
	byBody map[contact.BodyID]*Instance
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byBody: make(map[contact.BodyID]*Instance)}
}

// Register adds inst. A body may carry only one instance.
func (r *Registry) Register(inst *Instance) error {
	if inst == nil {
		return fmt.Errorf("effects: nil instance")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byBody[inst.body]; ok && existing != inst {
		return fmt.Errorf("effects: body %d already has instance %s", inst.body, existing.id)
	}
	r.byBody[inst.body] = inst
	return nil
}

// Unregister removes the instance attached to body.
func (r *Registry) Unregister(body contact.BodyID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byBody, body)
}

// Lookup returns the instance attached to body.
func (r *Registry) Lookup(body contact.BodyID) (*Instance, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byBody[body]
	return inst, ok
}

// Instances returns the registered instances ordered by body.
func (r *Registry) Instances() []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Instance, 0, len(r.byBody))
	for _, inst := range r.byBody {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].body < out[j].body })
	return out
}

// Yields reports whether inst should stay silent for a contact with other:
// the higher priority voices the contact, and on a tie the instance with the
// greater identity does.
func (inst *Instance) Yields(other *Instance) bool {
	if other == nil || other == inst {
		return false
	}
	if inst.cfg.Priority == other.cfg.Priority {
		return bytes.Compare(other.id[:], inst.id[:]) > 0
	}
	return inst.cfg.Priority < other.cfg.Priority
}
