package authn

import (
	"fmt"
	"sync"
)

// SchemeRegistry is the process-wide table of authentication schemes
type SchemeRegistry interface {
	Add(scheme *Scheme) error
	Lookup(name string) (*Scheme, bool)
	Names() []string
}

// SchemeTable is the default in-memory SchemeRegistry
type SchemeTable struct {
	mu      sync.RWMutex
	schemes map[string]*Scheme
	order   []string
}

// NewSchemeTable creates an empty scheme table
func NewSchemeTable() *SchemeTable {
	return &SchemeTable{schemes: make(map[string]*Scheme)}
}

// Add registers a scheme. Names are unique.
func (t *SchemeTable) Add(scheme *Scheme) error {
	if scheme == nil || scheme.Name == "" {
		return fmt.Errorf("scheme name is required")
	}
	if scheme.Handler == nil {
		return fmt.Errorf("scheme %q has no handler", scheme.Name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.schemes[scheme.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateScheme, scheme.Name)
	}
	t.schemes[scheme.Name] = scheme
	t.order = append(t.order, scheme.Name)
	return nil
}

// Lookup returns the scheme registered under name
func (t *SchemeTable) Lookup(name string) (*Scheme, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	scheme, ok := t.schemes[name]
	return scheme, ok
}

// Names returns the registered names in registration order
func (t *SchemeTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}
