package host

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrFunctionNotFound is returned when no function is registered under a name
var ErrFunctionNotFound = errors.New("function not found")

// FunctionIndex looks functions up by name
type FunctionIndex interface {
	LookupByName(name string) (*FunctionDescriptor, bool)
}

// Index is the in-memory FunctionIndex. Names are case-insensitive.
type Index struct {
	mu        sync.RWMutex
	functions map[string]*FunctionDescriptor
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{functions: make(map[string]*FunctionDescriptor)}
}

// Add registers a function
func (i *Index) Add(fn *FunctionDescriptor) error {
	if err := fn.Validate(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	key := strings.ToLower(fn.Name)
	if _, exists := i.functions[key]; exists {
		return fmt.Errorf("function %s already registered", fn.Name)
	}
	i.functions[key] = fn
	return nil
}

// LookupByName returns the function registered under name
func (i *Index) LookupByName(name string) (*FunctionDescriptor, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	fn, ok := i.functions[strings.ToLower(name)]
	return fn, ok
}

// All returns every function sorted by name
func (i *Index) All() []*FunctionDescriptor {
	i.mu.RLock()
	defer i.mu.RUnlock()

	result := make([]*FunctionDescriptor, 0, len(i.functions))
	for _, fn := range i.functions {
		result = append(result, fn)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Name < result[b].Name })
	return result
}
