package tx

import (
	"sort"
	"sync"
)

// Factory creates a zero-valued transaction of a given type, ready to be
// populated from decoded request parameters.
type Factory func() Transaction

var (
	registryMu sync.RWMutex
	registry   = make(map[Type]Factory)
)

// Register adds a transaction factory. Called from init functions of the
// transaction type files.
func Register(t Type, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = factory
}

// New creates a transaction of the given type, or false if unknown.
func New(t Type) (Transaction, bool) {
	registryMu.RLock()
	factory, ok := registry[t]
	registryMu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// RegisteredTypes returns all registered type names, sorted.
func RegisteredTypes() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
