// Package di wires the gocertd services together. Services are registered by
// name and built lazily on first use, so a disabled subsystem (history, the
// WebSocket stream) is never constructed.
package di

import (
	"errors"
	"sync"
)

// Container manages service registration and resolution.
type Container struct {
	mu       sync.RWMutex
	services map[string]any
	builders map[string]Builder
}

// Builder creates a service instance, resolving its dependencies through the
// container.
type Builder func(c *Container) (any, error)

// New creates an empty container.
func New() *Container {
	return &Container{
		services: make(map[string]any),
		builders: make(map[string]Builder),
	}
}

// Register registers a ready service instance.
func (c *Container) Register(name string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

// RegisterBuilder registers a builder for lazy instantiation.
func (c *Container) RegisterBuilder(name string, builder Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[name] = builder
}

// Get retrieves a service, building it on first use.
func (c *Container) Get(name string) (any, error) {
	c.mu.RLock()
	service, exists := c.services[name]
	c.mu.RUnlock()
	if exists {
		return service, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have built it while we waited.
	if service, exists := c.services[name]; exists {
		return service, nil
	}

	builder, ok := c.builders[name]
	if !ok {
		return nil, errors.New("service not found: " + name)
	}

	service, err := builder(c)
	if err != nil {
		return nil, err
	}
	c.services[name] = service
	return service, nil
}

// MustGet retrieves a service or panics.
func (c *Container) MustGet(name string) any {
	service, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return service
}

// Built reports whether a service instance has already been constructed.
func (c *Container) Built(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[name]
	return ok
}

// Has reports whether a service or builder is registered.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.services[name]; ok {
		return true
	}
	_, ok := c.builders[name]
	return ok
}

// Service names for container lookups.
const (
	ServiceConfig         = "config"
	ServiceKeyValueDB     = "storage.keyvaluedb"
	ServiceRecordDB       = "storage.recorddb"
	ServiceHistory        = "storage.history"
	ServiceStore          = "ledger.store"
	ServiceAuthorizer     = "ledger.authorizer"
	ServiceTxEngine       = "tx.engine"
	ServiceEventPublisher = "event.publisher"
	ServiceRPCServer      = "rpc.server"
	ServiceWSServer       = "ws.server"
)
