// Package di provides a minimal service registry with typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	// Get returns the service registered under name, instantiating it on
	// first use when it was registered through a factory.
	Get(name string) any
}

// Container is the write side: services and factories are registered here.
type Container interface {
	ServiceRegistry
	// Register stores an already-constructed value.
	Register(name string, value any)
	// RegisterFactory stores a lazily-invoked constructor. The factory runs
	// once; its result is memoized.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type entry struct {
	value   any
	factory func(ServiceRegistry) any
	once    sync.Once
}

type container struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{entries: make(map[string]*entry)}
}

func (c *container) Register(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{value: value}
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{factory: factory}
}

func (c *container) Get(name string) any {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("di: no service registered under %q", name))
	}

	if e.factory != nil {
		e.once.Do(func() {
			e.value = e.factory(c)
		})
	}
	return e.value
}

// Token is a typed handle for a registered service.
type Token[T any] struct {
	name string
}

// NewToken creates a token under the given registry name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry name backing the token.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory for the token.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the token with its concrete type.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	v, ok := sr.Get(token.name).(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type", token.name))
	}
	return v
}
