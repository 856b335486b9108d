// Package scope resolves named execution contexts from registered factories.
package scope

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// Factory builds a fresh context instance for one scenario run.
type Factory func(ctx context.Context) (any, error)

// ContextCloser is implemented by context instances that need disposal
// with a context.
type ContextCloser interface {
	Close(ctx context.Context) error
}

// Resolver implements ports.ContextResolver. Every Resolve call builds a new
// instance so concurrently running scenarios never share a context.
type Resolver struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{factories: make(map[string]Factory)}
}

// Register adds a factory under name, replacing any previous registration.
func (r *Resolver) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("context name is required")
	}
	if factory == nil {
		return fmt.Errorf("context %q: factory is nil", name)
	}
	r.mu.Lock()
	r.factories[name] = factory
	r.mu.Unlock()
	return nil
}

// Names lists registered context names.
func (r *Resolver) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve implements ports.ContextResolver.
func (r *Resolver) Resolve(ctx context.Context, name string) (scenario.ExecutionContext, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return scenario.ExecutionContext{}, fmt.Errorf("context %q is not registered", name)
	}

	value, err := factory(ctx)
	if err != nil {
		return scenario.ExecutionContext{}, fmt.Errorf("context %q: %w", name, err)
	}
	return scenario.ExecutionContext{Value: value, Dispose: disposer(value)}, nil
}

// Provider returns a ContextProvider resolving name through r.
func (r *Resolver) Provider(name string) scenario.ContextProvider {
	return func(ctx context.Context) (scenario.ExecutionContext, error) {
		return r.Resolve(ctx, name)
	}
}

func disposer(value any) func(context.Context) error {
	switch v := value.(type) {
	case ContextCloser:
		return v.Close
	case io.Closer:
		return func(context.Context) error { return v.Close() }
	}
	return nil
}

var _ ports.ContextResolver = (*Resolver)(nil)
