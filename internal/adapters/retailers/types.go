// Package retailers defines the order source contract and the registry the
// reconcile orchestrator iterates over.
package retailers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
)

// Source supplies normalized orders for one retailer.
type Source interface {
	Name() retail.Retailer
	LoadOrders(ctx context.Context) ([]retail.Order, error)
}

// Registry manages all registered order sources. Iteration follows
// registration order; reconcile passes depend on that being stable.
type Registry struct {
	sources map[retail.Retailer]Source
	order   []retail.Retailer
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewRegistry creates a new source registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sources: make(map[retail.Retailer]Source),
		logger:  logger,
	}
}

// Register adds a source to the registry
func (r *Registry) Register(source Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := source.Name()
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source %s already registered", name)
	}

	r.sources[name] = source
	r.order = append(r.order, name)
	r.logger.Info("registered order source", "retailer", string(name))

	return nil
}

// Get returns a source by retailer name
func (r *Registry) Get(name retail.Retailer) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, exists := r.sources[name]
	if !exists {
		return nil, fmt.Errorf("source %s not found", name)
	}

	return source, nil
}

// All returns registered sources in registration order
func (r *Registry) All() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		sources = append(sources, r.sources[name])
	}
	return sources
}

// Names returns registered retailer names in registration order
func (r *Registry) Names() []retail.Retailer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]retail.Retailer, len(r.order))
	copy(names, r.order)
	return names
}
