// Package registry resolves storage locations to ObjectStore backends.
package registry

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/logger"
)

// StoreFactory opens a store rooted at loc.
type StoreFactory func(ctx context.Context, loc core.Location, cfg core.StoreConfig) (core.ObjectStore, error)

// Registry manages store registration and instantiation
type Registry struct {
	factories map[string]StoreFactory
	mu        sync.RWMutex
	logger    *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]StoreFactory),
		logger:    logger.Get().With(zap.String("component", "store_registry")),
	}
}

// Register binds a factory to one or more URL schemes.
func (r *Registry) Register(factory StoreFactory, schemes ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, scheme := range schemes {
		if _, exists := r.factories[scheme]; exists {
			return errors.Newf(errors.ErrorTypeConfig, "store scheme %s already registered", scheme)
		}
	}
	for _, scheme := range schemes {
		r.factories[scheme] = factory
		r.logger.Debug("store registered", zap.String("scheme", scheme))
	}
	return nil
}

// Open parses raw and opens a store for it.
func (r *Registry) Open(ctx context.Context, raw string, cfg core.StoreConfig) (core.ObjectStore, error) {
	loc, err := core.ParseLocation(raw)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	factory, exists := r.factories[loc.Scheme]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "no store registered for scheme %s", loc.Scheme)
	}

	store, err := factory(ctx, loc, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open store for "+raw)
	}
	return store, nil
}

// Schemes returns the registered schemes, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.factories))
	for scheme := range r.factories {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// Register binds a factory in the global registry
func Register(factory StoreFactory, schemes ...string) error {
	return globalRegistry.Register(factory, schemes...)
}

// Open opens a store through the global registry
func Open(ctx context.Context, raw string, cfg core.StoreConfig) (core.ObjectStore, error) {
	return globalRegistry.Open(ctx, raw, cfg)
}

// Schemes lists the schemes of the global registry
func Schemes() []string {
	return globalRegistry.Schemes()
}
