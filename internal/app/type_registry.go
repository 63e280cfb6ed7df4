package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"meters/internal/domain"
)

// TypeRegistry holds the set of valid reading types, mirrored from a
// ColumnStore. The store is mutated first and memory is committed only
// after the store call succeeds.
type TypeRegistry struct {
	store   domain.ColumnStore
	timeout time.Duration
	log     *zap.Logger

	// mutate serializes Add and Remove across the store call.
	mutate sync.Mutex

	mu    sync.RWMutex
	types map[string]struct{}
}

// NewTypeRegistry creates an empty registry. Call Load to populate it.
func NewTypeRegistry(store domain.ColumnStore, timeout time.Duration, log *zap.Logger) *TypeRegistry {
	return &TypeRegistry{
		store:   store,
		timeout: timeout,
		log:     log.Named("types"),
		types:   make(map[string]struct{}),
	}
}

// Load replaces the in-memory set with the store's columns.
func (r *TypeRegistry) Load(ctx context.Context) error {
	r.mutate.Lock()
	defer r.mutate.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cols, err := r.store.ListColumns(ctx)
	if err != nil {
		return storeFault("list columns", err)
	}

	next := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		next[c] = struct{}{}
	}

	r.mu.Lock()
	r.types = next
	r.mu.Unlock()

	r.log.Info("reading types loaded", zap.Strings("types", cols))
	return nil
}

// Add registers a new reading type.
func (r *TypeRegistry) Add(ctx context.Context, name string) error {
	name = normalizeTypeName(name)
	if !domain.ValidTypeName(name) {
		return &domain.ValidationError{Violations: []string{fmt.Sprintf("invalid reading type name %q", name)}}
	}

	r.mutate.Lock()
	defer r.mutate.Unlock()

	if r.Contains(name) {
		return domain.ErrTypeExists
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.store.AddColumn(ctx, name); err != nil {
		return storeFault("add column", err)
	}

	r.mu.Lock()
	r.types[name] = struct{}{}
	r.mu.Unlock()

	r.log.Info("reading type added", zap.String("type", name))
	return nil
}

// Remove unregisters a reading type. It reports false when name was not registered.
func (r *TypeRegistry) Remove(ctx context.Context, name string) (bool, error) {
	name = normalizeTypeName(name)

	r.mutate.Lock()
	defer r.mutate.Unlock()

	if !r.Contains(name) {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.store.DropColumn(ctx, name); err != nil {
		return false, storeFault("drop column", err)
	}

	r.mu.Lock()
	delete(r.types, name)
	r.mu.Unlock()

	r.log.Info("reading type removed", zap.String("type", name))
	return true, nil
}

// List returns a sorted snapshot of the registered types.
func (r *TypeRegistry) List() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Contains reports whether name is registered.
func (r *TypeRegistry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}

func normalizeTypeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
