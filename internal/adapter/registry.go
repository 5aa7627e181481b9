package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"clientparser/internal/domain"
)

// Registry holds the active adapter set
type Registry struct {
	mu       sync.RWMutex
	adapters []Adapter
	logger   *slog.Logger
}

// NewRegistry creates a new adapter registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an adapter to the registry
func (r *Registry) Register(adapter Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := adapter.Name()
	for _, existing := range r.adapters {
		if existing.Name() == name {
			return fmt.Errorf("adapter %s already registered", name)
		}
	}

	r.adapters = append(r.adapters, adapter)
	r.logger.Info("registered adapter", "adapter", name)
	return nil
}

// Replace swaps the whole adapter set. A cycle already collecting keeps
// the set it started with.
func (r *Registry) Replace(adapters ...Adapter) error {
	seen := make(map[string]bool, len(adapters))
	for _, a := range adapters {
		if seen[a.Name()] {
			return fmt.Errorf("adapter %s listed twice", a.Name())
		}
		seen[a.Name()] = true
	}

	r.mu.Lock()
	r.adapters = append([]Adapter(nil), adapters...)
	r.mu.Unlock()

	r.logger.Info("adapter set replaced", "adapters", len(adapters))
	return nil
}

// ListAdapters returns the registered adapter names in registration order
func (r *Registry) ListAdapters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}

// Collect runs every adapter concurrently and merges their batches. The
// returned error joins each failing adapter's error; the batch still holds
// whatever was gathered.
func (r *Registry) Collect(ctx context.Context, at time.Time) (*domain.Batch, error) {
	r.mu.RLock()
	adapters := append([]Adapter(nil), r.adapters...)
	r.mu.RUnlock()

	if len(adapters) == 0 {
		return nil, errors.New("no adapters registered")
	}

	batches := make([]*domain.Batch, len(adapters))
	errs := make([]error, len(adapters))

	var g errgroup.Group
	for i, a := range adapters {
		i, a := i, a
		g.Go(func() error {
			start := time.Now()
			batches[i], errs[i] = a.Collect(ctx, at)
			if errs[i] != nil {
				errs[i] = fmt.Errorf("%s: %w", a.Name(), errs[i])
			}
			r.logger.Debug("adapter finished", "adapter", a.Name(), "elapsed", time.Since(start), "ok", errs[i] == nil)
			return nil
		})
	}
	g.Wait()

	merged := domain.NewBatch()
	for _, b := range batches {
		merged.Merge(b)
	}
	return merged, errors.Join(errs...)
}
