package adapter

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"clientparser/internal/domain"
)

// collectFunc produces the batch for a single target
type collectFunc func(ctx context.Context, target string) (*domain.Batch, error)

// gather runs fn for every target on a pool of at most workers goroutines.
// A failing target never cancels its siblings. Batches are merged in target
// order.
func gather(ctx context.Context, adapter string, workers int, targets []string, fn collectFunc) (*domain.Batch, error) {
	batches := make([]*domain.Batch, len(targets))
	errs := make([]error, len(targets))

	// no WithContext: siblings keep running after a failure
	var g errgroup.Group
	g.SetLimit(workers)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			b, err := fn(ctx, target)
			batches[i] = b
			if err != nil {
				errs[i] = &domain.SourceInvocationError{Adapter: adapter, Target: target, Err: err}
			}
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
