package adapter

import (
	"context"
	"time"

	"clientparser/internal/domain"
)

// Adapter pulls one kind of inventory from an authoritative service
type Adapter interface {
	// Name returns the unique identifier for this adapter
	Name() string

	// Collect invokes the source for every configured target and returns
	// what it gathered. A partial batch may accompany a non-nil error.
	Collect(ctx context.Context, at time.Time) (*domain.Batch, error)
}

// Runner executes an external command and returns its standard output
type Runner interface {
	Output(ctx context.Context, name string, args ...string) (string, error)
}
