package ports

import (
	"context"

	"github.com/aretw0/rewind/pkg/domain"
)

// ConfigLoader defines how a machine configuration is materialized.
// This allows the source (files, Loam directories, memory, builders) to be decoupled
// from the engine, which only ever sees a ready domain.Config.
type ConfigLoader interface {
	// Load returns a fully built configuration or an error describing why it could not be read.
	Load(ctx context.Context) (*domain.Config, error)
}

// LoaderFunc adapts an ordinary function to ConfigLoader.
type LoaderFunc func(ctx context.Context) (*domain.Config, error)

// Load calls f(ctx).
func (f LoaderFunc) Load(ctx context.Context) (*domain.Config, error) {
	return f(ctx)
}
