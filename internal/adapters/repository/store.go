// Package repository persists tuned configurations and the ratings they produced.
package repository

import (
	"context"

	"github.com/okian/gridiron/internal/domain/model"
)

// Store provides read/write access to tuned configurations.
type Store interface {
	// SaveConfiguration stores cfg together with the ratings replayed under it.
	SaveConfiguration(ctx context.Context, cfg model.TunedConfiguration, ratings map[string]float64) error

	// LatestConfiguration returns the most recently created configuration.
	// Returns ErrNotFound when none is stored.
	LatestConfiguration(ctx context.Context) (model.TunedConfiguration, error)

	// Configuration returns one configuration by id.
	Configuration(ctx context.Context, id string) (model.TunedConfiguration, error)

	// Ratings returns the ratings stored with configuration id.
	Ratings(ctx context.Context, id string) (map[string]float64, error)

	// Configurations lists up to limit configurations, newest first.
	Configurations(ctx context.Context, limit int) ([]model.TunedConfiguration, error)

	Close() error
}
