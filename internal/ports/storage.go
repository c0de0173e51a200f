package ports

import (
	"context"

	"campus-dispatch-service/internal/domain"
)

// Simple string key-value persistence for history and preferences.
type KVStore interface {
	// Get reports ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Port: a boundary for retrieving campus locations from a data source.
type LocationRepository interface {
	// Retrieve all locations in display order.
	ListLocations(ctx context.Context) ([]domain.Location, error)
	// Retrieve one location; returns domain.ErrLocationNotFound when missing.
	GetLocation(ctx context.Context, id string) (domain.Location, error)
}
