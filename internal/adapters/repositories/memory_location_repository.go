package repositories

import (
	"context"
	"fmt"

	"campus-dispatch-service/internal/domain"
)

// In-memory LocationRepository over a fixed slice, used when the campus is
// loaded straight from YAML and in tests.
type MemoryLocationRepository struct {
	locations []domain.Location
	byID      map[string]int
}

func NewMemoryLocationRepository(locations []domain.Location) *MemoryLocationRepository {
	r := &MemoryLocationRepository{
		locations: append([]domain.Location(nil), locations...),
		byID:      make(map[string]int, len(locations)),
	}
	for i, l := range r.locations {
		r.byID[l.ID] = i
	}
	return r
}

func (r *MemoryLocationRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	return append([]domain.Location(nil), r.locations...), nil
}

func (r *MemoryLocationRepository) GetLocation(ctx context.Context, id string) (domain.Location, error) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Location{}, fmt.Errorf("get location %q: %w", id, domain.ErrLocationNotFound)
	}
	return r.locations[i], nil
}
