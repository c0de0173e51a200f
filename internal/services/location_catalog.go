package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/ports"
)

// Storage key for the number of volunteers staffing the library desk.
const VolunteerCountKey = "volunteer_count"

const defaultVolunteerCount = 1

// LocationCatalog resolves campus locations and applies runtime availability:
// the library can only be selected while at least one volunteer is on duty.
type LocationCatalog struct {
	repo  ports.LocationRepository
	store ports.KVStore
}

func NewLocationCatalog(repo ports.LocationRepository, store ports.KVStore) *LocationCatalog {
	return &LocationCatalog{repo: repo, store: store}
}

func (c *LocationCatalog) List(ctx context.Context) ([]domain.Location, error) {
	locs, err := c.repo.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	volunteers := c.volunteers(ctx)
	out := make([]domain.Location, 0, len(locs))
	for _, l := range locs {
		out = append(out, applyAvailability(l, volunteers))
	}
	return out, nil
}

// Resolve returns domain.ErrLocationNotFound for unknown ids.
func (c *LocationCatalog) Resolve(ctx context.Context, id string) (domain.Location, error) {
	loc, err := c.repo.GetLocation(ctx, id)
	if err != nil {
		return domain.Location{}, fmt.Errorf("resolve location %q: %w", id, err)
	}
	return applyAvailability(loc, c.volunteers(ctx)), nil
}

func (c *LocationCatalog) VolunteerCount(ctx context.Context) (int, error) {
	raw, ok, err := c.store.Get(ctx, VolunteerCountKey)
	if err != nil {
		return 0, fmt.Errorf("volunteer count: %w", err)
	}
	if !ok {
		return defaultVolunteerCount, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return defaultVolunteerCount, nil
	}
	return n, nil
}

func (c *LocationCatalog) SetVolunteerCount(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("set volunteer count: %w: count must be >= 0", domain.ErrValidation)
	}
	if err := c.store.Set(ctx, VolunteerCountKey, strconv.Itoa(n)); err != nil {
		return fmt.Errorf("set volunteer count: %w", err)
	}
	return nil
}

// volunteers falls back to the default when storage is unavailable so that a
// flaky store does not hide the library.
func (c *LocationCatalog) volunteers(ctx context.Context) int {
	n, err := c.VolunteerCount(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("op=catalog.volunteers err=%v", err)
		return defaultVolunteerCount
	}
	return n
}

func applyAvailability(l domain.Location, volunteers int) domain.Location {
	if l.Category == domain.CategoryLibrary && volunteers == 0 {
		l.Enabled = false
	}
	return l
}
