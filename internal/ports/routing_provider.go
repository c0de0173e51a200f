package ports

import (
	"context"

	"campus-dispatch-service/internal/domain"
)

// Status reported by a provider for a usable answer.
const RouteStatusComplete = "complete"

// One step of a riding/walking instruction list.
type RouteStep struct {
	Path []domain.Coordinates `json:"path"`
}

// A transit-style ride; providers that return rides may put the geometry on
// the ride itself, on its steps, or both.
type RouteRide struct {
	Path  []domain.Coordinates `json:"path"`
	Steps []RouteStep          `json:"steps"`
}

// One candidate route. Distance is meters, Time is seconds, both as the
// provider reports them.
type Route struct {
	Distance float64              `json:"distance"`
	Time     float64              `json:"time"`
	Rides    []RouteRide          `json:"rides,omitempty"`
	Steps    []RouteStep          `json:"steps,omitempty"`
	Path     []domain.Coordinates `json:"path,omitempty"`
}

// Normalized answer of a routing provider for one A->B search.
// Raw keeps the provider's own payload for diagnostics.
type RouteResult struct {
	Status string  `json:"status"`
	Routes []Route `json:"routes"`
	Raw    string  `json:"-"`
}

// Contract for computing a path between two coordinates.
type RoutingProvider interface {
	// Search returns the provider's routes from one coordinate to another.
	// A transport failure is an error; a provider-level refusal is reported
	// through Status.
	Search(ctx context.Context, from, to domain.Coordinates) (RouteResult, error)
}

// Persistent store for provider answers, keyed by "lon,lat" strings.
type LegCache interface {
	GetLeg(ctx context.Context, origin, destination string) (RouteResult, bool, error)
	PutLeg(ctx context.Context, origin, destination string, result RouteResult) error
}
