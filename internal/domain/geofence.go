package domain

import (
	"errors"
	"math/rand/v2"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Rejection-sampling attempts before RandomPointInside gives up.
const randomPointAttempts = 20

// GeoFence is the fixed campus boundary. It is built once at startup and
// never mutated afterwards.
type GeoFence struct {
	ring  orb.Ring
	bound orb.Bound
}

func NewGeoFence(points []Coordinates) (*GeoFence, error) {
	if len(points) < 3 {
		return nil, errors.New("new geofence: ring needs at least 3 points")
	}

	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, p.Point())
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}

	return &GeoFence{ring: ring, bound: ring.Bound()}, nil
}

// Contains reports whether point lies inside the boundary ring.
func (g *GeoFence) Contains(point Coordinates) bool {
	if !g.bound.Contains(point.Point()) {
		return false
	}
	return planar.RingContains(g.ring, point.Point())
}

// RandomPointInside samples uniformly within the ring's bounding box until a
// point lands inside. After randomPointAttempts misses the last sample is
// returned anyway, so callers must not assume strict containment.
func (g *GeoFence) RandomPointInside(rng *rand.Rand) Coordinates {
	var p Coordinates
	for i := 0; i < randomPointAttempts; i++ {
		p = Coordinates{
			Lon: g.bound.Min.Lon() + rng.Float64()*(g.bound.Max.Lon()-g.bound.Min.Lon()),
			Lat: g.bound.Min.Lat() + rng.Float64()*(g.bound.Max.Lat()-g.bound.Min.Lat()),
		}
		if g.Contains(p) {
			return p
		}
	}
	return p
}

// Ring returns the boundary points, closing point included.
func (g *GeoFence) Ring() []Coordinates {
	out := make([]Coordinates, 0, len(g.ring))
	for _, p := range g.ring {
		out = append(out, FromPoint(p))
	}
	return out
}
