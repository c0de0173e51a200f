package domain

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64 `json:"lng" yaml:"lng"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Point converts to an orb point (x=lon, y=lat).
func (c Coordinates) Point() orb.Point { return orb.Point{c.Lon, c.Lat} }

// DistanceTo returns the great-circle distance in meters.
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	return geo.DistanceHaversine(c.Point(), other.Point())
}

// String formats the pair as "lon,lat" with six decimals, the precision
// routing providers accept and cache keys rely on.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
}

func FromPoint(p orb.Point) Coordinates {
	return Coordinates{Lon: p.Lon(), Lat: p.Lat()}
}
