package domain

// Consecutive path points closer than this are treated as duplicates.
const MinPointSpacingMeters = 0.5

// Represents one planned A->B leg returned by the routing provider.
// A RouteSegment is immutable once produced.
type RouteSegment struct {
	Index           int
	From            Coordinates
	To              Coordinates
	Path            []Coordinates
	DistanceMeters  int
	DurationSeconds int
}

// Represents the merged path across all legs of one mission phase,
// along with aggregate distance and duration metrics.
type ComposedRoute struct {
	Path                 []Coordinates
	TotalDistanceMeters  int
	TotalDurationSeconds int
	Legs                 int
}

// CleanPath drops every point that lies within MinPointSpacingMeters of the
// last kept point. The first point is always kept.
func CleanPath(path []Coordinates) []Coordinates {
	if len(path) == 0 {
		return []Coordinates{}
	}

	out := make([]Coordinates, 0, len(path))
	out = append(out, path[0])
	for _, p := range path[1:] {
		out = AppendSpaced(out, p)
	}
	return out
}

// AppendSpaced appends p unless it collapses onto the current last point.
func AppendSpaced(path []Coordinates, p Coordinates) []Coordinates {
	if n := len(path); n > 0 && path[n-1].DistanceTo(p) <= MinPointSpacingMeters {
		return path
	}
	return append(path, p)
}

// Clone returns a deep copy so callers cannot mutate a stored route.
func (r ComposedRoute) Clone() ComposedRoute {
	r.Path = append([]Coordinates(nil), r.Path...)
	return r
}
