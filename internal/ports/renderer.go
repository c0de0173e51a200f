package ports

import "campus-dispatch-service/internal/domain"

type ListenerID uint64

// Easing curves understood by renderers.
const (
	EasingLinear = "linear"
)

type MoveOptions struct {
	SpeedKmh float64
	Easing   string
}

// Renderer animates the single vehicle marker.
type Renderer interface {
	// MoveAlong replaces any running animation with one along path.
	MoveAlong(path []domain.Coordinates, opts MoveOptions)
	StopMove()
	Position() domain.Coordinates
	// OnArrival registers fn to run when an animation reaches its last point.
	OnArrival(fn func()) ListenerID
	OffArrival(id ListenerID)
}

// Optional extension of Renderer with native pause support.
type PausableRenderer interface {
	Renderer
	PauseMove()
	ResumeMove()
}
