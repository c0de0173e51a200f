package domain

// Location categories used by the campus data.
const (
	CategoryDorm      = "dorm"
	CategoryOffice    = "office"
	CategoryLibrary   = "library"
	CategoryClassroom = "classroom"
)

// A named pickup/drop-off point on campus.
// Disabled locations stay visible but cannot be selected for a mission.
type Location struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Category string      `json:"category" yaml:"category"`
	Position Coordinates `json:"position" yaml:"position"`
	Enabled  bool        `json:"enabled" yaml:"enabled"`
}
