package domain

import (
	"errors"
	"math/rand/v2"
	"testing"
)

var testRing = []Coordinates{
	{Lon: 118.81407, Lat: 31.890719},
	{Lon: 118.813826, Lat: 31.886345},
	{Lon: 118.81932, Lat: 31.886573},
	{Lon: 118.82352, Lat: 31.886801},
	{Lon: 118.825095, Lat: 31.886879},
	{Lon: 118.828425, Lat: 31.887076},
	{Lon: 118.828388, Lat: 31.889761},
	{Lon: 118.828401, Lat: 31.89115},
	{Lon: 118.828413, Lat: 31.89229},
	{Lon: 118.825031, Lat: 31.891928},
	{Lon: 118.822272, Lat: 31.891461},
	{Lon: 118.820929, Lat: 31.891316},
}

func TestGeoFenceContains(t *testing.T) {
	fence, err := NewGeoFence(testRing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		point Coordinates
		want  bool
	}{
		{"library", Coordinates{Lon: 118.819181, Lat: 31.88836}, true},
		{"depot", Coordinates{Lon: 118.823748, Lat: 31.890009}, true},
		{"far east", Coordinates{Lon: 118.84, Lat: 31.889}, false},
		{"south of campus", Coordinates{Lon: 118.82, Lat: 31.88}, false},
		{"inside bound but outside ring", Coordinates{Lon: 118.8145, Lat: 31.8918}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fence.Contains(tt.point); got != tt.want {
				t.Fatalf("Contains(%s) = %v, want %v", tt.point, got, tt.want)
			}
			// Pure: repeated calls agree.
			if got := fence.Contains(tt.point); got != tt.want {
				t.Fatalf("second Contains(%s) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestNewGeoFenceRejectsShortRing(t *testing.T) {
	_, err := NewGeoFence(testRing[:2])
	if err == nil {
		t.Fatal("expected error for a 2-point ring")
	}
}

func TestGeoFenceRingIsClosed(t *testing.T) {
	fence, _ := NewGeoFence(testRing)
	ring := fence.Ring()
	if len(ring) != len(testRing)+1 {
		t.Fatalf("ring len = %d, want %d", len(ring), len(testRing)+1)
	}
	if ring[0] != ring[len(ring)-1] {
		t.Fatalf("ring not closed: first %s last %s", ring[0], ring[len(ring)-1])
	}
}

func TestRandomPointInside(t *testing.T) {
	fence, _ := NewGeoFence(testRing)
	rng := rand.New(rand.NewPCG(1, 2))

	inside := 0
	for i := 0; i < 200; i++ {
		if fence.Contains(fence.RandomPointInside(rng)) {
			inside++
		}
	}
	// The campus ring covers most of its bound, so 20 tries practically
	// always land inside.
	if inside < 195 {
		t.Fatalf("inside = %d of 200, want at least 195", inside)
	}
}

func TestRandomPointInsideFallsBackToLastSample(t *testing.T) {
	// A sliver triangle occupies almost none of its bound.
	fence, _ := NewGeoFence([]Coordinates{
		{Lon: 0, Lat: 0},
		{Lon: 10, Lat: 10},
		{Lon: 10, Lat: 10.0000001},
	})
	rng := rand.New(rand.NewPCG(7, 7))

	p := fence.RandomPointInside(rng)
	if p.Lon < 0 || p.Lon > 10 || p.Lat < 0 || p.Lat > 10.0000001 {
		t.Fatalf("fallback point %s outside the bound", p)
	}
}

func TestGeofenceErrorMatchesSentinel(t *testing.T) {
	err := error(&GeofenceError{Index: 0, Point: Coordinates{Lon: 1, Lat: 2}})
	if !errors.Is(err, ErrGeofenceViolation) {
		t.Fatalf("errors.Is(%v, ErrGeofenceViolation) = false", err)
	}
	if got, want := err.Error(), "waypoint 1 (1.000000,2.000000) is outside the geofence"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
