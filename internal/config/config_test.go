package config

import (
	"testing"
	"time"
)

func TestLoadCampusDefault(t *testing.T) {
	c, err := LoadCampus("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.Locations) != 9 {
		t.Fatalf("locations = %d, want 9", len(c.Locations))
	}
	if len(c.Geofence) != 12 {
		t.Fatalf("geofence points = %d, want 12", len(c.Geofence))
	}

	depot, ok := c.DepotLocation()
	if !ok || depot.Name != "交通大楼" {
		t.Fatalf("depot = %+v, want 交通大楼", depot)
	}

	for _, l := range c.Locations {
		if l.ID == "teaching_south" && l.Enabled {
			t.Fatalf("teaching_south should ship disabled")
		}
		if l.ID == "library" && l.Position.Lat != 31.88836 {
			t.Fatalf("library lat = %v, want 31.88836", l.Position.Lat)
		}
	}
}

func TestParseCampusRejectsUnknownDepot(t *testing.T) {
	data := []byte(`
depot: nowhere
geofence:
  - {lng: 0, lat: 0}
  - {lng: 1, lat: 0}
  - {lng: 1, lat: 1}
locations:
  - {id: a, name: A, category: dorm, position: {lng: 0.5, lat: 0.2}, enabled: true}
`)
	if _, err := ParseCampus(data); err == nil {
		t.Fatal("expected error for unknown depot")
	}
}

func TestGetHelpers(t *testing.T) {
	t.Setenv("CONFIRM_TIMEOUT", "90s")
	t.Setenv("VEHICLE_SPEED_KMH", "fast")

	d, err := GetDuration("CONFIRM_TIMEOUT", 0)
	if err != nil || d != 90*time.Second {
		t.Fatalf("GetDuration = %v, %v, want 90s", d, err)
	}
	if _, err := GetFloat("VEHICLE_SPEED_KMH", 20); err == nil {
		t.Fatal("expected parse error")
	}
	if got := Get("UNSET_FOR_TEST_123", "x"); got != "x" {
		t.Fatalf("Get = %q, want x", got)
	}
}

func TestLoadRejectsMissingProviderKey(t *testing.T) {
	t.Setenv("ROUTING_PROVIDER", "ors")
	t.Setenv("ORS_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when ORS key is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ROUTING_PROVIDER", "")
	t.Setenv("WEATHER_PROVIDER", "")
	t.Setenv("VEHICLE_SPEED_KMH", "")
	t.Setenv("RETURN_SPEED_KMH", "")
	t.Setenv("VEHICLE_START", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RoutingProvider != "mock" || cfg.SpeedKmh != 20 || cfg.ReturnSpeedKmh != 30 {
		t.Fatalf("cfg = %+v, want mock provider at 20/30 km/h", cfg)
	}
	if cfg.VehicleStart != "depot" {
		t.Fatalf("vehicle start = %q, want depot", cfg.VehicleStart)
	}
}

func TestLoadRejectsUnknownVehicleStart(t *testing.T) {
	t.Setenv("ROUTING_PROVIDER", "")
	t.Setenv("WEATHER_PROVIDER", "")
	t.Setenv("VEHICLE_START", "roof")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown vehicle start")
	}
}

func TestDepotLocationMissing(t *testing.T) {
	c := Campus{Depot: "dorm_c"}
	if _, ok := c.DepotLocation(); ok {
		t.Fatal("expected no depot for an empty location list")
	}
}
