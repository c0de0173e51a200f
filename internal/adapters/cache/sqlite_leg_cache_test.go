package cache

import (
	"context"
	"database/sql"
	"testing"

	"campus-dispatch-service/internal/adapters/repositories"
	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/ports"

	_ "modernc.org/sqlite"
)

func TestSqliteLegCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	defer db.Close()

	if err := repositories.InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	c := NewSqliteLegCache(db)

	if _, ok, err := c.GetLeg(ctx, "a", "b"); err != nil || ok {
		t.Fatalf("get empty = ok %v, err %v", ok, err)
	}

	res := ports.RouteResult{
		Status: ports.RouteStatusComplete,
		Routes: []ports.Route{{
			Distance: 120,
			Time:     30,
			Path:     []domain.Coordinates{{Lon: 118.9, Lat: 32.1}, {Lon: 118.901, Lat: 32.1}},
		}},
		Raw: "not stored",
	}
	if err := c.PutLeg(ctx, "a", "b", res); err != nil {
		t.Fatalf("put: %v", err)
	}
	res.Routes[0].Distance = 150
	if err := c.PutLeg(ctx, "a", "b", res); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, ok, err := c.GetLeg(ctx, "a", "b")
	if err != nil || !ok {
		t.Fatalf("get = ok %v, err %v", ok, err)
	}
	if got.Status != ports.RouteStatusComplete || len(got.Routes) != 1 {
		t.Fatalf("result = %+v", got)
	}
	if got.Routes[0].Distance != 150 || len(got.Routes[0].Path) != 2 {
		t.Fatalf("route = %+v", got.Routes[0])
	}
	if got.Raw != "" {
		t.Fatalf("raw = %q, want empty", got.Raw)
	}

	if _, _, err := c.GetLeg(ctx, "", "b"); err == nil {
		t.Fatal("expected error for empty origin")
	}
}
