package routing

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/ports"
)

func TestParsePolyline(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"two points", "118.905,32.105;118.906,32.106", 2, false},
		{"spaces", " 118.905, 32.105 ", 1, false},
		{"missing comma", "118.905;32.105", 0, true},
		{"not a number", "abc,32.1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePolyline(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestAMapRidingSearch(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{"origin": q.Get("origin"), "destination": q.Get("destination"), "key": q.Get("key")}
		_, _ = io.WriteString(w, `{"errcode":0,"errmsg":"OK","data":{"paths":[{"distance":640,"duration":160,
			"steps":[{"polyline":"118.905000,32.105000;118.906000,32.106000"},{"polyline":"118.906000,32.106000;118.910000,32.110000"}]}]}}`)
	}))
	defer srv.Close()

	p, err := NewAMapRidingProvider("k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.WithBaseURL(srv.URL)

	from := domain.Coordinates{Lon: 118.905, Lat: 32.105}
	to := domain.Coordinates{Lon: 118.91, Lat: 32.11}
	res, err := p.Search(context.Background(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery["origin"] != "118.905000,32.105000" || gotQuery["key"] != "k1" {
		t.Fatalf("query = %v", gotQuery)
	}
	if res.Status != ports.RouteStatusComplete || len(res.Routes) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if got := len(res.Routes[0].Steps); got != 2 {
		t.Fatalf("steps = %d, want 2", got)
	}
	if res.Routes[0].Distance != 640 {
		t.Fatalf("distance = %v, want 640", res.Routes[0].Distance)
	}
}

func TestDecodeAMapRidingError(t *testing.T) {
	res, err := decodeAMapRiding([]byte(`{"errcode":30001,"errmsg":"ENGINE_RESPONSE_DATA_ERROR","data":{}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != "error:30001:ENGINE_RESPONSE_DATA_ERROR" {
		t.Fatalf("status = %q", res.Status)
	}
	if len(res.Routes) != 0 {
		t.Fatalf("routes = %d, want 0", len(res.Routes))
	}
}
