package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/platform/httpx"
	"campus-dispatch-service/internal/platform/obs"
	"campus-dispatch-service/internal/ports"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	orsBaseURL        = "https://api.openrouteservice.org"
	orsDefaultProfile = "cycling-regular"
)

// ORSDirectionsProvider implements RoutingProvider with the OpenRouteService
// directions endpoint in GeoJSON form.
type ORSDirectionsProvider struct {
	client  *httpx.Client
	baseURL string
	profile string
}

func NewORSDirectionsProvider(apiKey, profile string) (*ORSDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if profile == "" {
		profile = orsDefaultProfile
	}

	return &ORSDirectionsProvider{
		client:  httpx.NewClient(10*time.Second, http.Header{"Authorization": {apiKey}}),
		baseURL: orsBaseURL,
		profile: profile,
	}, nil
}

// WithBaseURL points the provider at another host (self-hosted ORS, tests).
func (o *ORSDirectionsProvider) WithBaseURL(u string) *ORSDirectionsProvider {
	o.baseURL = u
	return o
}

func (o *ORSDirectionsProvider) WithClient(c *httpx.Client) *ORSDirectionsProvider {
	o.client = c
	return o
}

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type orsSummary struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

func (o *ORSDirectionsProvider) Search(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Search")(&err)

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	payload, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{from.CoordsToList(), to.CoordsToList()},
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.client.DoWithRetry(ctx, func() (*http.Request, error) {
		return o.client.NewRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) {
			return ports.RouteResult{Status: "error", Raw: se.Body}, fmt.Errorf("directions request failed: %w", err)
		}
		return ports.RouteResult{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("read directions response: %w", err)
	}

	return decodeORSDirections(body)
}

// decodeORSDirections maps each LineString feature to one route.
func decodeORSDirections(body []byte) (ports.RouteResult, error) {
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return ports.RouteResult{Raw: string(body)}, fmt.Errorf("decode directions response: %w", err)
	}

	res := ports.RouteResult{Status: ports.RouteStatusComplete, Raw: string(body)}
	for _, f := range fc.Features {
		line, ok := f.Geometry.(orb.LineString)
		if !ok {
			continue
		}

		route := ports.Route{Path: make([]domain.Coordinates, 0, len(line))}
		for _, p := range line {
			route.Path = append(route.Path, domain.FromPoint(p))
		}

		if raw, ok := f.Properties["summary"]; ok {
			var s orsSummary
			if b, err := json.Marshal(raw); err == nil && json.Unmarshal(b, &s) == nil {
				route.Distance = s.Distance
				route.Time = s.Duration
			}
		}

		res.Routes = append(res.Routes, route)
	}

	if len(res.Routes) == 0 {
		res.Status = "no_route"
	}
	return res, nil
}
