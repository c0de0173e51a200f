package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/platform/httpx"
	"campus-dispatch-service/internal/platform/obs"
	"campus-dispatch-service/internal/ports"
)

const amapBaseURL = "https://restapi.amap.com"

// AMapRidingProvider implements RoutingProvider with the AMap bicycling
// direction API. Coordinates are GCJ-02, matching the campus data.
type AMapRidingProvider struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
}

func NewAMapRidingProvider(apiKey string) (*AMapRidingProvider, error) {
	if apiKey == "" {
		return nil, errors.New("AMap api key is empty")
	}
	return &AMapRidingProvider{
		client:  httpx.NewClient(10*time.Second, nil),
		baseURL: amapBaseURL,
		apiKey:  apiKey,
	}, nil
}

func (a *AMapRidingProvider) WithBaseURL(u string) *AMapRidingProvider {
	a.baseURL = u
	return a
}

type amapStep struct {
	Polyline string `json:"polyline"`
}

type amapPath struct {
	Distance float64    `json:"distance"`
	Duration float64    `json:"duration"`
	Steps    []amapStep `json:"steps"`
}

type amapRidingResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
	Data    struct {
		Paths []amapPath `json:"paths"`
	} `json:"data"`
}

func (a *AMapRidingProvider) Search(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "amap.Search")(&err)

	q := url.Values{}
	q.Set("origin", from.String())
	q.Set("destination", to.String())
	q.Set("key", a.apiKey)
	endpoint := a.baseURL + "/v4/direction/bicycling?" + q.Encode()

	resp, err := a.client.DoWithRetry(ctx, func() (*http.Request, error) {
		return a.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("riding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("read riding response: %w", err)
	}

	return decodeAMapRiding(body)
}

func decodeAMapRiding(body []byte) (ports.RouteResult, error) {
	var r amapRidingResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return ports.RouteResult{Raw: string(body)}, fmt.Errorf("decode riding response: %w", err)
	}

	res := ports.RouteResult{Raw: string(body)}
	if r.ErrCode != 0 {
		res.Status = fmt.Sprintf("error:%d:%s", r.ErrCode, r.ErrMsg)
		return res, nil
	}

	res.Status = ports.RouteStatusComplete
	for _, p := range r.Data.Paths {
		route := ports.Route{Distance: p.Distance, Time: p.Duration}
		for i, s := range p.Steps {
			pts, err := ParsePolyline(s.Polyline)
			if err != nil {
				return res, fmt.Errorf("decode riding step %d: %w", i+1, err)
			}
			route.Steps = append(route.Steps, ports.RouteStep{Path: pts})
		}
		res.Routes = append(res.Routes, route)
	}
	return res, nil
}

// ParsePolyline reads AMap's "lng,lat;lng,lat" encoding.
func ParsePolyline(s string) ([]domain.Coordinates, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ";")
	out := make([]domain.Coordinates, 0, len(parts))
	for _, part := range parts {
		lng, lat, ok := strings.Cut(part, ",")
		if !ok {
			return nil, fmt.Errorf("polyline point %q: missing comma", part)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
		if err != nil {
			return nil, fmt.Errorf("polyline point %q: %w", part, err)
		}
		la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
		if err != nil {
			return nil, fmt.Errorf("polyline point %q: %w", part, err)
		}
		out = append(out, domain.Coordinates{Lon: lon, Lat: la})
	}
	return out, nil
}
