package routing

import (
	"context"
	"fmt"
	"math"
	"sync"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/ports"
)

// Cruising speed the mock uses to derive durations (about 14 km/h).
const mockSpeedMps = 4.0

// Spacing of interpolated points along a mock route.
const mockStepMeters = 25.0

type MockCall struct {
	From, To domain.Coordinates
}

// MockRoutingProvider answers with straight-line routes unless a result or a
// failure was configured for a given pair or call number. It records every
// call in order.
type MockRoutingProvider struct {
	mu        sync.Mutex
	overrides map[string]ports.RouteResult
	failures  map[int]error
	statuses  map[int]string
	calls     []MockCall
	hook      func(n int)
}

func NewMockRoutingProvider() *MockRoutingProvider {
	return &MockRoutingProvider{
		overrides: map[string]ports.RouteResult{},
		failures:  map[int]error{},
		statuses:  map[int]string{},
	}
}

func pairKey(from, to domain.Coordinates) string {
	return from.String() + "|" + to.String()
}

// SetRoute fixes the answer for one from->to pair.
func (p *MockRoutingProvider) SetRoute(from, to domain.Coordinates, res ports.RouteResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrides[pairKey(from, to)] = res
}

// FailCall makes the n-th call (0-based) return err.
func (p *MockRoutingProvider) FailCall(n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[n] = err
}

// RefuseCall makes the n-th call (0-based) answer with a non-complete status.
func (p *MockRoutingProvider) RefuseCall(n int, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[n] = status
}

// OnCall registers fn to run at the start of every call with its number.
func (p *MockRoutingProvider) OnCall(fn func(n int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hook = fn
}

func (p *MockRoutingProvider) Calls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]MockCall(nil), p.calls...)
}

func (p *MockRoutingProvider) Search(ctx context.Context, from, to domain.Coordinates) (ports.RouteResult, error) {
	p.mu.Lock()
	n := len(p.calls)
	p.calls = append(p.calls, MockCall{From: from, To: to})
	hook := p.hook
	failErr, fail := p.failures[n]
	status, refuse := p.statuses[n]
	res, override := p.overrides[pairKey(from, to)]
	p.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err := ctx.Err(); err != nil {
		return ports.RouteResult{}, err
	}
	if fail {
		return ports.RouteResult{Raw: failErr.Error()}, failErr
	}
	if refuse {
		return ports.RouteResult{Status: status, Raw: fmt.Sprintf(`{"status":%q}`, status)}, nil
	}
	if override {
		return res, nil
	}

	return StraightLine(from, to), nil
}

// StraightLine builds a route along the segment from->to with points every
// mockStepMeters.
func StraightLine(from, to domain.Coordinates) ports.RouteResult {
	d := from.DistanceTo(to)
	steps := int(math.Max(1, math.Ceil(d/mockStepMeters)))

	path := make([]domain.Coordinates, 0, steps+1)
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		path = append(path, domain.Coordinates{
			Lon: from.Lon + (to.Lon-from.Lon)*f,
			Lat: from.Lat + (to.Lat-from.Lat)*f,
		})
	}

	return ports.RouteResult{
		Status: ports.RouteStatusComplete,
		Routes: []ports.Route{{
			Distance: d,
			Time:     d / mockSpeedMps,
			Path:     path,
		}},
		Raw: "mock",
	}
}
