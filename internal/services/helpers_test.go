package services

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"campus-dispatch-service/internal/adapters/events"
	"campus-dispatch-service/internal/adapters/kvstore"
	"campus-dispatch-service/internal/adapters/repositories"
	"campus-dispatch-service/internal/adapters/routing"
	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/ports"
)

var (
	testDepot = domain.Location{
		ID: "depot", Name: "Depot", Category: domain.CategoryDorm,
		Position: domain.Coordinates{Lon: 118.905, Lat: 32.105}, Enabled: true,
	}
	testDorm = domain.Location{
		ID: "dorm_a", Name: "Dorm A", Category: domain.CategoryDorm,
		Position: domain.Coordinates{Lon: 118.910, Lat: 32.110}, Enabled: true,
	}
	testLibrary = domain.Location{
		ID: "library", Name: "Library", Category: domain.CategoryLibrary,
		Position: domain.Coordinates{Lon: 118.915, Lat: 32.115}, Enabled: true,
	}
	testOffice = domain.Location{
		ID: "office", Name: "Office", Category: domain.CategoryOffice,
		Position: domain.Coordinates{Lon: 118.912, Lat: 32.108}, Enabled: true,
	}
	testClosed = domain.Location{
		ID: "closed", Name: "Closed Hall", Category: domain.CategoryClassroom,
		Position: domain.Coordinates{Lon: 118.908, Lat: 32.112}, Enabled: false,
	}
)

func testFence() *domain.GeoFence {
	fence, err := domain.NewGeoFence([]domain.Coordinates{
		{Lon: 118.90, Lat: 32.10},
		{Lon: 118.92, Lat: 32.10},
		{Lon: 118.92, Lat: 32.12},
		{Lon: 118.90, Lat: 32.12},
	})
	if err != nil {
		panic(err)
	}
	return fence
}

// fakeRenderer jumps to the end of a path only when arrive is called.
type fakeRenderer struct {
	mu        sync.Mutex
	pos       domain.Coordinates
	path      []domain.Coordinates
	opts      []ports.MoveOptions
	listeners map[ports.ListenerID]func()
	nextID    ports.ListenerID
	pauses    int
	resumes   int
	stops     int
}

func newFakeRenderer(start domain.Coordinates) *fakeRenderer {
	return &fakeRenderer{pos: start, listeners: map[ports.ListenerID]func(){}}
}

func (r *fakeRenderer) MoveAlong(path []domain.Coordinates, opts ports.MoveOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = append([]domain.Coordinates(nil), path...)
	r.opts = append(r.opts, opts)
}

func (r *fakeRenderer) StopMove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = nil
	r.stops++
}

func (r *fakeRenderer) Position() domain.Coordinates {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

func (r *fakeRenderer) OnArrival(fn func()) ports.ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.listeners[r.nextID] = fn
	return r.nextID
}

func (r *fakeRenderer) OffArrival(id ports.ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, id)
}

func (r *fakeRenderer) PauseMove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauses++
}

func (r *fakeRenderer) ResumeMove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumes++
}

// arrive moves to the last point of the current path and fires listeners
// outside the lock, the way a real renderer does.
func (r *fakeRenderer) arrive() {
	r.mu.Lock()
	if len(r.path) > 0 {
		r.pos = r.path[len(r.path)-1]
	}
	fns := make([]func(), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (r *fakeRenderer) moves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.opts)
}

func (r *fakeRenderer) lastOpts() ports.MoveOptions {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.opts) == 0 {
		return ports.MoveOptions{}
	}
	return r.opts[len(r.opts)-1]
}

func (r *fakeRenderer) counts() (pauses, resumes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pauses, r.resumes
}

// fakeTimers captures AfterFunc callbacks so tests decide when they fire.
type fakeTimers struct {
	mu      sync.Mutex
	pending []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (ft *fakeTimers) AfterFunc(d time.Duration, f func()) func() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	ft.pending = append(ft.pending, t)
	return func() bool {
		ft.mu.Lock()
		defer ft.mu.Unlock()
		was := !t.stopped
		t.stopped = true
		return was
	}
}

// fireAll runs every timer that has not been stopped.
func (ft *fakeTimers) fireAll() int {
	ft.mu.Lock()
	var due []*fakeTimer
	for _, t := range ft.pending {
		if !t.stopped {
			t.stopped = true
			due = append(due, t)
		}
	}
	ft.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}

// jobQueue holds planning jobs until run is called.
type jobQueue struct {
	mu   sync.Mutex
	jobs []func()
}

func (q *jobQueue) dispatch(job func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
}

func (q *jobQueue) run() {
	q.mu.Lock()
	jobs := q.jobs
	q.jobs = nil
	q.mu.Unlock()

	for _, job := range jobs {
		job()
	}
}

type harness struct {
	ctrl     *MissionController
	provider *routing.MockRoutingProvider
	renderer *fakeRenderer
	store    *kvstore.MemoryStore
	catalog  *LocationCatalog
	history  *HistoryRecorder
	events   *events.Recorder
	timers   *fakeTimers
}

type harnessOption func(*MissionDeps, *MissionConfig)

func withConfirmTimeout(d time.Duration) harnessOption {
	return func(_ *MissionDeps, cfg *MissionConfig) { cfg.ConfirmTimeout = d }
}

func withDispatch(fn func(job func())) harnessOption {
	return func(deps *MissionDeps, _ *MissionConfig) { deps.Dispatch = fn }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		provider: routing.NewMockRoutingProvider(),
		renderer: newFakeRenderer(testDepot.Position),
		store:    kvstore.NewMemoryStore(),
		events:   events.NewRecorder(256),
		timers:   &fakeTimers{},
	}

	repo := repositories.NewMemoryLocationRepository([]domain.Location{
		testDepot, testDorm, testLibrary, testOffice, testClosed,
	})
	h.catalog = NewLocationCatalog(repo, h.store)
	h.history = NewHistoryRecorder(h.store)

	deps := MissionDeps{
		Catalog:   h.catalog,
		Fence:     testFence(),
		Composer:  NewRouteComposer(NewSegmentPlanner(h.provider)),
		Motion:    NewMotionController(h.renderer),
		History:   h.history,
		Publisher: h.events,
		Dispatch:  func(job func()) { job() },
		Now:       func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
		AfterFunc: h.timers.AfterFunc,
		Rand:      rand.New(rand.NewPCG(1, 2)),
	}
	cfg := MissionConfig{SpeedKmh: 20, ReturnSpeedKmh: 30, Depot: testDepot}

	for _, opt := range opts {
		opt(&deps, &cfg)
	}

	ctrl, err := NewMissionController(deps, cfg)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	h.ctrl = ctrl
	return h
}

func (h *harness) state() domain.MissionState {
	return h.ctrl.Snapshot().State
}

func (h *harness) request(pickup, delivery string) (*domain.Mission, error) {
	return h.ctrl.RequestMission(context.Background(), MissionRequest{PickupID: pickup, DeliveryID: delivery})
}
