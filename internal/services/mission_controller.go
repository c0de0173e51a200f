package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/ports"
)

// CancelPolicy decides what a pre-load cancellation leaves in history.
type CancelPolicy int

const (
	CancelPolicyDiscard CancelPolicy = iota
	CancelPolicyRecord
)

// Cancelled missions are kept in history with status "cancelled".
const CancelledMissionPolicy = CancelPolicyRecord

// A vehicle this close to the depot does not need to drive back.
const depotArrivalRadiusMeters = 100.0

// Upper bound for one async planning job.
const planTimeout = 45 * time.Second

// missionPhase names the part of the lifecycle a planning job or an Error
// state belongs to, so that Retry knows what to redo.
type missionPhase int

const (
	phaseNone missionPhase = iota
	phaseToPickup
	phaseToDelivery
	phaseReturn
	phaseAwaitLoad
	phaseAwaitDelivery
)

type MissionConfig struct {
	SpeedKmh       float64
	ReturnSpeedKmh float64
	Depot          domain.Location
	// Zero disables the confirmation timeout.
	ConfirmTimeout time.Duration
}

// MissionDeps are the collaborators of a MissionController. Dispatch, Now,
// AfterFunc and Rand default to goroutines, the wall clock, time.AfterFunc and
// a time-seeded generator.
type MissionDeps struct {
	Catalog   *LocationCatalog
	Fence     *domain.GeoFence
	Composer  *RouteComposer
	Motion    *MotionController
	History   *HistoryRecorder
	Publisher ports.EventPublisher

	Dispatch  func(job func())
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func()) (stop func() bool)
	Rand      *rand.Rand
}

type MissionRequest struct {
	PickupID   string
	DeliveryID string
	Mode       string
	Waypoints  []domain.Coordinates
}

// MissionStatus is a read-only snapshot of the controller.
type MissionStatus struct {
	State           domain.MissionState
	PriorState      domain.MissionState
	Mission         *domain.Mission
	Route           *domain.ComposedRoute
	VehiclePosition domain.Coordinates
	Paused          bool
	Degraded        bool
	DegradedReason  string
	LastError       error
	Waypoints       []domain.Coordinates
}

type planOutcome struct {
	phase missionPhase
	route domain.ComposedRoute
	err   error
}

// MissionController owns the single vehicle and at most one mission.
//
// It is the only writer of mission state. Public operations, planning
// completions, arrivals and confirmation timeouts all run under mu, and every
// async completion carries the token that was current when it was issued;
// completions with an outdated token are dropped.
type MissionController struct {
	mu sync.Mutex

	catalog   *LocationCatalog
	fence     *domain.GeoFence
	composer  *RouteComposer
	motion    *MotionController
	history   *HistoryRecorder
	publisher ports.EventPublisher
	cfg       MissionConfig

	dispatch  func(job func())
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) (stop func() bool)
	rng       *rand.Rand
	inflight  sync.WaitGroup

	state       domain.MissionState
	prior       domain.MissionState
	mission     *domain.Mission
	route       *domain.ComposedRoute
	failed      missionPhase
	lastErr     error
	token       uint64
	motionToken uint64
	pending     *planOutcome
	stopTimer   func() bool

	degraded       bool
	degradedReason string
	draft          []domain.Coordinates

	// Drained by unlock.
	jobs   []func()
	events []domain.MissionEvent
}

func NewMissionController(deps MissionDeps, cfg MissionConfig) (*MissionController, error) {
	if deps.Catalog == nil || deps.Fence == nil || deps.Composer == nil || deps.Motion == nil || deps.History == nil {
		return nil, errors.New("new mission controller: missing dependency")
	}
	if cfg.SpeedKmh <= 0 {
		return nil, errors.New("new mission controller: speed must be positive")
	}
	if cfg.ReturnSpeedKmh <= 0 {
		cfg.ReturnSpeedKmh = cfg.SpeedKmh
	}

	c := &MissionController{
		catalog:   deps.Catalog,
		fence:     deps.Fence,
		composer:  deps.Composer,
		motion:    deps.Motion,
		history:   deps.History,
		publisher: deps.Publisher,
		cfg:       cfg,
		dispatch:  deps.Dispatch,
		now:       deps.Now,
		afterFunc: deps.AfterFunc,
		rng:       deps.Rand,
		state:     domain.StateIdle,
	}

	if c.dispatch == nil {
		c.dispatch = func(job func()) { go job() }
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.afterFunc == nil {
		c.afterFunc = func(d time.Duration, f func()) func() bool { return time.AfterFunc(d, f).Stop }
	}
	if c.rng == nil {
		seed := uint64(time.Now().UnixNano())
		c.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return c, nil
}

// unlock releases mu, then publishes queued events and dispatches queued
// planning jobs so that neither runs under the lock.
func (c *MissionController) unlock() {
	jobs, events := c.jobs, c.events
	c.jobs, c.events = nil, nil
	c.mu.Unlock()

	if c.publisher != nil {
		for _, e := range events {
			if err := c.publisher.Publish(context.Background(), e); err != nil {
				log.Printf("op=mission.publish event=%s err=%v", e.Type, err)
			}
		}
	}
	for _, job := range jobs {
		c.dispatch(job)
	}
}

func (c *MissionController) guardCtx() domain.MissionContext {
	gc := domain.MissionContext{
		State:          c.state,
		HasMission:     c.mission != nil,
		Degraded:       c.degraded,
		DegradedReason: c.degradedReason,
	}
	if c.mission != nil {
		gc.CargoLoaded = c.mission.CargoLoaded
	}
	return gc
}

func (c *MissionController) emitLocked(eventType, detail string) {
	e := domain.MissionEvent{
		Type:   eventType,
		State:  c.state,
		Detail: detail,
		At:     c.now(),
	}
	if c.mission != nil {
		e.MissionID = c.mission.ID
		e.TransportCode = c.mission.TransportCode
	}
	c.events = append(c.events, e)
}

// RequestMission validates the selection and schedules planning of leg 1,
// from the vehicle's current position to the pickup.
func (c *MissionController) RequestMission(ctx context.Context, req MissionRequest) (*domain.Mission, error) {
	c.mu.Lock()
	defer c.unlock()

	if g := domain.CanRequestMission(c.guardCtx()); !g.Allowed {
		return nil, fmt.Errorf("request mission: %w", g.Error())
	}

	sel := domain.SelectionContext{
		PickupID:   strings.TrimSpace(req.PickupID),
		DeliveryID: strings.TrimSpace(req.DeliveryID),
	}
	if sel.PickupID != "" && sel.DeliveryID != "" && sel.PickupID != sel.DeliveryID {
		pickup, err := c.catalog.Resolve(ctx, sel.PickupID)
		if err != nil {
			return nil, fmt.Errorf("request mission: %w", asValidation(err))
		}
		delivery, err := c.catalog.Resolve(ctx, sel.DeliveryID)
		if err != nil {
			return nil, fmt.Errorf("request mission: %w", asValidation(err))
		}
		sel.Pickup, sel.Delivery = &pickup, &delivery
	}
	if g := domain.ValidateSelection(sel); !g.Allowed {
		return nil, fmt.Errorf("request mission: %w", g.Error())
	}

	mode := strings.TrimSpace(req.Mode)
	if mode == "" {
		mode = domain.ModeAuto
	}
	if mode != domain.ModeAuto && mode != domain.ModeCustom {
		return nil, fmt.Errorf("request mission: %w: unknown mode %q", domain.ErrValidation, req.Mode)
	}

	// Auto mode always drives pickup -> delivery directly.
	var waypoints []domain.Coordinates
	usedDraft := false
	if mode == domain.ModeCustom {
		waypoints = req.Waypoints
		if len(waypoints) == 0 {
			waypoints = c.draft
			usedDraft = true
		}
	} else if len(req.Waypoints) > 0 {
		log.Printf("op=mission.Request msg=%q count=%d", "ignoring waypoints in auto mode", len(req.Waypoints))
	}
	for i, wp := range waypoints {
		if !c.fence.Contains(wp) {
			return nil, fmt.Errorf("request mission: %w", &domain.GeofenceError{Index: i, Point: wp})
		}
	}

	if c.mission != nil {
		log.Printf("op=mission.Request msg=%q mission_id=%s", "replacing failed mission", c.mission.ID)
		c.motion.Stop()
		c.clearTimerLocked()
	}

	m := domain.NewMission(*sel.Pickup, *sel.Delivery, mode, waypoints, domain.NewTransportCode(c.rng), c.now())
	c.mission = m
	c.route = nil
	c.lastErr = nil
	c.pending = nil
	c.failed = phaseNone
	if usedDraft {
		c.draft = nil
	}

	c.state = domain.StateCalculating
	c.emitLocked(domain.EventMissionRequested, fmt.Sprintf("%s -> %s", m.Pickup.Name, m.Delivery.Name))
	c.planLocked(ctx, phaseToPickup, c.motion.CurrentPosition(), m.Pickup.Position, nil)

	return m.Clone(), nil
}

func asValidation(err error) error {
	if errors.Is(err, domain.ErrLocationNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return err
}

// planLocked enters Calculating and queues an async planning job.
func (c *MissionController) planLocked(
	ctx context.Context,
	phase missionPhase,
	from domain.Coordinates,
	to domain.Coordinates,
	waypoints []domain.Coordinates,
) {
	c.token++
	token := c.token
	c.state = domain.StateCalculating
	c.pending = nil

	// Keep request-scoped values (trace, req_id) but outlive the request.
	jobCtx := context.WithoutCancel(ctx)
	wps := append([]domain.Coordinates(nil), waypoints...)

	c.inflight.Add(1)
	c.jobs = append(c.jobs, func() {
		defer c.inflight.Done()

		pctx, cancel := context.WithTimeout(jobCtx, planTimeout)
		defer cancel()

		route, err := c.composer.PlanRoute(pctx, from, to, wps)
		c.completePlanning(token, phase, route, err)
	})
}

func (c *MissionController) completePlanning(token uint64, phase missionPhase, route domain.ComposedRoute, err error) {
	c.mu.Lock()
	defer c.unlock()

	if token != c.token {
		log.Printf("op=mission.completePlanning msg=%q token=%d current=%d", "stale result dropped", token, c.token)
		return
	}

	if c.state == domain.StateEmergencyStopped && c.prior == domain.StateCalculating {
		c.pending = &planOutcome{phase: phase, route: route, err: err}
		return
	}
	if c.state != domain.StateCalculating {
		return
	}

	c.applyPlanLocked(phase, route, err)
}

func (c *MissionController) applyPlanLocked(phase missionPhase, route domain.ComposedRoute, err error) {
	if err != nil {
		c.lastErr = err
		if phase == phaseReturn {
			c.state = domain.StateIdle
			c.emitLocked(domain.EventPlanningFailed, err.Error())
			return
		}
		c.state = domain.StateError
		c.failed = phase
		c.emitLocked(domain.EventPlanningFailed, err.Error())
		return
	}

	c.lastErr = nil
	c.failed = phaseNone
	c.route = &route

	speed := c.cfg.SpeedKmh
	switch phase {
	case phaseToPickup:
		c.state = domain.StateEnRouteToPickup
	case phaseToDelivery:
		c.state = domain.StateEnRouteToDelivery
	case phaseReturn:
		c.state = domain.StateReturning
		speed = c.cfg.ReturnSpeedKmh
	}

	c.emitLocked(domain.EventRoutePlanned, fmt.Sprintf("%d m, %d s, %d legs",
		route.TotalDistanceMeters, route.TotalDurationSeconds, route.Legs))
	if phase == phaseReturn {
		c.emitLocked(domain.EventReturningToDepot, c.cfg.Depot.Name)
	}

	c.startMotionLocked(route.Path, speed)
}

func (c *MissionController) startMotionLocked(path []domain.Coordinates, speedKmh float64) {
	c.token++
	token := c.token
	c.motionToken = c.motion.StartMotion(path, speedKmh, func() { c.handleArrival(token) })
}

func (c *MissionController) handleArrival(token uint64) {
	c.mu.Lock()
	defer c.unlock()

	if token != c.token {
		return
	}
	// While stopped the arrival is only remembered by the motion controller
	// and replayed on resume.
	if !c.state.Moving() {
		return
	}
	c.arriveLocked()
}

func (c *MissionController) arriveLocked() {
	c.motion.Stop()

	switch c.state {
	case domain.StateEnRouteToPickup:
		c.state = domain.StateWaitingForLoad
		c.emitLocked(domain.EventArrivedAtPickup, c.mission.Pickup.Name)
		c.armTimerLocked()
	case domain.StateEnRouteToDelivery:
		c.state = domain.StateArrived
		c.emitLocked(domain.EventArrivedAtDelivery, c.mission.Delivery.Name)
		c.armTimerLocked()
	case domain.StateReturning:
		c.state = domain.StateIdle
		c.route = nil
		c.emitLocked(domain.EventReturnedToDepot, c.cfg.Depot.Name)
	}
}

func (c *MissionController) armTimerLocked() {
	c.clearTimerLocked()
	if c.cfg.ConfirmTimeout <= 0 {
		return
	}
	token := c.token
	c.stopTimer = c.afterFunc(c.cfg.ConfirmTimeout, func() { c.handleConfirmTimeout(token) })
}

func (c *MissionController) clearTimerLocked() {
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
}

func (c *MissionController) handleConfirmTimeout(token uint64) {
	c.mu.Lock()
	defer c.unlock()

	if token != c.token {
		return
	}

	switch c.state {
	case domain.StateWaitingForLoad:
		c.failed = phaseAwaitLoad
	case domain.StateArrived:
		c.failed = phaseAwaitDelivery
	default:
		return
	}

	c.stopTimer = nil
	c.lastErr = fmt.Errorf("%w after %s in %s", domain.ErrConfirmationTimeout, c.cfg.ConfirmTimeout, c.state)
	c.state = domain.StateError
	c.emitLocked(domain.EventConfirmTimeout, c.lastErr.Error())
}

// ConfirmLoad marks the cargo loaded and plans pickup -> waypoints -> delivery.
func (c *MissionController) ConfirmLoad(ctx context.Context) error {
	c.mu.Lock()
	defer c.unlock()

	if g := domain.CanConfirmLoad(c.guardCtx()); !g.Allowed {
		return fmt.Errorf("confirm load: %w", g.Error())
	}

	c.clearTimerLocked()
	c.mission.CargoLoaded = true
	c.emitLocked(domain.EventCargoLoaded, "")
	c.planLocked(ctx, phaseToDelivery, c.mission.Pickup.Position, c.mission.Delivery.Position, c.mission.Waypoints)
	return nil
}

// ConfirmDelivery completes the mission. The mission is cleared even when the
// history write fails; that error is returned.
func (c *MissionController) ConfirmDelivery(ctx context.Context) error {
	c.mu.Lock()
	defer c.unlock()

	if g := domain.CanConfirmDelivery(c.guardCtx()); !g.Allowed {
		return fmt.Errorf("confirm delivery: %w", g.Error())
	}

	c.clearTimerLocked()
	m := c.mission
	c.emitLocked(domain.EventMissionCompleted, "")
	c.resetLocked()

	if err := c.history.Record(ctx, m.Pickup.Name, m.Delivery.Name, domain.HistoryStatusSuccess); err != nil {
		return fmt.Errorf("confirm delivery: mission %s completed: %w: %w", m.ID, domain.ErrHistoryNotRecorded, err)
	}
	return nil
}

// CancelMission abandons a mission whose cargo has not been loaded.
func (c *MissionController) CancelMission(ctx context.Context) error {
	c.mu.Lock()
	defer c.unlock()

	if g := domain.CanCancelMission(c.guardCtx()); !g.Allowed {
		return fmt.Errorf("cancel mission: %w", g.Error())
	}

	c.token++
	c.motion.Stop()
	c.clearTimerLocked()

	m := c.mission
	c.emitLocked(domain.EventMissionCancelled, "")
	c.resetLocked()

	if CancelledMissionPolicy == CancelPolicyRecord {
		if err := c.history.Record(ctx, m.Pickup.Name, m.Delivery.Name, domain.HistoryStatusCancelled); err != nil {
			return fmt.Errorf("cancel mission: mission %s cancelled: %w: %w", m.ID, domain.ErrHistoryNotRecorded, err)
		}
	}
	return nil
}

func (c *MissionController) resetLocked() {
	c.state = domain.StateIdle
	c.prior = domain.StateIdle
	c.mission = nil
	c.route = nil
	c.pending = nil
	c.failed = phaseNone
	c.lastErr = nil
}

// EmergencyStop pauses whatever is in progress. Stopping twice is a no-op.
func (c *MissionController) EmergencyStop(ctx context.Context) error {
	c.mu.Lock()
	defer c.unlock()

	if g := domain.CanEmergencyStop(c.guardCtx()); !g.Allowed {
		return fmt.Errorf("emergency stop: %w", g.Error())
	}
	if c.state == domain.StateEmergencyStopped {
		return nil
	}

	c.prior = c.state
	c.state = domain.StateEmergencyStopped
	if c.prior.Moving() {
		c.motion.Pause()
	}
	c.clearTimerLocked()
	c.emitLocked(domain.EventEmergencyStopped, c.prior.String())
	return nil
}

// EmergencyResume restores the state held before the stop. A plan result or
// an arrival that landed while stopped is applied now.
func (c *MissionController) EmergencyResume(ctx context.Context) error {
	c.mu.Lock()
	defer c.unlock()

	if g := domain.CanEmergencyResume(c.guardCtx()); !g.Allowed {
		return fmt.Errorf("emergency resume: %w", g.Error())
	}

	c.state = c.prior
	c.prior = domain.StateIdle
	c.emitLocked(domain.EventEmergencyResumed, c.state.String())

	switch {
	case c.state == domain.StateCalculating:
		if p := c.pending; p != nil {
			c.pending = nil
			c.applyPlanLocked(p.phase, p.route, p.err)
		}
	case c.state.Moving():
		if c.motion.Arrived(c.motionToken) {
			c.arriveLocked()
		} else {
			c.motion.Resume()
		}
	case c.state == domain.StateWaitingForLoad || c.state == domain.StateArrived:
		c.armTimerLocked()
	}
	return nil
}

// Retry redoes the phase that put the mission into Error. The transport code
// and any completed phases are kept.
func (c *MissionController) Retry(ctx context.Context) error {
	c.mu.Lock()
	defer c.unlock()

	if g := domain.CanRetry(c.guardCtx()); !g.Allowed {
		return fmt.Errorf("retry: %w", g.Error())
	}

	m := c.mission
	pos := c.motion.CurrentPosition()
	c.lastErr = nil

	switch c.failed {
	case phaseToDelivery:
		c.planLocked(ctx, phaseToDelivery, pos, m.Delivery.Position, m.Waypoints)
	case phaseAwaitLoad:
		c.state = domain.StateWaitingForLoad
		c.armTimerLocked()
	case phaseAwaitDelivery:
		c.state = domain.StateArrived
		c.armTimerLocked()
	default:
		c.planLocked(ctx, phaseToPickup, pos, m.Pickup.Position, nil)
	}
	c.failed = phaseNone
	return nil
}

// ReturnToDepot drives the idle vehicle back to the depot. It does nothing
// when the vehicle is already there.
func (c *MissionController) ReturnToDepot(ctx context.Context) error {
	c.mu.Lock()
	defer c.unlock()

	if g := domain.CanReturnToDepot(c.guardCtx()); !g.Allowed {
		return fmt.Errorf("return to depot: %w", g.Error())
	}

	pos := c.motion.CurrentPosition()
	if d := pos.DistanceTo(c.cfg.Depot.Position); d <= depotArrivalRadiusMeters {
		log.Printf("op=mission.ReturnToDepot msg=%q dist=%.1fm", "already at depot", d)
		return nil
	}

	c.lastErr = nil
	c.planLocked(ctx, phaseReturn, pos, c.cfg.Depot.Position, nil)
	return nil
}

func (c *MissionController) SetServiceDegraded(reason string) {
	c.mu.Lock()
	defer c.unlock()

	if c.degraded && c.degradedReason == reason {
		return
	}
	c.degraded = true
	c.degradedReason = reason
	c.emitLocked(domain.EventServiceDegraded, reason)
}

func (c *MissionController) ClearServiceDegraded() {
	c.mu.Lock()
	defer c.unlock()

	if !c.degraded {
		return
	}
	c.degraded = false
	c.degradedReason = ""
	c.emitLocked(domain.EventServiceRestored, "")
}

// AddWaypoint appends to the draw-mode draft. Points outside the geofence
// are rejected and leave the draft unchanged.
func (c *MissionController) AddWaypoint(p domain.Coordinates) error {
	c.mu.Lock()
	defer c.unlock()

	if !c.fence.Contains(p) {
		return fmt.Errorf("add waypoint: %w", &domain.GeofenceError{Index: -1, Point: p})
	}
	c.draft = append(c.draft, p)
	return nil
}

func (c *MissionController) ClearWaypoints() {
	c.mu.Lock()
	defer c.unlock()
	c.draft = nil
}

func (c *MissionController) Waypoints() []domain.Coordinates {
	c.mu.Lock()
	defer c.unlock()
	return append([]domain.Coordinates{}, c.draft...)
}

func (c *MissionController) Snapshot() MissionStatus {
	c.mu.Lock()
	defer c.unlock()

	s := MissionStatus{
		State:           c.state,
		PriorState:      c.prior,
		Mission:         c.mission.Clone(),
		VehiclePosition: c.motion.CurrentPosition(),
		Paused:          c.motion.Paused(),
		Degraded:        c.degraded,
		DegradedReason:  c.degradedReason,
		LastError:       c.lastErr,
		Waypoints:       append([]domain.Coordinates{}, c.draft...),
	}
	if c.route != nil {
		r := c.route.Clone()
		s.Route = &r
	}
	return s
}

// Wait blocks until queued planning jobs have finished.
func (c *MissionController) Wait() {
	c.inflight.Wait()
}
