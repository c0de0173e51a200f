package domain

import (
	"fmt"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
// Guards are pure functions over a snapshot of controller state.
type GuardResult struct {
	Allowed bool
	Reason  string
	Err     error
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return fmt.Errorf("%s", r.Reason)
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func denyTransition(op string, state MissionState, reason string) GuardResult {
	return GuardResult{
		Reason: reason,
		Err:    &TransitionError{Op: op, State: state, Reason: reason},
	}
}

func denyValidation(reason string) GuardResult {
	return GuardResult{
		Reason: reason,
		Err:    fmt.Errorf("%w: %s", ErrValidation, reason),
	}
}

// MissionContext is the slice of controller state the guards look at.
type MissionContext struct {
	State          MissionState
	HasMission     bool
	CargoLoaded    bool
	Degraded       bool
	DegradedReason string
}

// CanRequestMission evaluates whether a new mission may be accepted.
// Rules:
// - Idle or Error: service must not be degraded
// - Error: the failed mission must not carry cargo
func CanRequestMission(ctx MissionContext) GuardResult {
	switch ctx.State {
	case StateIdle:
		return notDegraded(ctx)
	case StateError:
		if ctx.CargoLoaded {
			return denyTransition("request mission", ctx.State, "cargo is loaded, retry or stop the current mission")
		}
		return notDegraded(ctx)
	}
	return denyTransition("request mission", ctx.State, "a mission is already active")
}

func notDegraded(ctx MissionContext) GuardResult {
	if ctx.Degraded {
		return GuardResult{
			Reason: ctx.DegradedReason,
			Err:    fmt.Errorf("%w: %s", ErrServiceDegraded, ctx.DegradedReason),
		}
	}
	return allow()
}

// SelectionContext holds the resolved pickup and delivery for validation.
type SelectionContext struct {
	PickupID   string
	DeliveryID string
	Pickup     *Location
	Delivery   *Location
}

// ValidateSelection checks the pickup/delivery pair.
// Rules:
// - both ids present
// - pickup != delivery
// - both locations enabled
func ValidateSelection(ctx SelectionContext) GuardResult {
	if strings.TrimSpace(ctx.PickupID) == "" || strings.TrimSpace(ctx.DeliveryID) == "" {
		return denyValidation("pickup and delivery must both be selected")
	}
	if ctx.PickupID == ctx.DeliveryID {
		return denyValidation("pickup and delivery must differ")
	}
	if ctx.Pickup == nil || !ctx.Pickup.Enabled {
		return denyValidation(fmt.Sprintf("pickup %s is not available", ctx.PickupID))
	}
	if ctx.Delivery == nil || !ctx.Delivery.Enabled {
		return denyValidation(fmt.Sprintf("delivery %s is not available", ctx.DeliveryID))
	}
	return allow()
}

// CanCancelMission evaluates whether the active mission may be cancelled.
// Rules:
// - a mission must exist
// - cargo must not be loaded
// - vehicle must not be heading to delivery or waiting at it
func CanCancelMission(ctx MissionContext) GuardResult {
	if !ctx.HasMission {
		return denyTransition("cancel", ctx.State, "no active mission")
	}
	if ctx.CargoLoaded {
		return denyTransition("cancel", ctx.State, "cargo already loaded")
	}
	switch ctx.State {
	case StateCalculating, StateEnRouteToPickup, StateWaitingForLoad, StateError, StateEmergencyStopped:
		return allow()
	}
	return denyTransition("cancel", ctx.State, "")
}

func CanConfirmLoad(ctx MissionContext) GuardResult {
	if ctx.State != StateWaitingForLoad {
		return denyTransition("confirm load", ctx.State, "vehicle is not waiting at pickup")
	}
	return allow()
}

func CanConfirmDelivery(ctx MissionContext) GuardResult {
	if ctx.State != StateArrived {
		return denyTransition("confirm delivery", ctx.State, "vehicle has not arrived at delivery")
	}
	return allow()
}

// CanEmergencyStop allows an already stopped vehicle so that repeated
// stops are harmless.
func CanEmergencyStop(ctx MissionContext) GuardResult {
	switch ctx.State {
	case StateCalculating, StateEnRouteToPickup, StateWaitingForLoad,
		StateEnRouteToDelivery, StateReturning, StateEmergencyStopped:
		return allow()
	}
	return denyTransition("emergency stop", ctx.State, "nothing in progress")
}

func CanEmergencyResume(ctx MissionContext) GuardResult {
	if ctx.State != StateEmergencyStopped {
		return denyTransition("emergency resume", ctx.State, "vehicle is not stopped")
	}
	return allow()
}

func CanRetry(ctx MissionContext) GuardResult {
	if ctx.State != StateError {
		return denyTransition("retry", ctx.State, "")
	}
	if !ctx.HasMission {
		return denyTransition("retry", ctx.State, "no mission to retry")
	}
	return allow()
}

func CanReturnToDepot(ctx MissionContext) GuardResult {
	if ctx.State != StateIdle || ctx.HasMission {
		return denyTransition("return to depot", ctx.State, "vehicle is busy")
	}
	return allow()
}
