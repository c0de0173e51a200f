package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrLocationNotFound    = errors.New("location not found")
	ErrGeofenceViolation   = errors.New("point outside geofence")
	ErrPlanningFailed      = errors.New("route planning failed")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrServiceDegraded     = errors.New("service degraded")
	ErrConfirmationTimeout = errors.New("confirmation timed out")
	// ErrHistoryNotRecorded marks a transition that took effect but whose
	// history entry could not be written.
	ErrHistoryNotRecorded = errors.New("history not recorded")
)

// PlanningError reports which leg failed and what the provider returned.
type PlanningError struct {
	LegIndex int
	Raw      string
	Err      error
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan leg %d: %v", e.LegIndex, e.Err)
	}
	return fmt.Sprintf("plan leg %d: provider response %s", e.LegIndex, e.Raw)
}

func (e *PlanningError) Unwrap() error { return e.Err }

func (e *PlanningError) Is(target error) bool { return target == ErrPlanningFailed }

// TransitionError is returned when an operation is not permitted in the
// current mission state.
type TransitionError struct {
	Op     string
	State  MissionState
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s not allowed in state %s: %s", e.Op, e.State, e.Reason)
	}
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// GeofenceError identifies the rejected point. Index is -1 for a single point.
type GeofenceError struct {
	Index int
	Point Coordinates
}

func (e *GeofenceError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("waypoint %d (%s) is outside the geofence", e.Index+1, e.Point)
	}
	return fmt.Sprintf("point %s is outside the geofence", e.Point)
}

func (e *GeofenceError) Is(target error) bool { return target == ErrGeofenceViolation }
