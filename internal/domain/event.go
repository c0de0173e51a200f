package domain

import "time"

// Event types published on every mission transition.
const (
	EventMissionRequested  = "mission.requested"
	EventRoutePlanned      = "route.planned"
	EventPlanningFailed    = "route.failed"
	EventArrivedAtPickup   = "vehicle.arrived_pickup"
	EventCargoLoaded       = "mission.cargo_loaded"
	EventArrivedAtDelivery = "vehicle.arrived_delivery"
	EventMissionCompleted  = "mission.completed"
	EventMissionCancelled  = "mission.cancelled"
	EventEmergencyStopped  = "vehicle.emergency_stopped"
	EventEmergencyResumed  = "vehicle.emergency_resumed"
	EventReturningToDepot  = "vehicle.returning"
	EventReturnedToDepot   = "vehicle.returned"
	EventServiceDegraded   = "service.degraded"
	EventServiceRestored   = "service.restored"
	EventConfirmTimeout    = "mission.confirm_timeout"
)

type MissionEvent struct {
	Type          string       `json:"type"`
	MissionID     string       `json:"mission_id,omitempty"`
	State         MissionState `json:"state"`
	TransportCode string       `json:"transport_code,omitempty"`
	Detail        string       `json:"detail,omitempty"`
	At            time.Time    `json:"at"`
}
