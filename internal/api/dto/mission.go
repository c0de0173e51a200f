package dto

import (
	"time"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/services"
)

type CoordinatesDTO struct {
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
}

func (c CoordinatesDTO) Domain() domain.Coordinates {
	return domain.Coordinates{Lon: c.Lng, Lat: c.Lat}
}

func FromCoordinates(c domain.Coordinates) CoordinatesDTO {
	return CoordinatesDTO{Lng: c.Lon, Lat: c.Lat}
}

func fromCoordinatesList(cs []domain.Coordinates) []CoordinatesDTO {
	out := make([]CoordinatesDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, FromCoordinates(c))
	}
	return out
}

type CreateMissionRequest struct {
	PickupID   string           `json:"pickup_id" validate:"required"`
	DeliveryID string           `json:"delivery_id" validate:"required"`
	Mode       string           `json:"mode" validate:"omitempty,oneof=auto custom"`
	Waypoints  []CoordinatesDTO `json:"waypoints" validate:"max=20,dive"`
}

func (r CreateMissionRequest) Service() services.MissionRequest {
	wps := make([]domain.Coordinates, 0, len(r.Waypoints))
	for _, w := range r.Waypoints {
		wps = append(wps, w.Domain())
	}
	return services.MissionRequest{
		PickupID:   r.PickupID,
		DeliveryID: r.DeliveryID,
		Mode:       r.Mode,
		Waypoints:  wps,
	}
}

type MissionResponse struct {
	ID            string           `json:"id"`
	PickupID      string           `json:"pickup_id"`
	PickupName    string           `json:"pickup_name"`
	DeliveryID    string           `json:"delivery_id"`
	DeliveryName  string           `json:"delivery_name"`
	Mode          string           `json:"mode"`
	Waypoints     []CoordinatesDTO `json:"waypoints"`
	TransportCode string           `json:"transport_code"`
	CargoLoaded   bool             `json:"cargo_loaded"`
	CreatedAt     time.Time        `json:"created_at"`
}

func FromMission(m *domain.Mission) *MissionResponse {
	if m == nil {
		return nil
	}
	return &MissionResponse{
		ID:            m.ID,
		PickupID:      m.Pickup.ID,
		PickupName:    m.Pickup.Name,
		DeliveryID:    m.Delivery.ID,
		DeliveryName:  m.Delivery.Name,
		Mode:          m.Mode,
		Waypoints:     fromCoordinatesList(m.Waypoints),
		TransportCode: m.TransportCode,
		CargoLoaded:   m.CargoLoaded,
		CreatedAt:     m.CreatedAt,
	}
}

type RouteResponse struct {
	Path                 [][]float64 `json:"path"`
	TotalDistanceMeters  int         `json:"total_distance_meters"`
	TotalDurationSeconds int         `json:"total_duration_seconds"`
	Legs                 int         `json:"legs"`
}

type VehicleResponse struct {
	Position CoordinatesDTO `json:"position"`
	Paused   bool           `json:"paused"`
	State    string         `json:"state"`
}

type StatusResponse struct {
	State          string           `json:"state"`
	PriorState     string           `json:"prior_state,omitempty"`
	Mission        *MissionResponse `json:"mission"`
	Route          *RouteResponse   `json:"route,omitempty"`
	Vehicle        VehicleResponse  `json:"vehicle"`
	Degraded       bool             `json:"degraded"`
	DegradedReason string           `json:"degraded_reason,omitempty"`
	LastError      string           `json:"last_error,omitempty"`
	Waypoints      []CoordinatesDTO `json:"draft_waypoints"`
}

func FromStatus(s services.MissionStatus) StatusResponse {
	res := StatusResponse{
		State:   s.State.String(),
		Mission: FromMission(s.Mission),
		Vehicle: VehicleResponse{
			Position: FromCoordinates(s.VehiclePosition),
			Paused:   s.Paused,
			State:    s.State.String(),
		},
		Degraded:       s.Degraded,
		DegradedReason: s.DegradedReason,
		Waypoints:      fromCoordinatesList(s.Waypoints),
	}
	if s.State == domain.StateEmergencyStopped {
		res.PriorState = s.PriorState.String()
	}
	if s.LastError != nil {
		res.LastError = s.LastError.Error()
	}
	if s.Route != nil {
		path := make([][]float64, 0, len(s.Route.Path))
		for _, p := range s.Route.Path {
			path = append(path, p.CoordsToList())
		}
		res.Route = &RouteResponse{
			Path:                 path,
			TotalDistanceMeters:  s.Route.TotalDistanceMeters,
			TotalDurationSeconds: s.Route.TotalDurationSeconds,
			Legs:                 s.Route.Legs,
		}
	}
	return res
}

type WaypointsResponse struct {
	Waypoints []CoordinatesDTO `json:"waypoints"`
}

func FromWaypoints(wps []domain.Coordinates) WaypointsResponse {
	return WaypointsResponse{Waypoints: fromCoordinatesList(wps)}
}
