package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"campus-dispatch-service/internal/api/dto"
	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/services"
)

// MissionService is the slice of the mission controller the HTTP layer drives.
type MissionService interface {
	RequestMission(ctx context.Context, req services.MissionRequest) (*domain.Mission, error)
	ConfirmLoad(ctx context.Context) error
	ConfirmDelivery(ctx context.Context) error
	CancelMission(ctx context.Context) error
	EmergencyStop(ctx context.Context) error
	EmergencyResume(ctx context.Context) error
	Retry(ctx context.Context) error
	ReturnToDepot(ctx context.Context) error
	AddWaypoint(p domain.Coordinates) error
	ClearWaypoints()
	Waypoints() []domain.Coordinates
	Snapshot() services.MissionStatus
}

type MissionHandler struct {
	Missions MissionService
}

func (h *MissionHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.FromStatus(h.Missions.Snapshot()))
}

// Create starts a new mission. The response carries the freshly issued
// transport code; planning continues in the background.
func (h *MissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMissionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	mission, err := h.Missions.RequestMission(r.Context(), req.Service())
	if err != nil {
		writeServiceError(w, r, "request_mission", err)
		return
	}

	writeJSON(w, r, http.StatusAccepted, dto.FromMission(mission))
}

func (h *MissionHandler) ConfirmLoad(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "confirm_load", h.Missions.ConfirmLoad)
}

func (h *MissionHandler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "confirm_delivery", h.Missions.ConfirmDelivery)
}

func (h *MissionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel_mission", h.Missions.CancelMission)
}

func (h *MissionHandler) EmergencyStop(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "emergency_stop", h.Missions.EmergencyStop)
}

func (h *MissionHandler) EmergencyResume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "emergency_resume", h.Missions.EmergencyResume)
}

func (h *MissionHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "retry", h.Missions.Retry)
}

func (h *MissionHandler) ReturnToDepot(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "return_to_depot", h.Missions.ReturnToDepot)
}

// transition runs one state-changing command and answers with the new status.
// A transition that took effect but could not be written to history is
// reported as a warning next to the status.
func (h *MissionHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(context.Context) error,
) {
	err := fn(r.Context())
	if err != nil && !errors.Is(err, domain.ErrHistoryNotRecorded) {
		writeServiceError(w, r, op, err)
		return
	}

	res := struct {
		dto.StatusResponse
		Warning string `json:"warning,omitempty"`
	}{StatusResponse: dto.FromStatus(h.Missions.Snapshot())}

	if err != nil {
		log.Printf("op=%s warn=%v", op, err)
		res.Warning = err.Error()
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *MissionHandler) Vehicle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.FromStatus(h.Missions.Snapshot()).Vehicle)
}

func (h *MissionHandler) ListWaypoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.FromWaypoints(h.Missions.Waypoints()))
}

func (h *MissionHandler) AddWaypoint(w http.ResponseWriter, r *http.Request) {
	var req dto.CoordinatesDTO
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Missions.AddWaypoint(req.Domain()); err != nil {
		var gerr *domain.GeofenceError
		if errors.As(err, &gerr) {
			writeError(w, r, http.StatusUnprocessableEntity, "waypoint is outside the campus boundary")
			return
		}
		writeServiceError(w, r, "add_waypoint", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.FromWaypoints(h.Missions.Waypoints()))
}

func (h *MissionHandler) ClearWaypoints(w http.ResponseWriter, r *http.Request) {
	h.Missions.ClearWaypoints()
	w.WriteHeader(http.StatusNoContent)
}
