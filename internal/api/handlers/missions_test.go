package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/services"
)

// stubMissions answers ConfirmDelivery with a fixed error; every other
// command is unused here.
type stubMissions struct {
	MissionService
	err error
}

func (s *stubMissions) ConfirmDelivery(ctx context.Context) error { return s.err }

func (s *stubMissions) Snapshot() services.MissionStatus {
	return services.MissionStatus{State: domain.StateIdle}
}

func TestTransitionErrorStatus(t *testing.T) {
	diskFull := errors.New("disk full")

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantWarning bool
	}{
		{"ok", nil, http.StatusOK, false},
		{"history not recorded", fmt.Errorf("confirm delivery: %w: %w", domain.ErrHistoryNotRecorded, diskFull), http.StatusOK, true},
		{"unexpected failure", fmt.Errorf("confirm delivery: %w", diskFull), http.StatusInternalServerError, false},
		{"wrong state", &domain.TransitionError{Op: "confirm delivery", State: domain.StateIdle}, http.StatusConflict, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &MissionHandler{Missions: &stubMissions{err: tt.err}}
			req := httptest.NewRequest(http.MethodPost, "/missions/confirm-delivery", nil)
			rec := httptest.NewRecorder()

			h.ConfirmDelivery(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if _, got := body["warning"]; got != tt.wantWarning {
				t.Fatalf("warning present = %v, want %v (body %v)", got, tt.wantWarning, body)
			}
			if tt.wantStatus == http.StatusInternalServerError && body["error"] != "internal server error" {
				t.Fatalf("error = %v, want the generic message", body["error"])
			}
		})
	}
}
