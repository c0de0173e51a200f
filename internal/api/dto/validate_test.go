package dto

import (
	"strings"
	"testing"
)

func TestValidateCreateMissionRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateMissionRequest
		wantErr string
	}{
		{"valid", CreateMissionRequest{PickupID: "dorm_a", DeliveryID: "library"}, ""},
		{"custom mode", CreateMissionRequest{PickupID: "dorm_a", DeliveryID: "library", Mode: "custom"}, ""},
		{"missing delivery", CreateMissionRequest{PickupID: "dorm_a"}, "DeliveryID failed required"},
		{"bad mode", CreateMissionRequest{PickupID: "a", DeliveryID: "b", Mode: "fly"}, "Mode failed oneof"},
		{"bad waypoint", CreateMissionRequest{PickupID: "a", DeliveryID: "b", Waypoints: []CoordinatesDTO{{Lng: 200}}}, "Lng failed lte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateVolunteersRequest(t *testing.T) {
	if err := Validate(VolunteersRequest{}); err == nil {
		t.Fatal("expected error for missing count")
	}
	zero := 0
	if err := Validate(VolunteersRequest{Count: &zero}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
