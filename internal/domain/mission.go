package domain

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MissionState int

const (
	StateIdle MissionState = iota
	StateCalculating
	StateEnRouteToPickup
	StateWaitingForLoad
	StateEnRouteToDelivery
	StateArrived
	StateReturning
	StateEmergencyStopped
	StateError
)

var StateStringMap = map[MissionState]string{
	StateIdle:              "idle",
	StateCalculating:       "calculating",
	StateEnRouteToPickup:   "en_route_to_pickup",
	StateWaitingForLoad:    "waiting_for_load",
	StateEnRouteToDelivery: "en_route_to_delivery",
	StateArrived:           "arrived",
	StateReturning:         "returning",
	StateEmergencyStopped:  "emergency_stopped",
	StateError:             "error",
}

func (s MissionState) String() string {
	if v, ok := StateStringMap[s]; ok {
		return v
	}
	return "unknown"
}

func (s MissionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Moving reports whether the vehicle is driving in this state.
func (s MissionState) Moving() bool {
	return s == StateEnRouteToPickup || s == StateEnRouteToDelivery || s == StateReturning
}

// Mission modes.
const (
	ModeAuto   = "auto"
	ModeCustom = "custom"
)

// Transport codes avoid glyphs that are easy to misread aloud (I, O, 0, 1).
const (
	TransportCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	TransportCodeLength   = 5
)

// NewTransportCode draws a handoff code from TransportCodeAlphabet.
func NewTransportCode(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(TransportCodeLength)
	for i := 0; i < TransportCodeLength; i++ {
		b.WriteByte(TransportCodeAlphabet[rng.IntN(len(TransportCodeAlphabet))])
	}
	return b.String()
}

// Represents the single active delivery job.
// The transport code is fixed at creation; CargoLoaded flips once, at the
// point after which the mission can no longer be cancelled.
type Mission struct {
	ID            string        `json:"id"`
	Pickup        Location      `json:"pickup"`
	Delivery      Location      `json:"delivery"`
	Waypoints     []Coordinates `json:"waypoints"`
	Mode          string        `json:"mode"`
	TransportCode string        `json:"transport_code"`
	CargoLoaded   bool          `json:"cargo_loaded"`
	CreatedAt     time.Time     `json:"created_at"`
}

func NewMission(pickup, delivery Location, mode string, waypoints []Coordinates, code string, now time.Time) *Mission {
	return &Mission{
		ID:            uuid.NewString(),
		Pickup:        pickup,
		Delivery:      delivery,
		Waypoints:     append([]Coordinates(nil), waypoints...),
		Mode:          mode,
		TransportCode: code,
		CreatedAt:     now,
	}
}

// Clone returns a copy safe to hand to callers outside the controller.
func (m *Mission) Clone() *Mission {
	if m == nil {
		return nil
	}
	c := *m
	c.Waypoints = append([]Coordinates(nil), m.Waypoints...)
	return &c
}
