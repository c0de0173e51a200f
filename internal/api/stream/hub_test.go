package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campus-dispatch-service/internal/domain"

	"github.com/gorilla/websocket"
)

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub([]string{"*"})
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	event := domain.MissionEvent{
		Type:          domain.EventArrivedAtPickup,
		MissionID:     "m-1",
		State:         domain.StateWaitingForLoad,
		TransportCode: "AB2CD",
	}
	if err := hub.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["type"] != domain.EventArrivedAtPickup {
		t.Fatalf("type = %v, want %s", got["type"], domain.EventArrivedAtPickup)
	}
	if got["state"] != "waiting_for_load" {
		t.Fatalf("state = %v, want waiting_for_load", got["state"])
	}
}
