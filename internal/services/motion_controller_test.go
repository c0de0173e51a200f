package services

import (
	"testing"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/ports"
)

// plainRenderer hides the pause extension of fakeRenderer.
type plainRenderer struct{ ports.Renderer }

func TestMotionControllerArrivalOnce(t *testing.T) {
	r := newFakeRenderer(testDepot.Position)
	m := NewMotionController(r)

	arrivals := 0
	token := m.StartMotion([]domain.Coordinates{testDepot.Position, testDorm.Position}, 20, func() { arrivals++ })

	r.arrive()
	r.arrive()

	if arrivals != 1 {
		t.Fatalf("arrivals = %d, want 1", arrivals)
	}
	if !m.Arrived(token) {
		t.Fatal("expected token to be marked arrived")
	}
	if got := r.lastOpts(); got.SpeedKmh != 20 || got.Easing != ports.EasingLinear {
		t.Fatalf("opts = %+v", got)
	}
}

func TestMotionControllerSupersededMotion(t *testing.T) {
	r := newFakeRenderer(testDepot.Position)
	m := NewMotionController(r)

	first, second := 0, 0
	oldToken := m.StartMotion([]domain.Coordinates{testDepot.Position, testDorm.Position}, 20, func() { first++ })
	newToken := m.StartMotion([]domain.Coordinates{testDepot.Position, testLibrary.Position}, 20, func() { second++ })

	r.arrive()

	if first != 0 || second != 1 {
		t.Fatalf("arrivals = %d/%d, want 0/1", first, second)
	}
	if m.Arrived(oldToken) || !m.Arrived(newToken) {
		t.Fatal("only the latest motion should arrive")
	}
}

func TestMotionControllerStopDropsArrival(t *testing.T) {
	r := newFakeRenderer(testDepot.Position)
	m := NewMotionController(r)

	arrivals := 0
	token := m.StartMotion([]domain.Coordinates{testDepot.Position, testDorm.Position}, 20, func() { arrivals++ })
	m.Stop()
	r.arrive()

	if arrivals != 0 {
		t.Fatalf("arrivals = %d, want 0", arrivals)
	}
	if m.Arrived(token) {
		t.Fatal("stopped motion must not be marked arrived")
	}
}

func TestMotionControllerPause(t *testing.T) {
	t.Run("pausable renderer", func(t *testing.T) {
		r := newFakeRenderer(testDepot.Position)
		m := NewMotionController(r)
		m.StartMotion([]domain.Coordinates{testDepot.Position, testDorm.Position}, 20, nil)

		m.Pause()
		m.Pause()
		if !m.Paused() {
			t.Fatal("expected paused")
		}
		m.Resume()

		pauses, resumes := r.counts()
		if pauses != 1 || resumes != 1 {
			t.Fatalf("pauses/resumes = %d/%d, want 1/1", pauses, resumes)
		}
	})

	t.Run("plain renderer", func(t *testing.T) {
		r := newFakeRenderer(testDepot.Position)
		m := NewMotionController(plainRenderer{r})
		m.StartMotion([]domain.Coordinates{testDepot.Position, testDorm.Position}, 20, nil)

		m.Pause()
		if !m.Paused() {
			t.Fatal("expected paused flag without native support")
		}
		if pauses, _ := r.counts(); pauses != 0 {
			t.Fatalf("pauses = %d, want 0", pauses)
		}
	})
}
