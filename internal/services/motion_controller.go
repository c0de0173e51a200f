package services

import (
	"sync"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/ports"
)

// MotionController is a thin facade over the renderer for the one vehicle.
// Each StartMotion gets a fresh token; arrival callbacks of superseded or
// stopped motions never reach the caller.
type MotionController struct {
	mu       sync.Mutex
	renderer ports.Renderer

	seq      uint64
	active   uint64
	arrived  uint64
	listener ports.ListenerID
	listens  bool
	paused   bool
}

func NewMotionController(renderer ports.Renderer) *MotionController {
	return &MotionController{renderer: renderer}
}

// StartMotion stops any previous motion and animates along path.
// onArrive runs at most once, after the motion's listener has been removed.
func (m *MotionController) StartMotion(path []domain.Coordinates, speedKmh float64, onArrive func()) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	m.seq++
	token := m.seq
	m.active = token
	m.paused = false

	var once sync.Once
	m.listener = m.renderer.OnArrival(func() {
		once.Do(func() {
			if !m.markArrived(token) {
				return
			}
			if onArrive != nil {
				onArrive()
			}
		})
	})
	m.listens = true

	m.renderer.MoveAlong(path, ports.MoveOptions{SpeedKmh: speedKmh, Easing: ports.EasingLinear})

	return token
}

func (m *MotionController) markArrived(token uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token != m.active {
		return false
	}
	m.arrived = token
	m.active = 0
	if m.listens {
		m.renderer.OffArrival(m.listener)
		m.listens = false
	}
	return true
}

// Pause delegates to the renderer when it supports pausing; otherwise only
// the paused flag changes and the animation keeps running.
func (m *MotionController) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused {
		return
	}
	if p, ok := m.renderer.(ports.PausableRenderer); ok {
		p.PauseMove()
	}
	m.paused = true
}

func (m *MotionController) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.paused {
		return
	}
	if p, ok := m.renderer.(ports.PausableRenderer); ok {
		p.ResumeMove()
	}
	m.paused = false
}

// Stop halts motion and discards the pending arrival listener.
func (m *MotionController) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *MotionController) stopLocked() {
	if m.listens {
		m.renderer.OffArrival(m.listener)
		m.listens = false
	}
	m.active = 0
	m.paused = false
	m.renderer.StopMove()
}

func (m *MotionController) CurrentPosition() domain.Coordinates {
	return m.renderer.Position()
}

// Arrived reports whether the motion identified by token reached its end.
func (m *MotionController) Arrived(token uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return token != 0 && m.arrived == token
}

func (m *MotionController) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}
