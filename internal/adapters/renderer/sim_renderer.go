package renderer

import (
	"sync"
	"time"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/ports"
)

const defaultTick = 100 * time.Millisecond

// SimRenderer animates the vehicle in-process. A ticker goroutine advances
// along the path at speed x timeScale with linear easing and fires arrival
// listeners once at the end. Listeners run outside the renderer lock, and
// no method waits for the animation goroutine.
type SimRenderer struct {
	mu        sync.Mutex
	pos       domain.Coordinates
	path      []domain.Coordinates
	cum       []float64
	traveled  float64
	speedMps  float64
	paused    bool
	gen       uint64
	done      chan struct{}
	listeners map[ports.ListenerID]func()
	nextID    ports.ListenerID

	tick      time.Duration
	timeScale float64
}

func NewSimRenderer(start domain.Coordinates, timeScale float64, tick time.Duration) *SimRenderer {
	if timeScale <= 0 {
		timeScale = 1
	}
	if tick <= 0 {
		tick = defaultTick
	}
	return &SimRenderer{
		pos:       start,
		listeners: map[ports.ListenerID]func(){},
		tick:      tick,
		timeScale: timeScale,
	}
}

func (r *SimRenderer) MoveAlong(path []domain.Coordinates, opts ports.MoveOptions) {
	r.mu.Lock()
	r.stopLocked()

	if len(path) == 0 {
		r.mu.Unlock()
		return
	}

	r.gen++
	gen := r.gen
	r.path = append([]domain.Coordinates(nil), path...)
	r.cum = make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		r.cum[i] = r.cum[i-1] + path[i-1].DistanceTo(path[i])
	}
	r.traveled = 0
	r.speedMps = opts.SpeedKmh / 3.6 * r.timeScale
	r.pos = path[0]
	done := make(chan struct{})
	r.done = done
	r.mu.Unlock()

	go r.animate(gen, done)
}

func (r *SimRenderer) animate(gen uint64, done <-chan struct{}) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			r.mu.Lock()
			if r.gen != gen {
				r.mu.Unlock()
				return
			}
			if r.paused {
				r.mu.Unlock()
				continue
			}

			r.traveled += r.speedMps * dt
			total := r.cum[len(r.cum)-1]
			if r.traveled < total {
				r.pos = r.interpolateLocked()
				r.mu.Unlock()
				continue
			}

			r.pos = r.path[len(r.path)-1]
			r.done = nil
			fns := make([]func(), 0, len(r.listeners))
			for _, fn := range r.listeners {
				fns = append(fns, fn)
			}
			r.mu.Unlock()

			for _, fn := range fns {
				fn()
			}
			return
		}
	}
}

func (r *SimRenderer) interpolateLocked() domain.Coordinates {
	for i := 1; i < len(r.cum); i++ {
		if r.traveled > r.cum[i] {
			continue
		}
		segLen := r.cum[i] - r.cum[i-1]
		if segLen == 0 {
			return r.path[i]
		}
		f := (r.traveled - r.cum[i-1]) / segLen
		a, b := r.path[i-1], r.path[i]
		return domain.Coordinates{
			Lon: a.Lon + (b.Lon-a.Lon)*f,
			Lat: a.Lat + (b.Lat-a.Lat)*f,
		}
	}
	return r.path[len(r.path)-1]
}

func (r *SimRenderer) StopMove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *SimRenderer) stopLocked() {
	if r.done != nil {
		close(r.done)
		r.done = nil
	}
	r.gen++
	r.paused = false
}

func (r *SimRenderer) PauseMove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
}

func (r *SimRenderer) ResumeMove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
}

func (r *SimRenderer) Position() domain.Coordinates {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

func (r *SimRenderer) OnArrival(fn func()) ports.ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.listeners[r.nextID] = fn
	return r.nextID
}

func (r *SimRenderer) OffArrival(id ports.ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, id)
}
