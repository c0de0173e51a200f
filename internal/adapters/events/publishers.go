package events

import (
	"context"
	"errors"
	"log"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/ports"
)

// LogPublisher writes every event to the standard logger.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e domain.MissionEvent) error {
	log.Printf("event=%s mission_id=%s state=%s code=%s detail=%q",
		e.Type, e.MissionID, e.State, e.TransportCode, e.Detail)
	return nil
}

// FanOut publishes to every target and joins their errors. One failing
// target does not stop delivery to the others.
type FanOut []ports.EventPublisher

func (f FanOut) Publish(ctx context.Context, e domain.MissionEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory; tests use it to assert on
// transitions.
type Recorder struct {
	ch chan domain.MissionEvent
}

func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan domain.MissionEvent, size)}
}

func (r *Recorder) Publish(ctx context.Context, e domain.MissionEvent) error {
	select {
	case r.ch <- e:
	default:
	}
	return nil
}

// Types drains and returns the recorded event types in order.
func (r *Recorder) Types() []string {
	var out []string
	for {
		select {
		case e := <-r.ch:
			out = append(out, e.Type)
		default:
			return out
		}
	}
}
