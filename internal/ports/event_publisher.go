package ports

import (
	"context"

	"campus-dispatch-service/internal/domain"
)

// Contract for broadcasting mission transitions to observers.
// Publish must not block on slow consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.MissionEvent) error
}
