package services

import (
	"context"
	"fmt"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/platform/obs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RouteComposer chains SegmentPlanner calls across waypoints.
//
// Legs are requested strictly one after another: providers rate-limit, and
// the first failed leg must short-circuit the rest.
type RouteComposer struct {
	planner *SegmentPlanner
}

func NewRouteComposer(planner *SegmentPlanner) *RouteComposer {
	return &RouteComposer{planner: planner}
}

// PlanRoute plans start -> waypoints... -> end and merges the legs.
// No partial route is returned on failure.
func (c *RouteComposer) PlanRoute(
	ctx context.Context,
	start domain.Coordinates,
	end domain.Coordinates,
	waypoints []domain.Coordinates,
) (_ domain.ComposedRoute, err error) {
	defer obs.Time(ctx, "route.PlanRoute")(&err)

	nodes := make([]domain.Coordinates, 0, len(waypoints)+2)
	nodes = append(nodes, start)
	nodes = append(nodes, waypoints...)
	nodes = append(nodes, end)

	ctx, span := tracer.Start(ctx, "route.PlanRoute", trace.WithAttributes(
		attribute.Int("route.legs", len(nodes)-1),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	route := domain.ComposedRoute{Path: []domain.Coordinates{}}

	for i := 0; i < len(nodes)-1; i++ {
		seg, err := c.planner.PlanLeg(ctx, i, nodes[i], nodes[i+1])
		if err != nil {
			return domain.ComposedRoute{}, fmt.Errorf("plan route: leg %d of %d: %w", i+1, len(nodes)-1, err)
		}

		// The first point of every later leg is the previous leg's last point.
		points := seg.Path
		if i > 0 {
			points = points[1:]
		}
		for _, p := range points {
			route.Path = domain.AppendSpaced(route.Path, p)
		}

		route.TotalDistanceMeters += seg.DistanceMeters
		route.TotalDurationSeconds += seg.DurationSeconds
		route.Legs++
	}

	return route, nil
}
