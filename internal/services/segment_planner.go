package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/platform/obs"
	"campus-dispatch-service/internal/ports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("campus-dispatch-service/internal/services")

var (
	errNoRoutes  = errors.New("provider returned no routes")
	errEmptyPath = errors.New("provider returned an empty path")
)

// SegmentPlanner plans exactly one A->B leg through a routing provider.
type SegmentPlanner struct {
	provider ports.RoutingProvider
}

func NewSegmentPlanner(provider ports.RoutingProvider) *SegmentPlanner {
	return &SegmentPlanner{provider: provider}
}

// PlanLeg calls the provider once and returns the cleaned leg.
// Every failure is a *domain.PlanningError carrying index and raw response.
func (s *SegmentPlanner) PlanLeg(
	ctx context.Context,
	index int,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ domain.RouteSegment, err error) {
	defer obs.Time(ctx, "segment.PlanLeg")(&err)

	ctx, span := tracer.Start(ctx, "segment.PlanLeg", trace.WithAttributes(
		attribute.Int("leg.index", index),
		attribute.String("leg.from", from.String()),
		attribute.String("leg.to", to.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	res, err := s.provider.Search(ctx, from, to)
	if err != nil {
		return domain.RouteSegment{}, &domain.PlanningError{LegIndex: index, Raw: res.Raw, Err: err}
	}

	if res.Status != ports.RouteStatusComplete {
		return domain.RouteSegment{}, &domain.PlanningError{
			LegIndex: index,
			Raw:      res.Raw,
			Err:      fmt.Errorf("provider status %q", res.Status),
		}
	}

	if len(res.Routes) == 0 {
		return domain.RouteSegment{}, &domain.PlanningError{LegIndex: index, Raw: res.Raw, Err: errNoRoutes}
	}

	route := res.Routes[0]
	path := domain.CleanPath(ExtractPath(route))
	if len(path) == 0 {
		return domain.RouteSegment{}, &domain.PlanningError{LegIndex: index, Raw: res.Raw, Err: errEmptyPath}
	}

	span.SetAttributes(attribute.Int("leg.points", len(path)))

	return domain.RouteSegment{
		Index:           index,
		From:            from,
		To:              to,
		Path:            path,
		DistanceMeters:  int(math.Round(route.Distance)),
		DurationSeconds: int(math.Round(route.Time)),
	}, nil
}

// ExtractPath flattens whichever geometry shape the provider used.
// Rides (with their steps) win over top-level steps, which win over a flat
// path; the first non-empty shape is returned.
func ExtractPath(route ports.Route) []domain.Coordinates {
	var path []domain.Coordinates
	for _, ride := range route.Rides {
		path = append(path, ride.Path...)
		for _, step := range ride.Steps {
			path = append(path, step.Path...)
		}
	}
	if len(path) > 0 {
		return path
	}

	for _, step := range route.Steps {
		path = append(path, step.Path...)
	}
	if len(path) > 0 {
		return path
	}

	return append(path, route.Path...)
}
