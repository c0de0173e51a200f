package routing

import (
	"context"
	"fmt"
	"log"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/platform/obs"
	"campus-dispatch-service/internal/ports"
)

// CachedProvider consults a persistent leg cache before calling the wrapped
// provider. Only complete answers are cached; cache failures never fail a
// search.
type CachedProvider struct {
	inner ports.RoutingProvider
	cache ports.LegCache
}

func NewCachedProvider(inner ports.RoutingProvider, cache ports.LegCache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache}
}

func (c *CachedProvider) Search(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "routing.cached.Search")(&err)

	origin, destination := from.String(), to.String()

	hit, ok, err := c.cache.GetLeg(ctx, origin, destination)
	if err != nil {
		log.Printf("op=routing.cached.Search msg=%q err=%v", "leg cache read failed", err)
	} else if ok {
		return hit, nil
	}

	res, err := c.inner.Search(ctx, from, to)
	if err != nil {
		return res, fmt.Errorf("cached provider: %w", err)
	}

	if res.Status == ports.RouteStatusComplete && len(res.Routes) > 0 {
		if err := c.cache.PutLeg(ctx, origin, destination, res); err != nil {
			log.Printf("op=routing.cached.Search msg=%q err=%v", "leg cache write failed", err)
		}
	}

	return res, nil
}
