package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"campus-dispatch-service/internal/platform/obs"
	"campus-dispatch-service/internal/ports"
)

// SQLLegCache is the Postgres flavour of the leg cache.
type SQLLegCache struct {
	DB *sql.DB
}

func NewSQLLegCache(db *sql.DB) *SQLLegCache {
	return &SQLLegCache{DB: db}
}

func (s *SQLLegCache) GetLeg(
	ctx context.Context,
	origin string,
	destination string,
) (_ ports.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "leg.cache.GetLeg")(&err)

	if s.DB == nil {
		return ports.RouteResult{}, false, errors.New("leg cache: db is nil")
	}
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return ports.RouteResult{}, false, errors.New("get leg cache: origin and destination must not be empty")
	}

	var payload string
	err = s.DB.QueryRowContext(ctx, `
	SELECT payload
	FROM leg_cache
	WHERE origin = $1
		AND destination = $2;
	`, origin, destination).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RouteResult{}, false, nil
	}
	if err != nil {
		return ports.RouteResult{}, false, fmt.Errorf("get leg cache: query leg_cache table: %w", err)
	}

	var res ports.RouteResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return ports.RouteResult{}, false, fmt.Errorf("get leg cache: decode payload: %w", err)
	}
	return res, true, nil
}

func (s *SQLLegCache) PutLeg(
	ctx context.Context,
	origin string,
	destination string,
	result ports.RouteResult,
) error {
	if s.DB == nil {
		return errors.New("leg cache: db is nil")
	}
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return errors.New("insert leg cache: origin and destination must not be empty")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("insert leg cache: encode payload: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO leg_cache (origin, destination, payload, fetched_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (origin, destination) DO UPDATE
	SET payload = EXCLUDED.payload,
		fetched_at = EXCLUDED.fetched_at;
	`, origin, destination, string(payload))
	if err != nil {
		return fmt.Errorf("insert leg cache origin=%q destination=%q: %w", origin, destination, err)
	}

	return nil
}
