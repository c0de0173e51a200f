package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-dispatch-service/internal/platform/obs"
	"campus-dispatch-service/internal/ports"
)

// SQLite backed cache for origin->destination routing answers.
// Keys are "lon,lat" strings produced by Coordinates.String.
type SqliteLegCache struct {
	DB *sql.DB
}

func NewSqliteLegCache(db *sql.DB) *SqliteLegCache {
	return &SqliteLegCache{DB: db}
}

func (s *SqliteLegCache) GetLeg(
	ctx context.Context,
	origin string,
	destination string,
) (_ ports.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "leg.cache.sqlite.GetLeg")(&err)

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
	WHERE origin = ?
		AND destination = ?;
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

func (s *SqliteLegCache) PutLeg(
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
	INSERT OR REPLACE INTO leg_cache (
		origin,
		destination,
		payload,
		fetched_at
	)
	VALUES (?, ?, ?, ?);
	`, origin, destination, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert leg cache origin=%q destination=%q: %w", origin, destination, err)
	}

	return nil
}
