package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/platform/obs"
)

// SQL-backed implementation of the LocationRepository port. The placeholder
// style differs between SQLite ("?") and Postgres ("$1").
type SQLLocationRepository struct {
	DB       *sql.DB
	postgres bool
}

func NewSqliteLocationRepository(db *sql.DB) *SQLLocationRepository {
	return &SQLLocationRepository{DB: db}
}

func NewPostgresLocationRepository(db *sql.DB) *SQLLocationRepository {
	return &SQLLocationRepository{DB: db, postgres: true}
}

// Return all locations in seed order.
func (s *SQLLocationRepository) ListLocations(ctx context.Context) (_ []domain.Location, err error) {
	defer obs.Time(ctx, "locations.List")(&err)

	if s.DB == nil {
		return nil, errors.New("location repository: DB is nil")
	}

	query := `
	SELECT
		id,
		name,
		category,
		lon,
		lat,
		enabled
	FROM locations
	ORDER BY sort_order, id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list locations: query locations table: %w", err)
	}
	defer rows.Close()

	locations := make([]domain.Location, 0, 16)
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Category, &l.Position.Lon, &l.Position.Lat, &l.Enabled); err != nil {
			return nil, fmt.Errorf("list locations: scan row: %w", err)
		}
		locations = append(locations, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: row iteration: %w", err)
	}

	return locations, nil
}

func (s *SQLLocationRepository) GetLocation(ctx context.Context, id string) (domain.Location, error) {
	if s.DB == nil {
		return domain.Location{}, errors.New("location repository: DB is nil")
	}

	query := `
	SELECT id, name, category, lon, lat, enabled
	FROM locations
	WHERE id = ?;
	`
	if s.postgres {
		query = `
		SELECT id, name, category, lon, lat, enabled
		FROM locations
		WHERE id = $1;
		`
	}

	var l domain.Location
	err := s.DB.QueryRowContext(ctx, query, id).
		Scan(&l.ID, &l.Name, &l.Category, &l.Position.Lon, &l.Position.Lat, &l.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, fmt.Errorf("get location %q: %w", id, domain.ErrLocationNotFound)
	}
	if err != nil {
		return domain.Location{}, fmt.Errorf("get location %q: %w", id, err)
	}

	return l, nil
}
