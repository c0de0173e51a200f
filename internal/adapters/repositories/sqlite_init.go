package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"campus-dispatch-service/internal/domain"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createLocationsQuery := `
	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		lon REAL NOT NULL,
		lat REAL NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		sort_order INTEGER NOT NULL DEFAULT 0
	);
	`

	createKVQuery := `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	createLegCacheQuery := `
	CREATE TABLE IF NOT EXISTS leg_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		payload TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		PRIMARY KEY (origin, destination)
	);
	`

	statements := []string{
		createLocationsQuery,
		createKVQuery,
		createLegCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the locations table from campus data. Existing rows are replaced.
func SeedLocations(ctx context.Context, db *sql.DB, locations []domain.Location) error {
	rows, err := validateSeed(locations)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed locations: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT OR REPLACE INTO locations (
		id,
		name,
		category,
		lon,
		lat,
		enabled,
		sort_order
	)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("seed locations: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range rows {
		if _, err := stmt.ExecContext(ctx, l.ID, l.Name, l.Category, l.Position.Lon, l.Position.Lat, l.Enabled, i); err != nil {
			return fmt.Errorf("seed locations: insert id=%s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed locations: commit tx: %w", err)
	}

	return nil
}

func validateSeed(locations []domain.Location) ([]domain.Location, error) {
	rows := make([]domain.Location, 0, len(locations))
	seen := make(map[string]struct{}, len(locations))
	for i, l := range locations {
		l.ID = strings.TrimSpace(l.ID)
		if l.ID == "" {
			return nil, fmt.Errorf("seed locations: item at index %d: id cannot be empty", i+1)
		}
		if _, ok := seen[l.ID]; ok {
			return nil, fmt.Errorf("seed locations: duplicate id %q", l.ID)
		}
		seen[l.ID] = struct{}{}

		if strings.TrimSpace(l.Name) == "" {
			return nil, fmt.Errorf("seed locations: item %q: name cannot be empty", l.ID)
		}
		rows = append(rows, l)
	}
	return rows, nil
}
