package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"propwatch/config"
	"propwatch/models"
)

// timeFormat is RFC3339 with a fixed-width fraction so the TEXT columns
// sort lexically in chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists property records and enforces the natural-key uniqueness
// constraint. It runs on SQLite by default and on Postgres when a
// DATABASE_URL is configured; both backends share the same SQL through a
// placeholder rebind.
type Store struct {
	db       *sql.DB
	postgres bool
}

// Open connects to the configured backend and creates the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	var (
		db  *sql.DB
		err error
		pg  = cfg.DatabaseURL != ""
	)
	if pg {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
	} else {
		db, err = sql.Open("sqlite", cfg.DatabasePath)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if !pg {
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout = 5000",
		} {
			if _, execErr := db.Exec(pragma); execErr != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
			}
		}
	}

	store := &Store{db: db, postgres: pg}
	if err := store.createSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) createSchema(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.postgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS properties (
			%s,
			county        TEXT NOT NULL,
			parcel_id     TEXT NOT NULL,
			address       TEXT NOT NULL,
			city          TEXT,
			state         TEXT,
			zip_code      TEXT,
			property_type TEXT,
			record_type   TEXT NOT NULL,
			sale_price    INTEGER,
			sale_date     TEXT,
			seller        TEXT,
			buyer         TEXT,
			url           TEXT NOT NULL,
			raw_data      TEXT,
			first_seen    TEXT NOT NULL,
			last_seen     TEXT NOT NULL,
			notified      INTEGER NOT NULL DEFAULT 0
		)`, idColumn),
		// The natural key. COALESCE folds all date-less sightings of a
		// (county, parcel, record type) triple into one bucket, so the
		// constraint holds structurally even for records without a date.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_properties_natural_key
			ON properties(county, parcel_id, record_type, COALESCE(sale_date, ''))`,
		`CREATE INDEX IF NOT EXISTS idx_properties_county ON properties(county)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_zip ON properties(zip_code)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_type ON properties(record_type)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(sale_price)`,
		`CREATE TABLE IF NOT EXISTS scrape_runs (
			id             TEXT PRIMARY KEY,
			source         TEXT NOT NULL,
			started_at     TEXT NOT NULL,
			finished_at    TEXT,
			status         TEXT NOT NULL,
			listings_found INTEGER NOT NULL DEFAULT 0,
			listings_new   INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $N for Postgres.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Upsert inserts a record, or refreshes last_seen when its natural key is
// already present. The insert races straight into the unique index: a
// conflict means "already exists" and resolves as the update, so two
// concurrent upserts for one key can never both insert.
//
// Only last_seen changes on a repeat sighting. Price, parties and the raw
// payload keep their first-observed values.
func (s *Store) Upsert(ctx context.Context, record *models.PropertyRecord) (int64, bool, error) {
	now := time.Now().UTC()
	timestamp := now.Format(timeFormat)

	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO properties
			(county, parcel_id, address, city, state, zip_code, property_type,
			 record_type, sale_price, sale_date, seller, buyer, url, raw_data,
			 first_seen, last_seen, notified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		 ON CONFLICT (county, parcel_id, record_type, COALESCE(sale_date, '')) DO NOTHING
		 RETURNING id`),
		record.County,
		record.ParcelID,
		record.Address,
		record.City,
		record.State,
		record.ZipCode,
		record.PropertyType,
		record.RecordType,
		record.SalePrice,
		nullableString(record.SaleDate),
		nullableString(record.Seller),
		nullableString(record.Buyer),
		record.URL,
		nullableString(record.RawData),
		timestamp,
		timestamp,
	).Scan(&id)

	if err == nil {
		record.ID = id
		record.FirstSeen = now
		record.LastSeen = now
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("insert record: %w", err)
	}

	// Conflict: the key exists. The lookup folds NULL dates with COALESCE,
	// matching the unique-index expression; a bare "? IS NULL" would leave
	// the parameter type unresolvable for the Postgres planner.
	err = s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id FROM properties
		 WHERE county = ? AND parcel_id = ? AND record_type = ?
		   AND COALESCE(sale_date, '') = COALESCE(?, '')`),
		record.County,
		record.ParcelID,
		record.RecordType,
		nullableString(record.SaleDate),
	).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("lookup existing record: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE properties SET last_seen = ? WHERE id = ?`),
		timestamp, id,
	); err != nil {
		return 0, false, fmt.Errorf("update last_seen: %w", err)
	}

	record.ID = id
	record.LastSeen = now
	return id, false, nil
}

// MarkNotified flips the notified flag. Idempotent.
func (s *Store) MarkNotified(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE properties SET notified = 1 WHERE id = ?`), id,
	); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

func nullableString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

// StartRun records the beginning of one source's scrape run.
func (s *Store) StartRun(ctx context.Context, source string) (string, error) {
	runID := uuid.NewString()
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO scrape_runs (id, source, started_at, status) VALUES (?, ?, ?, ?)`),
		runID, source, time.Now().UTC().Format(timeFormat), string(models.RunStatusRunning),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return runID, nil
}

// FinishRun closes out a scrape run with its outcome and counters.
func (s *Store) FinishRun(ctx context.Context, runID string, status models.RunStatus, found, newCount int) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE scrape_runs
		 SET finished_at = ?, status = ?, listings_found = ?, listings_new = ?
		 WHERE id = ?`),
		time.Now().UTC().Format(timeFormat), string(status), found, newCount, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
