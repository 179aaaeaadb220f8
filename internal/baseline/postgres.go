package baseline

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/lib/pq"

	"github.com/Alias1177/dexsentinel/internal/model"
)

// PostgresStore keeps several named baselines in one table.
type PostgresStore struct {
	db   *sql.DB
	name string
}

// ConnectionParams holds PostgreSQL connection parameters.
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the parameters as a lib/pq keyword/value connection string.
func (p ConnectionParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// OpenPostgres connects to dsn, creates the table if needed and returns a
// store for the baseline called name.
func OpenPostgres(ctx context.Context, dsn, name string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return NewPostgresStore(db, name), nil
}

// NewPostgresStore wraps an open database. The table must already exist.
func NewPostgresStore(db *sql.DB, name string) *PostgresStore {
	return &PostgresStore{db: db, name: name}
}

// createTables creates the baseline table if it doesn't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS baseline_metrics (
			name        TEXT NOT NULL,
			key         TEXT NOT NULL,
			value       DOUBLE PRECISION NOT NULL,
			observed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (name, key)
		)
	`)
	return err
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Load reads every row of this store's baseline.
func (s *PostgresStore) Load(ctx context.Context) (model.Baseline, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value
		FROM baseline_metrics
		WHERE name = $1
	`, s.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBaselineUnavailable, err)
	}
	defer rows.Close()

	b := model.Baseline{}
	for rows.Next() {
		var key string
		var value sql.NullFloat64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrBaselineCorrupt, err)
		}
		if value.Valid {
			b[key] = value.Float64
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBaselineUnavailable, err)
	}

	return sanitize(b), nil
}

// Save replaces this store's baseline in a single transaction.
func (s *PostgresStore) Save(ctx context.Context, b model.Baseline) error {
	for k, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value for %q", model.ErrBaselineWriteFailed, k)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrBaselineWriteFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM baseline_metrics WHERE name = $1`, s.name); err != nil {
		return fmt.Errorf("%w: clearing: %v", model.ErrBaselineWriteFailed, err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("baseline_metrics", "name", "key", "value", "observed_at"))
	if err != nil {
		return fmt.Errorf("%w: preparing copy: %v", model.ErrBaselineWriteFailed, err)
	}

	now := time.Now().UTC()
	for k, v := range b {
		if _, err := stmt.ExecContext(ctx, s.name, k, v, now); err != nil {
			stmt.Close()
			return fmt.Errorf("%w: copying %q: %v", model.ErrBaselineWriteFailed, k, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("%w: flushing copy: %v", model.ErrBaselineWriteFailed, err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrBaselineWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", model.ErrBaselineWriteFailed, err)
	}
	return nil
}
