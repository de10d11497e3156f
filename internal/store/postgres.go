package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"text-summarizer/internal/retry"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type PostgresStore struct {
	db *sql.DB
}

// NewPostgres opens the event log, waiting briefly for the database to come
// up, and migrates its schema.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := retry.Do(ctx, 5, 200*time.Millisecond, 2*time.Second, db.PingContext); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres unreachable: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies the embedded migrations. The driver takes a Postgres
// advisory lock, so replicas starting together are safe.
func (s *PostgresStore) migrate(ctx context.Context) error {
	driver, err := migratepgx.WithInstance(s.db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordEvent(ctx context.Context, ev Event) (Event, error) {
	ev, err := prepare(ev)
	if err != nil {
		return Event{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO summarization_events
			(id, source, primary_mode, backend, backends_tried, fallback, input_chars, summary_chars, error, duration_ms, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		ev.ID, ev.Source, ev.PrimaryMode, ev.Backend, pq.Array(ev.BackendsTried), ev.Fallback,
		ev.InputChars, ev.SummaryChars, ev.Error, ev.Duration.Milliseconds(), ev.CreatedAt)
	if err != nil {
		return Event{}, fmt.Errorf("record event %s: %w", ev.ID, err)
	}
	return ev, nil
}

func (s *PostgresStore) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, primary_mode, backend, backends_tried, fallback,
			input_chars, summary_chars, error, duration_ms, created_at
		FROM summarization_events
		ORDER BY created_at DESC
		LIMIT $1`, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var (
			ev         Event
			durationMS int64
		)
		if err := rows.Scan(&ev.ID, &ev.Source, &ev.PrimaryMode, &ev.Backend, pq.Array(&ev.BackendsTried),
			&ev.Fallback, &ev.InputChars, &ev.SummaryChars, &ev.Error, &durationMS, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// ClampLimit bounds a caller-supplied page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	default:
		return limit
	}
}
