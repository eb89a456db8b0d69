// Package store provides the automation-requests lookup backing the
// trigger-by-id endpoint.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Postgres driver
)

// ErrNotFound is returned when no automation request exists for an id.
var ErrNotFound = errors.New("automation request not found")

// AutomationRequest is one queued request: what to generate and about what.
type AutomationRequest struct {
	ID           int64
	OutputFormat string
	Theme        string
	CreatedAt    time.Time
}

// Store wraps the shared Postgres database.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the automation_requests table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS automation_requests (
			id            SERIAL PRIMARY KEY,
			output_format VARCHAR(50) NOT NULL,
			theme         VARCHAR(255) NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create automation_requests table: %w", err)
	}
	return nil
}

// GetAutomationRequest looks up one request by id. Returns ErrNotFound when
// no row exists.
func (s *Store) GetAutomationRequest(ctx context.Context, id int64) (*AutomationRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, output_format, theme, created_at
		FROM automation_requests
		WHERE id = $1`, id)

	var req AutomationRequest
	err := row.Scan(&req.ID, &req.OutputFormat, &req.Theme, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load automation request %d: %w", id, err)
	}
	return &req, nil
}
