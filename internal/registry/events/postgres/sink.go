// Package postgres archives registry events to an append-only table so
// external reporting can query history without holding the engine's lock.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"terrier/internal/registry/events"
)

type Sink struct {
	db *sql.DB
}

// New wraps an open database handle. Call EnsureSchema once before writing.
func New(db *sql.DB) *Sink {
	return &Sink{db: db}
}

// EnsureSchema creates the archive table if it does not exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS registry_events (
			id         UUID PRIMARY KEY,
			kind       TEXT NOT NULL,
			emitted_at TIMESTAMPTZ NOT NULL,
			body       JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure registry_events schema: %w", err)
	}
	return nil
}

func (s *Sink) Write(ctx context.Context, env events.Envelope) error {
	body, err := json.Marshal(env.Body)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", env.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO registry_events (id, kind, emitted_at, body) VALUES ($1, $2, $3, $4)`,
		env.ID, env.Kind, env.At, body,
	)
	if err != nil {
		return fmt.Errorf("archive event %s: %w", env.ID, err)
	}
	return nil
}

// Count returns the number of archived events, optionally filtered by kind.
// Empty kind counts everything.
func (s *Sink) Count(ctx context.Context, kind string) (int, error) {
	var n int
	var err error
	if kind == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registry_events`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registry_events WHERE kind = $1`, kind).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count archived events: %w", err)
	}
	return n, nil
}
