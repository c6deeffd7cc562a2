// Package slogsink logs every registry event through a structured logger so
// a bare deployment still has a durable-ish trail without any broker.
package slogsink

import (
	"context"
	"encoding/json"
	"log/slog"

	"terrier/internal/registry/events"
)

type Sink struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

func (s *Sink) Write(ctx context.Context, env events.Envelope) error {
	body, err := json.Marshal(env.Body)
	if err != nil {
		return err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "registry event",
		slog.String("kind", env.Kind),
		slog.String("event_id", env.ID.String()),
		slog.Time("at", env.At),
		slog.String("body", string(body)),
	)
	return nil
}
