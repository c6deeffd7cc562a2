package events

import (
	"context"
	"log/slog"
)

// Fanout dispatches each event to every sink, synchronously and in sink
// order. The engine has already committed by the time an event reaches a
// sink, so a failing sink is logged and skipped rather than surfaced as an
// operation failure.
type Fanout struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewFanout builds a fanout publisher over the given sinks.
func NewFanout(logger *slog.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{sinks: sinks, logger: logger}
}

// Emit envelopes the event once and writes it to each sink in order.
func (f *Fanout) Emit(ctx context.Context, e Event) error {
	env := NewEnvelope(e)
	for _, sink := range f.sinks {
		if err := sink.Write(ctx, env); err != nil {
			f.logger.Error("event sink write failed",
				"kind", env.Kind,
				"event_id", env.ID,
				"error", err,
			)
		}
	}
	return nil
}
