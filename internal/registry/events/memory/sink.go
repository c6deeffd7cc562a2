// Package memory provides an in-memory event sink, used by tests and by the
// read-side event listing endpoint.
package memory

import (
	"context"
	"sync"

	"terrier/internal/registry/events"
)

type Sink struct {
	mu      sync.RWMutex
	entries []events.Envelope
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Write(_ context.Context, env events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, env)
	return nil
}

// List returns all captured events in emission order.
func (s *Sink) List(_ context.Context) []events.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.Envelope{}, s.entries...)
}

func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
