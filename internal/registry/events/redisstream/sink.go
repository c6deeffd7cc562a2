// Package redisstream appends registry events to a Redis stream. Stream
// entries keep insertion order, which matches the engine's emission order.
package redisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"terrier/internal/registry/events"
)

type Sink struct {
	client *redis.Client
	stream string
}

// New builds a sink over an already-connected client. The client lifecycle
// belongs to the caller.
func New(client *redis.Client, stream string) *Sink {
	return &Sink{client: client, stream: stream}
}

func (s *Sink) Write(ctx context.Context, env events.Envelope) error {
	body, err := json.Marshal(env.Body)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", env.ID, err)
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":   env.ID.String(),
			"kind": env.Kind,
			"at":   env.At.Format(time.RFC3339Nano),
			"body": string(body),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd event %s: %w", env.ID, err)
	}
	return nil
}
