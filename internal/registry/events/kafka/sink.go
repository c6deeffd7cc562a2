// Package kafka publishes registry events to a Kafka topic for external
// indexing collaborators. Records are keyed by event kind so consumers keep
// per-kind ordering.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"terrier/internal/registry/events"
)

type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects a producer to the given brokers. The caller owns the returned
// sink and must Close it on shutdown.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

func (s *Sink) Write(ctx context.Context, env events.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", env.ID, err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(env.Kind),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event %s: %w", env.ID, err)
	}
	return nil
}

func (s *Sink) Close() {
	s.client.Close()
}
