package config

import (
	"os"
	"strings"
)

// Server captures process-level configuration. Event sink settings are
// optional: an empty endpoint leaves that sink disabled.
type Server struct {
	Addr string

	// Kafka event sink
	KafkaBrokers []string
	KafkaTopic   string

	// Redis stream event sink
	RedisURL    string
	RedisStream string

	// Postgres event archive sink
	PostgresDSN string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("TERRIER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var brokers []string
	if raw := os.Getenv("TERRIER_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("TERRIER_KAFKA_TOPIC")
	if topic == "" {
		topic = "terrier.registry.events"
	}

	stream := os.Getenv("TERRIER_REDIS_STREAM")
	if stream == "" {
		stream = "terrier:registry:events"
	}

	return Server{
		Addr:         addr,
		KafkaBrokers: brokers,
		KafkaTopic:   topic,
		RedisURL:     os.Getenv("TERRIER_REDIS_URL"),
		RedisStream:  stream,
		PostgresDSN:  os.Getenv("TERRIER_POSTGRES_DSN"),
	}
}
