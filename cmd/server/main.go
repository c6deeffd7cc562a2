// Command server hosts the registry engine behind an HTTP surface. main only
// wires dependencies: business logic lives in internal/registry.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"terrier/internal/platform/config"
	"terrier/internal/platform/httpserver"
	"terrier/internal/platform/logger"
	"terrier/internal/registry/events"
	eventskafka "terrier/internal/registry/events/kafka"
	eventsmem "terrier/internal/registry/events/memory"
	eventspg "terrier/internal/registry/events/postgres"
	"terrier/internal/registry/events/redisstream"
	"terrier/internal/registry/events/slogsink"
	"terrier/internal/registry/handler"
	"terrier/internal/registry/metrics"
	"terrier/internal/registry/service"
	"terrier/internal/registry/store/ledger"
	httptransport "terrier/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	memSink := eventsmem.NewSink()
	sinks := []events.Sink{slogsink.New(log), memSink}

	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := eventskafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka sink unavailable", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("kafka event sink enabled", "topic", cfg.KafkaTopic)
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("invalid redis URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Error("redis unreachable", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		sinks = append(sinks, redisstream.New(client, cfg.RedisStream))
		log.Info("redis stream event sink enabled", "stream", cfg.RedisStream)
	}

	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("invalid postgres DSN", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgSink := eventspg.New(db)
		if err := pgSink.EnsureSchema(ctx); err != nil {
			log.Error("postgres archive unavailable", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, pgSink)
		log.Info("postgres event archive enabled")
	}

	store := ledger.NewInMemory()
	svc, err := service.New(store,
		service.WithLogger(log),
		service.WithPublisher(events.NewFanout(log, sinks...)),
		service.WithMetrics(metrics.New()),
	)
	if err != nil {
		log.Error("failed to build registry service", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(handler.New(svc, memSink, log))
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting terrier", "addr", cfg.Addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
