package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-barista-dispatch/internal/config"
	kafkax "github.com/ariefcatur/go-barista-dispatch/internal/kafka"
	"github.com/ariefcatur/go-barista-dispatch/internal/ledger"
	"github.com/ariefcatur/go-barista-dispatch/internal/logger"
	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/ariefcatur/go-barista-dispatch/internal/postgres"
	"github.com/ariefcatur/go-barista-dispatch/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	service := cfg.ServiceName + "-ledger"
	log := *logger.GetLoggerConfigured(service, cfg.LogLevel)

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal().Msg("KAFKA_BROKERS is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, true)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer db.Close()

	// Redis
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
	}

	// Service
	svc := &ledger.Service{
		Repo:  &orders.Repo{DB: db},
		Dedup: redisx.NewDedup(rdb, service),
		Log:   log,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.LedgerGroup, orders.TopicOrderCompleted, cfg.LedgerWorkers, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info().
			Str("group", cfg.LedgerGroup).
			Str("topic", orders.TopicOrderCompleted).
			Int("workers", cfg.LedgerWorkers).
			Msg("ledger consumer started")
		if err := cons.Start(ctx, svc.HandleOrderCompleted); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down consumer...")
	cancel()
	<-done
}
