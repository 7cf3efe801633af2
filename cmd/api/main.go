package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/barista"
	"github.com/ariefcatur/go-barista-dispatch/internal/config"
	"github.com/ariefcatur/go-barista-dispatch/internal/dispatch"
	"github.com/ariefcatur/go-barista-dispatch/internal/dynamo"
	"github.com/ariefcatur/go-barista-dispatch/internal/httpx"
	kafkax "github.com/ariefcatur/go-barista-dispatch/internal/kafka"
	"github.com/ariefcatur/go-barista-dispatch/internal/logger"
	"github.com/ariefcatur/go-barista-dispatch/internal/postgres"
	"github.com/ariefcatur/go-barista-dispatch/internal/priority"
	"github.com/ariefcatur/go-barista-dispatch/internal/queue"
	"github.com/ariefcatur/go-barista-dispatch/internal/redisx"
	"github.com/ariefcatur/go-barista-dispatch/internal/scenario"
	"github.com/ariefcatur/go-barista-dispatch/internal/shop"
	"github.com/ariefcatur/go-barista-dispatch/internal/stats"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := *logger.GetLoggerConfigured(cfg.ServiceName, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Clock
	var clock dispatch.Clock = dispatch.SystemClock{}
	if cfg.ClockSpeedup > 1 {
		clock = dispatch.NewScaledClock(time.Now(), cfg.ClockSpeedup)
		log.Info().Float64("speedup", cfg.ClockSpeedup).Msg("live clock is scaled")
	}

	// Engine
	model := priority.DefaultModel()
	pool := barista.New(cfg.BaristaCount, time.Minute)
	agg := stats.New(pool.Size(), stats.DefaultSLA)
	eng := dispatch.New(
		queue.New(model),
		pool,
		dispatch.WithLogger(log.With().Str("component", "dispatch").Logger()),
		dispatch.WithListener(agg.Observe),
	)

	// Kafka producer
	var pub *kafkax.Publisher
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
		prod.Start(ctx)
		pub = kafkax.NewPublisher(prod, cfg.ServiceName)
		eng.Subscribe(pub.Observe)
	}

	loop := dispatch.NewLoop(eng, clock, log)
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	// History
	history, closeHistory, err := openHistory(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.HistoryStore).Msg("history store")
	}
	defer closeHistory()

	// Scenarios
	cat, err := scenario.Builtin()
	if err != nil {
		log.Fatal().Err(err).Msg("scenario catalog")
	}
	runner := scenario.NewRunner(cat,
		scenario.WithBaristas(cfg.BaristaCount),
		scenario.WithModel(model),
		scenario.WithLogger(log.With().Str("component", "scenario").Logger()),
	)

	opts := []shop.Option{shop.WithLogger(log)}
	if pub != nil {
		opts = append(opts, shop.WithScenarioSink(pub))
	}

	// Redis
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		opts = append(opts, shop.WithIdempotency(redisx.NewIdempotency(rdb)))
	}

	svc := shop.New(loop, agg, runner, history, opts...)
	router := httpx.NewRouter()
	h := &httpx.Handler{Shop: svc, Log: log}
	h.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Int("baristas", cfg.BaristaCount).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel()
	if err := <-loopDone; err != nil {
		log.Error().Err(err).Msg("dispatch loop")
	}
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
		if n := prod.Dropped(); n > 0 {
			log.Warn().Int64("dropped", n).Msg("events dropped while the producer was full")
		}
	}
}

// openHistory picks the scenario history backend named by HISTORY_STORE.
func openHistory(ctx context.Context, cfg config.Config, log zerolog.Logger) (scenario.Store, func(), error) {
	switch cfg.HistoryStore {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, true)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("scenario history in postgres")
		return &scenario.PostgresStore{DB: db}, db.Close, nil
	case "dynamodb", "dynamo":
		ddb, err := dynamo.Connect(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("table", cfg.DynamoTable).Msg("scenario history in dynamodb")
		return scenario.NewDynamoStore(ddb, cfg.DynamoTable), func() {}, nil
	default:
		return scenario.NewMemoryStore(), func() {}, nil
	}
}
