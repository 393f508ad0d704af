package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"sweep-signal-lab/internal/config"
	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/engine"
	"sweep-signal-lab/internal/feed"
	"sweep-signal-lab/internal/observability"
	"sweep-signal-lab/internal/publish"
	"sweep-signal-lab/internal/replay"
	"sweep-signal-lab/internal/storage"
	chstore "sweep-signal-lab/internal/storage/clickhouse"
	"sweep-signal-lab/internal/storage/memory"
	pgstore "sweep-signal-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")

	// Bar sources, exactly one required.
	feedURL := flag.String("feed-url", "", "Websocket bar feed URL")
	csvPath := flag.String("csv", "", "Run over bars from a CSV file")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Run over bars from the ClickHouse archive")

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for the signal store")
	redisAddr := flag.String("redis-addr", "", "Redis address for signal publishing")
	redisPassword := flag.String("redis-password", "", "Redis password")
	redisDB := flag.Int("redis-db", 0, "Redis database number")

	metricsAddr := flag.String("metrics-addr", ":9100", "Prometheus metrics listen address")
	pretty := flag.Bool("pretty", false, "Human-readable console logging")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	log := newLogger(*pretty, *debug)

	sources := 0
	for _, s := range []string{*feedURL, *csvPath, *clickhouseDSN} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		log.Fatal().Msg("exactly one of --feed-url, --csv or --clickhouse-dsn is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	met := observability.NewMetrics("")

	eng, err := engine.New(cfg, log, met)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build engine")
	}

	// Signal store: postgres when configured, in-memory otherwise.
	var signalStore storage.SignalStore
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		signalStore = pgstore.NewSignalStore(pool).WithMetrics(met)
		log.Info().Msg("using postgres signal store")
	} else {
		signalStore = memory.NewSignalStore()
		log.Warn().Msg("no postgres DSN configured, signals are not persisted across restarts")
	}

	var publisher *publish.Publisher
	if *redisAddr != "" {
		publisher, err = publish.NewPublisher(ctx, publish.PublisherConfig{
			Addr:     *redisAddr,
			Password: *redisPassword,
			DB:       *redisDB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer publisher.Close()
		log.Info().Str("addr", *redisAddr).Str("channel", publish.SignalChannel).Msg("publishing signals to redis")
	}

	go serveMetrics(log, *metricsAddr)

	log.Info().Str("symbol", cfg.Symbol).Msg("starting signal engine")

	handler := func(ctx context.Context, bar domain.Bar) error {
		sig, err := eng.OnBar(ctx, bar, nil)
		if err != nil {
			return err
		}

		if publisher != nil {
			if err := publisher.PublishBarClose(ctx, bar); err != nil {
				met.PublishErrors.Inc()
				log.Error().Err(err).Msg("failed to publish bar close")
			}
		}
		if sig == nil {
			return nil
		}

		if err := signalStore.Insert(ctx, sig); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			log.Error().Err(err).Str("signal_id", sig.ID).Msg("failed to persist signal")
		}

		if publisher != nil {
			if err := publisher.PublishSignal(ctx, sig); err != nil {
				met.PublishErrors.Inc()
				log.Error().Err(err).Str("signal_id", sig.ID).Msg("failed to publish signal")
			} else {
				met.SignalsPublished.Inc()
			}
		}
		return nil
	}

	switch {
	case *feedURL != "":
		client := feed.NewClient(*feedURL, log, met)
		if err := client.Run(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("feed terminated")
		}
	case *csvPath != "":
		bars, err := replay.LoadCSV(*csvPath, cfg.Symbol)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load csv bars")
		}
		runBars(ctx, log, bars, handler)
	case *clickhouseDSN != "":
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to clickhouse")
		}
		defer conn.Close()

		bars, err := chstore.NewBarStore(conn).WithMetrics(met).GetBySymbol(ctx, cfg.Symbol)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load archived bars")
		}
		runBars(ctx, log, bars, handler)
	}

	log.Info().Msg("shutdown complete")
}

func runBars(ctx context.Context, log zerolog.Logger, bars []*domain.Bar, handler feed.Handler) {
	log.Info().Int("bars", len(bars)).Msg("running over archived bars")
	for _, b := range bars {
		if ctx.Err() != nil {
			return
		}
		if err := handler(ctx, *b); err != nil {
			log.Fatal().Err(err).Msg("engine error")
		}
	}
}

func newLogger(pretty, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stderr)
	if pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func serveMetrics(log zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
