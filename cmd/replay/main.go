package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"sweep-signal-lab/internal/config"
	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/engine"
	"sweep-signal-lab/internal/replay"
	chstore "sweep-signal-lab/internal/storage/clickhouse"
	"sweep-signal-lab/internal/verification"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	symbol := flag.String("symbol", "", "Symbol to replay (defaults to the configured symbol)")

	csvPath := flag.String("csv", "", "Replay bars from a CSV file")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Replay bars from the ClickHouse archive")
	from := flag.Int64("from", 0, "Range start, Unix milliseconds (archive replay only)")
	to := flag.Int64("to", 0, "Range end, Unix milliseconds (archive replay only)")

	verify := flag.Bool("verify", false, "Replay twice through fresh engines and compare signal sequences")
	outputJSON := flag.Bool("json", false, "Print emitted signals as JSON lines")
	pretty := flag.Bool("pretty", false, "Human-readable console logging")

	flag.Parse()

	log := newLogger(*pretty)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	if *symbol == "" {
		*symbol = cfg.Symbol
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bars, err := loadBars(ctx, log, *csvPath, *clickhouseDSN, *symbol, *from, *to)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load bars")
	}
	if len(bars) == 0 {
		log.Fatal().Str("symbol", *symbol).Msg("no bars to replay")
	}
	log.Info().Int("bars", len(bars)).Str("symbol", *symbol).Msg("replaying")

	signals := runOnce(ctx, log, cfg, bars)
	log.Info().Int("signals", len(signals)).Msg("replay complete")

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, sig := range signals {
			if err := enc.Encode(sig); err != nil {
				log.Fatal().Err(err).Msg("failed to encode signal")
			}
		}
	} else {
		for _, sig := range signals {
			log.Info().
				Str("id", sig.ID).
				Str("side", string(sig.Side)).
				Float64("entry", sig.EntryPrice).
				Float64("stop", sig.StopLoss).
				Float64("target", sig.TakeProfit).
				Int64("ts", sig.TimestampMs).
				Msg("signal")
		}
	}

	if *verify {
		second := runOnce(ctx, log, cfg, bars)
		report := verification.CompareRuns(signals, second)
		if report.Match() {
			log.Info().Int("signals", report.TotalSignals).Msg("verification passed, runs are identical")
			return
		}
		for _, result := range report.Results {
			for _, d := range result.Divergences {
				log.Error().
					Str("signal_id", result.SignalID).
					Str("field", d.Field).
					Interface("expected", d.Expected).
					Interface("actual", d.Actual).
					Msg("divergence")
			}
		}
		log.Fatal().
			Int("divergent", report.DivergentCount).
			Int("missing", report.MissingReplayed).
			Int("extra", report.ExtraReplayed).
			Msg("verification failed")
	}
}

func loadBars(ctx context.Context, log zerolog.Logger, csvPath, clickhouseDSN, symbol string, from, to int64) ([]*domain.Bar, error) {
	switch {
	case csvPath != "":
		return replay.LoadCSV(csvPath, symbol)
	case clickhouseDSN != "":
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return nil, err
		}
		defer conn.Close()

		store := chstore.NewBarStore(conn)
		if from != 0 || to != 0 {
			return store.GetByTimeRange(ctx, symbol, from, to)
		}
		return store.GetBySymbol(ctx, symbol)
	default:
		log.Fatal().Msg("either --csv or --clickhouse-dsn is required")
		return nil, nil
	}
}

func runOnce(ctx context.Context, log zerolog.Logger, cfg config.Config, bars []*domain.Bar) []*domain.Signal {
	eng, err := engine.New(cfg, log, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build engine")
	}

	signals, err := replay.ReplayBars(ctx, bars, eng)
	if err != nil {
		log.Fatal().Err(err).Msg("replay failed")
	}
	return signals
}

func newLogger(pretty bool) zerolog.Logger {
	logger := zerolog.New(os.Stderr)
	if pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger.With().Timestamp().Logger()
}
