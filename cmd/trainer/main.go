package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/tradequest/config"
	"github.com/alejandrodnm/tradequest/internal/adapters/metrics"
	"github.com/alejandrodnm/tradequest/internal/adapters/notify"
	"github.com/alejandrodnm/tradequest/internal/adapters/storage"
	"github.com/alejandrodnm/tradequest/internal/application/game"
	"github.com/alejandrodnm/tradequest/internal/domain"
	"github.com/alejandrodnm/tradequest/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

type options struct {
	candles      string
	symbol       string
	script       string
	mission      string
	missions     string
	listMissions bool
	dryRun       bool
	report       bool
	fast         bool
	table        bool
	backtest     int
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")

	var opts options
	flag.StringVar(&opts.candles, "candles", "", "candle JSON file (overrides config; empty = synthetic series)")
	flag.StringVar(&opts.symbol, "symbol", "", "symbol to play (overrides config)")
	flag.StringVar(&opts.script, "script", "", "YAML action script to replay")
	flag.StringVar(&opts.mission, "mission", "", "career mission ID to play")
	flag.StringVar(&opts.missions, "missions", "", "mission catalog YAML (overrides config)")
	flag.BoolVar(&opts.listMissions, "list-missions", false, "print the mission catalog and exit")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "in-memory storage and synthetic series; nothing is persisted")
	flag.BoolVar(&opts.report, "report", false, "print profile, achievements and recent sessions, then exit")
	flag.BoolVar(&opts.fast, "fast", false, "do not pace ticks")
	flag.BoolVar(&opts.table, "table", false, "print the full trade log at session end")
	flag.IntVar(&opts.backtest, "backtest", 0, "replay the script over N seeded synthetic series and print the distribution")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	applyFlags(cfg, opts)
	cfg.Session.Seed = seedFor(cfg)
	setupLogger(cfg.Log)

	slog.Info("tradequest starting",
		"config", *configPath,
		"dry_run", opts.dryRun,
		"symbol", cfg.Data.Symbol,
		"mission", opts.mission,
		"script", opts.script,
		"seed", cfg.Session.Seed,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.backtest > 0 {
		if err := runBacktest(ctx, cfg, opts, notify.NewConsole(false)); err != nil {
			slog.Error("backtest failed", "err", err)
			os.Exit(1)
		}
		return
	}

	store, err := openStorage(cfg, opts.dryRun)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	console := notify.NewConsole(opts.table)
	notifiers := []ports.Notifier{console}

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		rec := metrics.NewRecorder(reg)
		notifiers = append(notifiers, rec)
		srv := serveMetrics(cfg.Metrics.Addr, rec.Handler())
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	svc := game.New(game.Config{
		StartingBalance:    cfg.Session.StartingBalance,
		Leverage:           domain.Leverage(cfg.Session.DefaultLeverage),
		MinPlayableCandles: cfg.Session.MinPlayableCandles,
		Seed:               cfg.Session.Seed,
	}, store, store, notifiers...)

	if opts.listMissions {
		if err := listMissions(ctx, cfg, svc, console); err != nil {
			slog.Error("failed to list missions", "err", err)
			os.Exit(1)
		}
		return
	}

	if opts.report {
		if err := printReport(ctx, svc, console); err != nil {
			slog.Error("failed to build report", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := play(ctx, cfg, opts, svc); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("interrupted, session not finished")
			return
		}
		slog.Error("session failed", "err", err)
		os.Exit(1)
	}

	slog.Info("tradequest stopped cleanly")
}

// applyFlags aplica los flags que sobreescriben la configuración.
func applyFlags(cfg *config.Config, opts options) {
	if opts.candles != "" {
		cfg.Data.CandlesPath = opts.candles
	}
	if opts.symbol != "" {
		cfg.Data.Symbol = opts.symbol
	}
	if opts.missions != "" {
		cfg.Data.MissionsPath = opts.missions
	}
	if opts.dryRun {
		cfg.Storage.DSN = ":memory:"
		cfg.Data.CandlesPath = ""
	}
}

// openStorage abre SQLite, o un store en memoria en dry-run.
func openStorage(cfg *config.Config, dryRun bool) (ports.Storage, error) {
	if dryRun || cfg.Storage.DSN == ":memory:" {
		return storage.NewMemoryStorage(), nil
	}
	return storage.NewSQLiteStorage(cfg.Storage.DSN)
}

func serveMetrics(addr string, h http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics endpoint stopped", "err", err)
		}
	}()
	return srv
}

// seedFor devuelve la semilla configurada o una derivada del reloj.
func seedFor(cfg *config.Config) uint64 {
	if cfg.Session.Seed != 0 {
		return cfg.Session.Seed
	}
	return uint64(time.Now().UnixNano())
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
