package main

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/tradequest/config"
	"github.com/alejandrodnm/tradequest/internal/adapters/notify"
	"github.com/alejandrodnm/tradequest/internal/adapters/prices"
	"github.com/alejandrodnm/tradequest/internal/application/replay"
	"github.com/alejandrodnm/tradequest/internal/application/session"
	"github.com/alejandrodnm/tradequest/internal/domain"
)

// runBacktest reproduce el script sobre opts.backtest series sintéticas con
// semillas consecutivas. No toca el perfil ni el histórico.
func runBacktest(ctx context.Context, cfg *config.Config, opts options, console *notify.Console) error {
	slog.Info("=== BACKTEST MODE: script over synthetic series ===", "runs", opts.backtest, "seed", cfg.Session.Seed)

	script, err := loadScript(cfg, opts.script)
	if err != nil {
		return err
	}

	all := make([]domain.PriceSeries, 0, opts.backtest)
	for i := range opts.backtest {
		ps, err := prices.NewSyntheticProvider(prices.SyntheticConfig{
			Seed:    cfg.Session.Seed + uint64(i),
			Candles: cfg.Data.SyntheticCandles,
		}).FetchSeries(ctx, cfg.Data.Symbol)
		if err != nil {
			return err
		}
		all = append(all, ps)
	}

	results := replay.RunBatch(ctx, script, all, session.Config{
		StartingBalance: cfg.Session.StartingBalance,
		Leverage:        domain.Leverage(cfg.Session.DefaultLeverage),
	}, 0, 0)

	done := make([]domain.SessionResult, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			slog.Warn("backtest run failed", "run", r.Index, "err", r.Err)
			continue
		}
		done = append(done, r.Result)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	console.PrintBacktest(done, failed)
	slog.Info("backtest complete", "runs", len(done), "failed", failed)
	return nil
}
