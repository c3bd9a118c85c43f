package main

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/tradequest/config"
	"github.com/alejandrodnm/tradequest/internal/adapters/missions"
	"github.com/alejandrodnm/tradequest/internal/adapters/notify"
	"github.com/alejandrodnm/tradequest/internal/adapters/prices"
	"github.com/alejandrodnm/tradequest/internal/application/game"
	"github.com/alejandrodnm/tradequest/internal/application/replay"
	"github.com/alejandrodnm/tradequest/internal/application/session"
	"github.com/alejandrodnm/tradequest/internal/domain"
	"github.com/alejandrodnm/tradequest/internal/ports"
)

const recentSessions = 10

// play carga datos, misión y script, y conduce una partida completa.
func play(ctx context.Context, cfg *config.Config, opts options, svc *game.Service) error {
	var mission *domain.Mission
	if opts.mission != "" {
		cat, err := missions.Load(cfg.Data.MissionsPath)
		if err != nil {
			return err
		}
		m, err := cat.Mission(ctx, opts.mission)
		if err != nil {
			return err
		}
		if m.Symbol != "" {
			cfg.Data.Symbol = m.Symbol
		}
		mission = &m
	}

	series, err := priceProvider(cfg).FetchSeries(ctx, cfg.Data.Symbol)
	if err != nil {
		return err
	}

	script, err := loadScript(cfg, opts.script)
	if err != nil {
		return err
	}

	p, err := svc.NewPlay(ctx, series, mission)
	if err != nil {
		return err
	}

	interval := cfg.BaseInterval()
	if opts.fast {
		interval = 0
	}
	d := replay.New(replay.Config{BaseInterval: interval}, script)
	rep, err := d.Run(ctx, p, p.StartAction())
	if err != nil {
		return err
	}

	slog.Info("session finished",
		"session", p.State().SessionID,
		"reason", rep.EndReason,
		"beats", rep.Beats,
		"ticks", rep.Ticks,
		"steps", rep.StepsApplied,
		"unlocked", len(p.Unlocked),
	)
	return nil
}

// priceProvider elige el fichero de velas o, sin fichero, la serie sintética.
func priceProvider(cfg *config.Config) ports.PriceProvider {
	if cfg.Data.CandlesPath != "" {
		return prices.NewFileProvider(cfg.Data.CandlesPath)
	}
	return prices.NewSyntheticProvider(prices.SyntheticConfig{
		Seed:    cfg.Session.Seed,
		Candles: cfg.Data.SyntheticCandles,
	})
}

// loadScript carga el script (vacío si no hay) y antepone la velocidad
// configurada cuando no es la de por defecto.
func loadScript(cfg *config.Config, path string) (replay.Script, error) {
	var script replay.Script
	if path != "" {
		var err error
		if script, err = replay.LoadScript(path); err != nil {
			return replay.Script{}, err
		}
	}
	if cfg.Replay.Speed != session.DefaultSpeed {
		speed := replay.Step{At: 0, Action: replay.StepSpeed, Value: cfg.Replay.Speed}
		script.Steps = append([]replay.Step{speed}, script.Steps...)
	}
	return script, nil
}

func listMissions(ctx context.Context, cfg *config.Config, svc *game.Service, console *notify.Console) error {
	cat, err := missions.Load(cfg.Data.MissionsPath)
	if err != nil {
		return err
	}
	all, err := cat.Missions(ctx)
	if err != nil {
		return err
	}
	profile, err := svc.Profile(ctx)
	if err != nil {
		return err
	}
	console.PrintMissions(all, profile)
	return nil
}

func printReport(ctx context.Context, svc *game.Service, console *notify.Console) error {
	profile, err := svc.Profile(ctx)
	if err != nil {
		return err
	}
	recent, err := svc.RecentSessions(ctx, recentSessions)
	if err != nil {
		return err
	}
	console.PrintProfile(profile, recent)
	return nil
}
