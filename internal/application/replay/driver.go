// Package replay ejecuta una sesión de forma determinista a partir de un
// script de acciones, marcando el ritmo de los ticks con un rate limiter.
//
// El driver avanza en beats. En cada beat aplica los pasos del script con ese
// At y, si la sesión está en playing, espera al limiter y emite un Tick. En
// pausa los beats avanzan sin ticks hasta el siguiente paso. Cuando no quedan
// pasos y la sesión ya no está jugando, el driver la termina.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/tradequest/internal/application/session"
	"golang.org/x/time/rate"
)

// Target es lo que el driver controla: una sesión o una partida del servicio.
type Target interface {
	Dispatch(ctx context.Context, a session.Action) ([]session.Event, error)
	State() session.State
}

// Config contiene la configuración del driver.
type Config struct {
	// BaseInterval es la duración de un tick a velocidad 1x. 0 = sin espera.
	BaseInterval time.Duration
}

// Report resume una ejecución.
type Report struct {
	Beats        int
	Ticks        int
	StepsApplied int
	EndReason    session.EndReason
}

// Driver no es seguro para uso concurrente.
type Driver struct {
	cfg     Config
	script  Script
	limiter *rate.Limiter
}

// New crea un Driver para script a velocidad 1x.
func New(cfg Config, script Script) *Driver {
	d := &Driver{cfg: cfg, script: script}
	d.limiter = rate.NewLimiter(d.limitFor(session.DefaultSpeed), 1)
	return d
}

// Limit devuelve el ritmo actual de ticks.
func (d *Driver) Limit() rate.Limit {
	return d.limiter.Limit()
}

func (d *Driver) limitFor(speed float64) rate.Limit {
	if d.cfg.BaseInterval <= 0 || speed <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Duration(float64(d.cfg.BaseInterval) / speed))
}

// Run arranca la sesión con start y la conduce hasta ended o hasta que ctx se
// cancele.
func (d *Driver) Run(ctx context.Context, t Target, start session.Start) (Report, error) {
	var rep Report

	if err := d.dispatch(ctx, t, start, &rep); err != nil {
		return rep, fmt.Errorf("replay.Run: start: %w", err)
	}
	d.limiter.SetLimit(d.limitFor(t.State().SpeedMultiplier))

	next := 0
	steps := d.script.Steps
	for beat := 0; ; beat++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Beats = beat

		for next < len(steps) && steps[next].At <= beat {
			step := steps[next]
			next++
			a, err := step.ToAction()
			if err != nil {
				return rep, fmt.Errorf("replay.Run: %w", err)
			}
			if err := d.dispatch(ctx, t, a, &rep); err != nil {
				return rep, fmt.Errorf("replay.Run: step %s at %d: %w", step.Action, step.At, err)
			}
			rep.StepsApplied++
		}

		switch t.State().Status {
		case session.StatusEnded:
			return rep, nil
		case session.StatusPlaying:
			if err := d.limiter.Wait(ctx); err != nil {
				return rep, fmt.Errorf("replay.Run: pacing: %w", err)
			}
			if err := d.dispatch(ctx, t, session.Tick{}, &rep); err != nil {
				return rep, fmt.Errorf("replay.Run: tick: %w", err)
			}
			rep.Ticks++
		default:
			if next >= len(steps) {
				slog.Debug("script exhausted while not playing, ending session", "beat", beat)
				if err := d.dispatch(ctx, t, session.EndGame{}, &rep); err != nil {
					return rep, fmt.Errorf("replay.Run: end: %w", err)
				}
				return rep, nil
			}
			// en pausa no hay nada que esperar: saltar al siguiente paso
			beat = max(beat, steps[next].At-1)
		}
	}
}

func (d *Driver) dispatch(ctx context.Context, t Target, a session.Action, rep *Report) error {
	events, err := t.Dispatch(ctx, a)
	for _, ev := range events {
		switch ev := ev.(type) {
		case session.SpeedChanged:
			d.limiter.SetLimit(d.limitFor(ev.Speed))
			slog.Debug("replay speed changed", "speed", ev.Speed, "limit", d.limiter.Limit())
		case session.Ended:
			rep.EndReason = ev.Reason
		}
	}
	return err
}
