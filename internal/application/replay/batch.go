package replay

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/tradequest/internal/application/session"
	"github.com/alejandrodnm/tradequest/internal/domain"
)

// SessionTarget adapta una sesión suelta a Target, sin servicio ni perfil.
type SessionTarget struct {
	Session *session.Session
}

// Dispatch aplica a directamente a la sesión.
func (t SessionTarget) Dispatch(_ context.Context, a session.Action) ([]session.Event, error) {
	return t.Session.Apply(a)
}

// State devuelve una copia del estado de la sesión.
func (t SessionTarget) State() session.State {
	return t.Session.State()
}

// BatchResult es el resultado de un script sobre una de las series del lote.
type BatchResult struct {
	Index  int
	Result domain.SessionResult
	Report Report
	Err    error
}

// RunBatch ejecuta script sobre cada serie en una sesión propia, en paralelo y
// sin pausas entre ticks. Todas las sesiones arrancan en la vela startIndex.
// Los resultados vuelven en el orden de series; el fallo de una serie queda en
// su Err y no detiene al resto.
//
// Si workers <= 0 usa runtime.NumCPU().
func RunBatch(ctx context.Context, script Script, series []domain.PriceSeries, cfg session.Config, startIndex, workers int) []BatchResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	// cada sesión del lote arranca en un índice fijo: el generador no se comparte
	cfg.Rand = nil

	results := make([]BatchResult, len(series))
	workCh := make(chan int, len(series))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				results[i] = runOne(ctx, script, series[i], cfg, startIndex)
				results[i].Index = i
				if err := results[i].Err; err != nil {
					slog.Debug("batch run failed", "index", i, "symbol", series[i].Symbol, "err", err)
				}
			}
		}()
	}

	for i := range series {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	slog.Debug("batch replay complete", "series", len(series), "workers", workers)
	return results
}

func runOne(ctx context.Context, script Script, ps domain.PriceSeries, cfg session.Config, startIndex int) BatchResult {
	s, err := session.New(ps, cfg)
	if err != nil {
		return BatchResult{Err: fmt.Errorf("replay.RunBatch: %w", err)}
	}
	idx := startIndex
	rep, err := New(Config{}, script).Run(ctx, SessionTarget{Session: s}, session.Start{StartIndex: &idx})
	if err != nil {
		return BatchResult{Report: rep, Err: err}
	}
	res, ok := s.Result()
	if !ok {
		return BatchResult{Report: rep, Err: fmt.Errorf("replay.RunBatch: session %s did not end", s.State().SessionID)}
	}
	return BatchResult{Result: res, Report: rep}
}
