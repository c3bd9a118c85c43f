package replay_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/tradequest/internal/application/replay"
	"github.com/alejandrodnm/tradequest/internal/application/session"
	"github.com/alejandrodnm/tradequest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func series(closes ...float64) domain.PriceSeries {
	ps := domain.PriceSeries{Symbol: "ETHUSD"}
	for i, c := range closes {
		ps.Candles = append(ps.Candles, domain.Candle{Time: int64(i + 1), Open: c, High: c, Low: c, Close: c})
	}
	return ps
}

func newTarget(t *testing.T, closes ...float64) replay.SessionTarget {
	t.Helper()
	s, err := session.New(series(closes...), session.Config{StartingBalance: 1000})
	require.NoError(t, err)
	return replay.SessionTarget{Session: s}
}

func startAt0() session.Start {
	i := 0
	return session.Start{StartIndex: &i}
}

const sampleScript = `
- {at: 0, action: open_long}
- {at: 2, action: close}
- {at: 2, action: leverage, value: 2}
- {at: 3, action: open_short}
- {at: 4, action: sell_half}
`

func TestParseScript(t *testing.T) {
	sc, err := replay.ParseScript([]byte(`
- {at: 5, action: end}
- {at: 1, action: open_long}
- {at: 1, action: speed, value: 2}
`))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 3)
	// ordenado por at, estable dentro del mismo beat
	assert.Equal(t, replay.StepOpenLong, sc.Steps[0].Action)
	assert.Equal(t, replay.StepSpeed, sc.Steps[1].Action)
	assert.Equal(t, replay.StepEnd, sc.Steps[2].Action)

	a, err := sc.Steps[1].ToAction()
	require.NoError(t, err)
	assert.Equal(t, session.SetSpeed{Speed: 2}, a)
}

func TestParseScript_Invalid(t *testing.T) {
	_, err := replay.ParseScript([]byte(`- {at: 0, action: moon}`))
	assert.ErrorIs(t, err, replay.ErrInvalidStep)

	_, err = replay.ParseScript([]byte(`- {at: -1, action: close}`))
	assert.ErrorIs(t, err, replay.ErrInvalidStep)

	_, err = replay.ParseScript([]byte(`- {at: 0, action: leverage, value: 2.5}`))
	assert.ErrorIs(t, err, replay.ErrInvalidStep)

	_, err = replay.ParseScript([]byte(`{not: a list}`))
	assert.Error(t, err)
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScript), 0o600))

	sc, err := replay.LoadScript(path)
	require.NoError(t, err)
	assert.Len(t, sc.Steps, 5)

	_, err = replay.LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDriver_RunsScriptToSeriesEnd(t *testing.T) {
	sc, err := replay.ParseScript([]byte(sampleScript))
	require.NoError(t, err)
	target := newTarget(t, 100, 105, 110, 100, 90, 95, 95)

	rep, err := replay.New(replay.Config{}, sc).Run(context.Background(), target, startAt0())
	require.NoError(t, err)

	st := target.State()
	assert.Equal(t, session.StatusEnded, st.Status)
	assert.Equal(t, session.EndSeriesExhausted, rep.EndReason)
	assert.Equal(t, 5, rep.StepsApplied)
	assert.Equal(t, 7, rep.Ticks)

	// long 100→110, short 2x 100→90 mitad, resto cerrado al final en 95
	require.Len(t, st.Trades, 3)
	assert.InDelta(t, 100, st.Trades[0].PnL, 1e-9)
	assert.Equal(t, domain.Leverage(2), st.Trades[1].Leverage)
	assert.InDelta(t, 110, st.Trades[1].PnL, 1e-9)
	assert.InDelta(t, 55, st.Trades[2].PnL, 1e-9)
	assert.InDelta(t, 1265, st.Balance, 1e-9)
}

func TestDriver_PausedWithoutStepsEndsSession(t *testing.T) {
	sc, err := replay.ParseScript([]byte(`
- {at: 1, action: open_long}
- {at: 2, action: pause}
`))
	require.NoError(t, err)
	target := newTarget(t, 100, 100, 120, 130, 140)

	rep, err := replay.New(replay.Config{}, sc).Run(context.Background(), target, startAt0())
	require.NoError(t, err)
	assert.Equal(t, session.EndPlayer, rep.EndReason)
	assert.Equal(t, 2, rep.Ticks)

	st := target.State()
	assert.Equal(t, session.StatusEnded, st.Status)
	require.Len(t, st.Trades, 1)
	assert.Equal(t, 120.0, st.Trades[0].ExitPrice)
}

func TestDriver_PauseThenResumeSkipsIdleBeats(t *testing.T) {
	sc, err := replay.ParseScript([]byte(`
- {at: 1, action: pause}
- {at: 1000, action: resume}
- {at: 1001, action: end}
`))
	require.NoError(t, err)
	target := newTarget(t, 1, 2, 3, 4, 5, 6)

	rep, err := replay.New(replay.Config{}, sc).Run(context.Background(), target, startAt0())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Ticks)
	assert.Equal(t, 1001, rep.Beats)
	assert.Equal(t, 2, target.State().CandleIndex)
	assert.Equal(t, session.EndPlayer, rep.EndReason)
}

func TestDriver_SpeedUpdatesLimiter(t *testing.T) {
	sc, err := replay.ParseScript([]byte(`- {at: 0, action: speed, value: 4}`))
	require.NoError(t, err)
	d := replay.New(replay.Config{BaseInterval: time.Millisecond}, sc)
	assert.InDelta(t, 1000, float64(d.Limit()), 1e-6)

	_, err = d.Run(context.Background(), newTarget(t, 1, 2, 3), startAt0())
	require.NoError(t, err)
	assert.InDelta(t, 4000, float64(d.Limit()), 1e-6)

	assert.Equal(t, rate.Inf, replay.New(replay.Config{}, sc).Limit())
}

func TestDriver_StepErrorStops(t *testing.T) {
	sc := replay.Script{Steps: []replay.Step{{At: 0, Action: replay.StepSpeed, Value: -1}}}
	_, err := replay.New(replay.Config{}, sc).Run(context.Background(), newTarget(t, 1, 2), startAt0())
	assert.ErrorIs(t, err, domain.ErrInvalidSpeed)
}

func TestDriver_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := replay.New(replay.Config{}, replay.Script{}).Run(ctx, newTarget(t, 1, 2, 3), startAt0())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBatch(t *testing.T) {
	sc, err := replay.ParseScript([]byte(`- {at: 0, action: open_long}`))
	require.NoError(t, err)

	all := []domain.PriceSeries{
		series(100, 110),
		series(100, 90),
		{Symbol: "EMPTY"},
		series(100, 105, 120),
	}
	results := replay.RunBatch(context.Background(), sc, all, session.Config{StartingBalance: 1000}, 0, 2)
	require.Len(t, results, 4)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	require.NoError(t, results[0].Err)
	assert.InDelta(t, 100, results[0].Result.TotalPnL, 1e-9)
	assert.Equal(t, session.EndSeriesExhausted, results[0].Report.EndReason)

	require.NoError(t, results[1].Err)
	assert.InDelta(t, -100, results[1].Result.TotalPnL, 1e-9)

	assert.ErrorIs(t, results[2].Err, domain.ErrEmptySeries)

	require.NoError(t, results[3].Err)
	assert.InDelta(t, 200, results[3].Result.TotalPnL, 1e-9)
	assert.Equal(t, 1, results[3].Result.TradeCount)
}

func TestRunBatch_Deterministic(t *testing.T) {
	sc, err := replay.ParseScript([]byte(sampleScript))
	require.NoError(t, err)
	all := []domain.PriceSeries{series(100, 105, 110, 100, 90, 95, 95), series(50, 52, 48, 47, 55, 60)}

	a := replay.RunBatch(context.Background(), sc, all, session.Config{StartingBalance: 1000}, 0, 1)
	b := replay.RunBatch(context.Background(), sc, all, session.Config{StartingBalance: 1000}, 0, 4)
	for i := range all {
		require.NoError(t, a[i].Err)
		assert.Equal(t, a[i].Result.TotalPnL, b[i].Result.TotalPnL)
		assert.Equal(t, a[i].Result.Grade, b[i].Result.Grade)
	}
	assert.InDelta(t, 265, a[0].Result.TotalPnL, 1e-9)
}
