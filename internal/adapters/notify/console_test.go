package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/tradequest/internal/adapters/notify"
	"github.com/alejandrodnm/tradequest/internal/domain"
	"github.com/alejandrodnm/tradequest/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Notifier = (*notify.Console)(nil)

func winTrade() domain.CompletedTrade {
	return domain.CompletedTrade{
		ID: "t1", Side: domain.SideLong, EntryPrice: 100, ExitPrice: 110, Quantity: 100,
		Leverage: 2, PnL: 1000, PnLPercent: 10, EntryIndex: 3, ExitIndex: 7,
	}
}

func liqTrade() domain.CompletedTrade {
	return domain.CompletedTrade{
		ID: "t2", Side: domain.SideShort, EntryPrice: 100, ExitPrice: 150, Quantity: 200,
		Leverage: 2, PnL: -10000, PnLPercent: -100, EntryIndex: 8, ExitIndex: 12, Liquidated: true,
	}
}

func TestConsole_TradeClosed(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, c.TradeClosed(context.Background(), winTrade(), 200, 3))
	out := buf.String()
	assert.Contains(t, out, "LONG")
	assert.Contains(t, out, "2x")
	assert.Contains(t, out, "+$1000.00")
	assert.Contains(t, out, "+10.00%")
	assert.Contains(t, out, "+200 xp")
	assert.Contains(t, out, "streak 3")
	assert.NotContains(t, out, "LIQUIDATED")

	buf.Reset()
	require.NoError(t, c.TradeClosed(context.Background(), liqTrade(), 10, 0))
	out = buf.String()
	assert.Contains(t, out, "SHORT")
	assert.Contains(t, out, "-$10000.00")
	assert.Contains(t, out, "LIQUIDATED")
	assert.NotContains(t, out, "streak")
}

func TestConsole_AchievementsUnlocked(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	first, ok := domain.AchievementByID("first_trade")
	require.True(t, ok)
	rekt, ok := domain.AchievementByID("rekt")
	require.True(t, ok)

	require.NoError(t, c.AchievementsUnlocked(context.Background(), []domain.Unlock{
		{Achievement: first, XPReward: first.XPReward},
		{Achievement: rekt, XPReward: rekt.XPReward},
	}))
	out := buf.String()
	assert.Contains(t, out, "First Steps")
	assert.Contains(t, out, "Rekt")
	assert.Contains(t, out, "secret")
}

func TestConsole_SessionEnded(t *testing.T) {
	r := domain.SessionResult{
		SessionID: "abcdef1234567890", Symbol: "BTCUSD",
		TradeCount: 2, WinCount: 1, LossCount: 1, WinRate: 50,
		TotalPnL: -9000, PnLPercent: -90, StartingBalance: 10000, FinalBalance: 1000,
		MaxStreak: 1, MaxDrawdown: 91.5, Grade: domain.GradeF,
		XPEarned: 160, TotalXP: 460, NewLevel: 3, LeveledUp: true, Liquidated: true,
		CandlesPlayed: 13,
	}
	trades := []domain.CompletedTrade{winTrade(), liqTrade()}

	t.Run("compact", func(t *testing.T) {
		var buf bytes.Buffer
		c := notify.NewConsoleWriter(&buf, false)
		require.NoError(t, c.SessionEnded(context.Background(), r, trades))
		out := buf.String()
		assert.Contains(t, out, "abcdef12")
		assert.NotContains(t, out, "abcdef1234")
		assert.Contains(t, out, "BTCUSD")
		assert.Contains(t, out, "grade F")
		assert.Contains(t, out, "$10000.00 → $1000.00")
		assert.Contains(t, out, "-$9000.00 (-90.00%)")
		assert.Contains(t, out, "91.50%")
		assert.Contains(t, out, "+160 (total 460)")
		assert.Contains(t, out, "level up!")
		assert.Contains(t, out, "account liquidated")
		assert.NotContains(t, out, "LIQ ")
		assert.NotContains(t, out, "150.0000")
	})

	t.Run("verbose prints trade log", func(t *testing.T) {
		var buf bytes.Buffer
		c := notify.NewConsoleWriter(&buf, true)
		require.NoError(t, c.SessionEnded(context.Background(), r, trades))
		out := buf.String()
		assert.Contains(t, out, "110.0000")
		assert.Contains(t, out, "150.0000")
		assert.Contains(t, out, "LIQ")
	})
}

func TestConsole_MissionEvaluated(t *testing.T) {
	m := domain.Mission{ID: "m1", Title: "First Blood"}
	res := domain.MissionResult{
		MissionID: "m1",
		Conditions: []domain.ConditionResult{
			{Condition: domain.MissionWinCondition{Type: domain.ConditionProfitTarget, Value: 500}, Actual: 1000, Target: 500, Passed: true},
		},
		AllConditionsMet: true,
		Grade:            domain.GradeA,
		Score:            87,
		Rewards: []domain.MissionReward{
			{Type: domain.RewardXP, Value: 250},
			{Type: domain.RewardBadge, ID: "first_blood"},
			{Type: domain.RewardCash, Value: 500},
		},
	}

	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)
	require.NoError(t, c.MissionEvaluated(context.Background(), m, res))
	out := buf.String()
	assert.Contains(t, out, "First Blood")
	assert.Contains(t, out, "COMPLETE")
	assert.Contains(t, out, "score 87")
	assert.Contains(t, out, string(domain.ConditionProfitTarget))
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "+250 xp")
	assert.Contains(t, out, "badge first_blood")
	assert.Contains(t, out, "$500.00 cash")

	buf.Reset()
	res.AllConditionsMet = false
	res.Conditions[0].Passed = false
	res.Rewards = []domain.MissionReward{}
	require.NoError(t, c.MissionEvaluated(context.Background(), m, res))
	out = buf.String()
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "✗")
	assert.NotContains(t, out, "reward:")
}

func TestConsole_PrintProfile(t *testing.T) {
	p := domain.NewProfile()
	p.XP = 460
	p.Level = 3
	p.TotalTrades = 4
	p.TotalWins = 3
	p.TotalSessions = 2
	p.TotalProfit = 1500
	p.Unlocked["first_trade"] = time.Now()
	p.Unlocked["badge:first_blood"] = time.Now()

	recent := []domain.SessionResult{{
		Symbol: "ETHUSD", TradeCount: 4, WinRate: 75, TotalPnL: 1500, PnLPercent: 15,
		Grade: domain.GradeA, XPEarned: 460, EndedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)
	c.PrintProfile(p, recent)
	out := buf.String()

	assert.Contains(t, out, domain.LevelTitle(3))
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "+$1500.00")
	assert.Contains(t, out, "First Steps")
	// los logros ocultos bloqueados no revelan su nombre
	assert.NotContains(t, out, "Catching Knives")
	assert.Contains(t, out, "???")
	assert.Contains(t, out, "badges: first_blood")
	assert.Contains(t, out, "ETHUSD")
	assert.Contains(t, out, "2024-05-01")
}

func TestConsole_PrintMissions(t *testing.T) {
	p := domain.NewProfile()
	p.CompletedMissions["m1"] = time.Now()

	ms := []domain.Mission{
		{ID: "m1", Title: "First Profit", Symbol: "BTCUSD", StartingBalance: 5000,
			Conditions: []domain.MissionWinCondition{{Type: domain.ConditionProfitTarget, Value: 250}},
			Rewards:    []domain.MissionReward{{Type: domain.RewardXP, Value: 250}, {Type: domain.RewardBadge, ID: "green"}}},
		{ID: "m2", Title: "Steady",
			Conditions: []domain.MissionWinCondition{{Type: domain.ConditionMaxDrawdown, Value: 5}}},
	}

	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, false).PrintMissions(ms, p)
	out := buf.String()
	assert.Contains(t, out, "1/2 complete")
	assert.Contains(t, out, "profit_target>=250")
	assert.Contains(t, out, "max_drawdown<=5")
	assert.Contains(t, out, "$5000.00")
	assert.Contains(t, out, "badge green")
}

func TestConsole_PrintBacktest(t *testing.T) {
	results := []domain.SessionResult{
		{TradeCount: 3, WinRate: 66.7, TotalPnL: 500, PnLPercent: 5, Grade: domain.GradeA},
		{TradeCount: 2, WinRate: 0, TotalPnL: -1000, PnLPercent: -10, Grade: domain.GradeF, Liquidated: true},
	}

	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, false).PrintBacktest(results, 1)
	out := buf.String()
	assert.Contains(t, out, "2 runs, 1 failed")
	assert.Contains(t, out, "avg -2.50%")
	assert.Contains(t, out, "best +5.00%")
	assert.Contains(t, out, "worst -10.00%")
	assert.Contains(t, out, "profitable 1/2")
	assert.Contains(t, out, "liquidated 1")
	assert.Contains(t, out, "S:0 A:1 B:0 C:0 D:0 F:1")

	buf.Reset()
	notify.NewConsoleWriter(&buf, false).PrintBacktest(nil, 0)
	assert.Contains(t, buf.String(), "0 runs")
}
