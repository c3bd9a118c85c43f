package game

import (
	"time"

	"github.com/alejandrodnm/tradequest/internal/application/session"
	"github.com/alejandrodnm/tradequest/internal/domain"
)

// nightOwlUntil: un trade cerrado entre medianoche y esta hora cuenta como nocturno.
const nightOwlUntil = 5

func isNight(t time.Time) bool {
	return t.Hour() < nightOwlUntil
}

// buildStats aplana perfil + estado de sesión en el snapshot de logros.
func buildStats(p domain.Profile, st session.State, ended, career, nightTrade bool) domain.AchievementStats {
	total := len(st.Trades)
	pnl := st.Balance - st.StartingBalance
	pnlPct := 0.0
	if st.StartingBalance > 0 {
		pnlPct = pnl / st.StartingBalance * 100
	}

	stats := domain.AchievementStats{
		TotalTrades:       p.TotalTrades,
		TotalWins:         p.TotalWins,
		TotalSessions:     p.TotalSessions,
		TotalProfit:       p.TotalProfit,
		AllTimeMaxStreak:  p.AllTimeMaxStreak,
		Level:             p.Level,
		MissionsCompleted: len(p.CompletedMissions),
		Liquidations:      p.Liquidations,

		SessionTrades:      total,
		SessionWins:        st.WinCount,
		SessionPnL:         pnl,
		SessionPnLPercent:  pnlPct,
		SessionWinRate:     domain.WinRatePercent(st.WinCount, total),
		SessionMaxStreak:   st.MaxStreak,
		SessionMaxDrawdown: st.MaxDrawdown,
		SessionEnded:       ended,
		SessionLiquidated:  st.Liquidated,
		MaxLeverageUsed:    int(st.MaxLeverageUsed),

		CareerMode: career,
		NightOwl:   nightTrade,
	}

	if st.Position != nil {
		stats.LongestHoldCandles = st.CandleIndex - st.Position.EntryIndex
	}
	for i, t := range st.Trades {
		d := t.DurationCandles()
		stats.LongestHoldCandles = max(stats.LongestHoldCandles, d)
		if i == 0 {
			stats.BestTradePnL = t.PnL
			stats.BestTradePercent = t.PnLPercent
			stats.WorstTradePercent = t.PnLPercent
		} else {
			stats.BestTradePnL = max(stats.BestTradePnL, t.PnL)
			stats.BestTradePercent = max(stats.BestTradePercent, t.PnLPercent)
			stats.WorstTradePercent = min(stats.WorstTradePercent, t.PnLPercent)
		}
		if !t.IsWin() {
			continue
		}
		if stats.FastestWinCandles == 0 || d < stats.FastestWinCandles {
			// 0 significa "sin victorias": un cierre en la misma vela cuenta como 1
			stats.FastestWinCandles = max(d, 1)
		}
		if t.Side == domain.SideLong {
			stats.LongWins++
		} else {
			stats.ShortWins++
		}
	}
	return stats
}

// snapshot construye el estado final que evalúa una misión. La referencia
// buy-and-hold son los closes de la vela de inicio y de la última jugada.
func snapshot(st session.State, series domain.PriceSeries) domain.MissionSnapshot {
	last := series.Len() - 1
	start, end := min(max(st.StartIndex, 0), last), min(max(st.CandleIndex, 0), last)
	return domain.MissionSnapshot{
		TotalPnL:        st.Balance - st.StartingBalance,
		StartingBalance: st.StartingBalance,
		Balance:         st.Balance,
		WinCount:        st.WinCount,
		LossCount:       st.LossCount,
		MaxStreak:       st.MaxStreak,
		MaxDrawdown:     st.MaxDrawdown,
		BaselineStart:   series.At(start).Close,
		BaselineEnd:     series.At(end).Close,
	}
}
