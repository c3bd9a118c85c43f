// Package metrics expone el progreso del trainer como métricas Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/alejandrodnm/tradequest/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradequest"

// Recorder implementa ports.Notifier actualizando contadores y gauges.
type Recorder struct {
	reg prometheus.Gatherer

	TradesClosed     *prometheus.CounterVec
	Liquidations     prometheus.Counter
	TradePnLPercent  prometheus.Histogram
	XPEarned         prometheus.Counter
	Streak           prometheus.Gauge
	Achievements     *prometheus.CounterVec
	SessionsEnded    *prometheus.CounterVec
	FinalBalance     prometheus.Gauge
	Level            prometheus.Gauge
	MissionsAttempts *prometheus.CounterVec
}

// NewRecorder registra todas las métricas en reg.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,

		TradesClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "closed_total",
			Help:      "Closed trades by side and outcome",
		}, []string{"side", "outcome"}),
		Liquidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "liquidations_total",
			Help:      "Trades closed by forced liquidation",
		}),
		TradePnLPercent: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "pnl_percent",
			Help:      "Realized P&L per trade as percent of margin",
			Buckets:   []float64{-100, -50, -20, -10, -5, -1, 0, 1, 5, 10, 20, 50, 100},
		}),
		XPEarned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "xp_earned_total",
			Help:      "XP earned from trades",
		}),
		Streak: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "win_streak",
			Help:      "Current consecutive win streak",
		}),
		Achievements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "achievements_unlocked_total",
			Help:      "Achievements unlocked by rarity",
		}, []string{"rarity"}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "ended_total",
			Help:      "Finished sessions by grade",
		}, []string{"grade"}),
		FinalBalance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "final_balance",
			Help:      "Final balance of the last finished session",
		}),
		Level: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "level",
			Help:      "Profile level after the last session",
		}),
		MissionsAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "missions",
			Name:      "attempts_total",
			Help:      "Mission attempts by mission and result",
		}, []string{"mission", "result"}),
	}
}

// Handler devuelve el endpoint /metrics para este registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Recorder) TradeClosed(_ context.Context, t domain.CompletedTrade, xp, streak int) error {
	outcome := "breakeven"
	switch {
	case t.PnL > 0:
		outcome = "win"
	case t.PnL < 0:
		outcome = "loss"
	}
	r.TradesClosed.WithLabelValues(string(t.Side), outcome).Inc()
	if t.Liquidated {
		r.Liquidations.Inc()
	}
	r.TradePnLPercent.Observe(t.PnLPercent)
	r.XPEarned.Add(float64(xp))
	r.Streak.Set(float64(streak))
	return nil
}

func (r *Recorder) AchievementsUnlocked(_ context.Context, unlocks []domain.Unlock) error {
	for _, u := range unlocks {
		r.Achievements.WithLabelValues(string(u.Achievement.Rarity)).Inc()
	}
	return nil
}

func (r *Recorder) SessionEnded(_ context.Context, res domain.SessionResult, _ []domain.CompletedTrade) error {
	r.SessionsEnded.WithLabelValues(string(res.Grade)).Inc()
	r.FinalBalance.Set(res.FinalBalance)
	r.Level.Set(float64(res.NewLevel))
	return nil
}

func (r *Recorder) MissionEvaluated(_ context.Context, m domain.Mission, res domain.MissionResult) error {
	result := "failed"
	if res.AllConditionsMet {
		result = "complete"
	}
	r.MissionsAttempts.WithLabelValues(m.ID, result).Inc()
	return nil
}
