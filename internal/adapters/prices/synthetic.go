package prices

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/alejandrodnm/tradequest/internal/domain"
)

// SyntheticConfig parametriza el random walk.
type SyntheticConfig struct {
	Seed       uint64
	Candles    int
	StartPrice float64 // 0 → 100
	Volatility float64 // desviación por vela del log-retorno; 0 → 0.01
	Interval   int64   // segundos entre velas; 0 → 60
	StartTime  int64   // unix del primer candle; 0 → 1_700_000_000
}

// SyntheticProvider genera una serie geométrica aleatoria determinista:
// la misma semilla produce siempre la misma serie.
type SyntheticProvider struct {
	cfg SyntheticConfig
}

// NewSyntheticProvider aplica defaults y devuelve el provider.
func NewSyntheticProvider(cfg SyntheticConfig) *SyntheticProvider {
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = 100
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.01
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 60
	}
	if cfg.StartTime == 0 {
		cfg.StartTime = 1_700_000_000
	}
	return &SyntheticProvider{cfg: cfg}
}

// FetchSeries genera cfg.Candles velas para symbol.
func (p *SyntheticProvider) FetchSeries(_ context.Context, symbol string) (domain.PriceSeries, error) {
	if p.cfg.Candles <= 0 {
		return domain.PriceSeries{}, fmt.Errorf("prices.Synthetic: %d candles: %w", p.cfg.Candles, domain.ErrEmptySeries)
	}

	r := rand.New(rand.NewPCG(p.cfg.Seed, p.cfg.Seed+1))
	ps := domain.PriceSeries{Symbol: symbol, Candles: make([]domain.Candle, 0, p.cfg.Candles)}
	price := p.cfg.StartPrice
	for i := 0; i < p.cfg.Candles; i++ {
		open := price
		closeP := open * math.Exp(r.NormFloat64()*p.cfg.Volatility)
		wick := math.Abs(r.NormFloat64()) * p.cfg.Volatility / 2
		high := math.Max(open, closeP) * (1 + wick)
		low := math.Min(open, closeP) * (1 - wick)
		vol := int64(1000 + r.IntN(9000))

		ps.Candles = append(ps.Candles, domain.Candle{
			Time:   p.cfg.StartTime + int64(i)*p.cfg.Interval,
			Open:   round(open),
			High:   round(high),
			Low:    round(max(low, 0)),
			Close:  round(closeP),
			Volume: &vol,
		})
		price = closeP
	}
	if err := ps.Validate(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("prices.Synthetic: %w", err)
	}
	return ps, nil
}

// round a 4 decimales, como cotizaría un exchange.
func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
