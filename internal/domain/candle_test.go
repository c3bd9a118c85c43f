package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func series(closes ...float64) PriceSeries {
	ps := PriceSeries{Symbol: "TEST"}
	for i, c := range closes {
		ps.Candles = append(ps.Candles, Candle{Time: int64(1000 + i*60), Open: c, High: c, Low: c, Close: c})
	}
	return ps
}

func TestPriceSeries_Validate(t *testing.T) {
	assert.NoError(t, series(1, 2, 3).Validate())
	assert.ErrorIs(t, PriceSeries{}.Validate(), ErrEmptySeries)

	bad := series(1, 2, 3)
	bad.Candles[1].High = math.NaN()
	assert.ErrorIs(t, bad.Validate(), ErrInvalidCandle)

	neg := series(1, 2, 3)
	neg.Candles[2].Low = -1
	assert.ErrorIs(t, neg.Validate(), ErrInvalidCandle)

	dup := series(1, 2, 3)
	dup.Candles[2].Time = dup.Candles[1].Time
	assert.ErrorIs(t, dup.Validate(), ErrNonIncreasingTime)

	vol := int64(-3)
	badVol := series(1, 2)
	badVol.Candles[0].Volume = &vol
	assert.ErrorIs(t, badVol.Validate(), ErrInvalidCandle)
}
