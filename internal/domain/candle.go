package domain

import (
	"errors"
	"fmt"
	"math"
)

// Errores de contrato: indican un bug del caller, no una condición recuperable.
var (
	ErrEmptySeries         = errors.New("price series is empty")
	ErrInvalidCandle       = errors.New("candle has invalid OHLC values")
	ErrNonIncreasingTime   = errors.New("candle times are not strictly increasing")
	ErrInvalidPrice        = errors.New("price must be positive")
	ErrUnsupportedLeverage = errors.New("unsupported leverage")
	ErrInvalidBalance      = errors.New("balance must be positive")
	ErrInvalidSpeed        = errors.New("speed multiplier must be positive")
	ErrInvalidStartIndex   = errors.New("start index out of range")
	ErrUnknownCondition    = errors.New("unknown mission condition type")
)

// Candle es una vela OHLC inmutable. Time en segundos unix.
type Candle struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume *int64 // opcional
}

// PriceSeries es la secuencia ordenada de velas que alimenta una sesión.
type PriceSeries struct {
	Symbol  string
	Candles []Candle
}

// Len devuelve el número de velas.
func (ps PriceSeries) Len() int {
	return len(ps.Candles)
}

// At devuelve la vela en el índice i. El caller garantiza 0 <= i < Len().
func (ps PriceSeries) At(i int) Candle {
	return ps.Candles[i]
}

// Validate comprueba el contrato de entrada: serie no vacía, tiempos
// estrictamente crecientes y OHLC finitos y no negativos.
func (ps PriceSeries) Validate() error {
	if len(ps.Candles) == 0 {
		return ErrEmptySeries
	}
	for i, c := range ps.Candles {
		if !validOHLC(c) {
			return fmt.Errorf("candle %d (t=%d): %w", i, c.Time, ErrInvalidCandle)
		}
		if c.Volume != nil && *c.Volume < 0 {
			return fmt.Errorf("candle %d (t=%d): negative volume: %w", i, c.Time, ErrInvalidCandle)
		}
		if i > 0 && c.Time <= ps.Candles[i-1].Time {
			return fmt.Errorf("candle %d (t=%d): %w", i, c.Time, ErrNonIncreasingTime)
		}
	}
	return nil
}

func validOHLC(c Candle) bool {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}
