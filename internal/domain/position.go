package domain

import "fmt"

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// Valid reports whether s is long or short.
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// Leverage is the notional multiplier applied to the balance.
type Leverage int

// AllowedLeverages is the closed set of leverage values a session accepts.
var AllowedLeverages = []Leverage{1, 2, 4, 10}

// Valid reports whether l is one of AllowedLeverages.
func (l Leverage) Valid() bool {
	for _, a := range AllowedLeverages {
		if l == a {
			return true
		}
	}
	return false
}

// ValidateLeverage returns ErrUnsupportedLeverage wrapped with the offending value.
func ValidateLeverage(l Leverage) error {
	if !l.Valid() {
		return fmt.Errorf("leverage %dx: %w", int(l), ErrUnsupportedLeverage)
	}
	return nil
}

// Position is the single open position of a session (no pyramiding).
type Position struct {
	Side       Side
	EntryPrice float64
	Quantity   float64
	Leverage   Leverage
	EntryIndex int
	EntryTime  int64
}

// CompletedTrade is the immutable record of a closed position (or half of one).
type CompletedTrade struct {
	ID         string
	Side       Side
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	Leverage   Leverage
	PnL        float64
	PnLPercent float64
	EntryTime  int64
	ExitTime   int64
	EntryIndex int
	ExitIndex  int
	Liquidated bool
}

// IsWin reports whether the trade realized a strictly positive P&L.
func (t CompletedTrade) IsWin() bool {
	return t.PnL > 0
}

// DurationCandles is the number of candles the position was held.
func (t CompletedTrade) DurationCandles() int {
	return t.ExitIndex - t.EntryIndex
}
