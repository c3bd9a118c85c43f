package session

import "github.com/alejandrodnm/tradequest/internal/domain"

// Event is emitted by Apply for the UI and the game service.
type Event interface {
	isEvent()
}

// EndReason explains why a session ended.
type EndReason string

const (
	EndSeriesExhausted EndReason = "series_exhausted"
	EndLiquidated      EndReason = "liquidated"
	EndPlayer          EndReason = "player"
)

type (
	Started struct {
		StartIndex int
	}
	StatusChanged struct {
		From, To Status
	}
	PositionOpened struct {
		Position domain.Position
	}
	// TradeClosed fires on every close, including partial and forced closes.
	// Streak is the win streak after this trade; XP what it earned.
	TradeClosed struct {
		Trade   domain.CompletedTrade
		XP      int
		Streak  int
		Partial bool
	}
	Liquidated struct {
		Trade domain.CompletedTrade
	}
	LeverageChanged struct {
		Leverage domain.Leverage
	}
	SpeedChanged struct {
		Speed float64
	}
	Ended struct {
		Reason EndReason
		Result domain.SessionResult
	}
	Restarted struct {
		SessionID string
		Symbol    string
	}
)

func (Started) isEvent()         {}
func (StatusChanged) isEvent()   {}
func (PositionOpened) isEvent()  {}
func (TradeClosed) isEvent()     {}
func (Liquidated) isEvent()      {}
func (LeverageChanged) isEvent() {}
func (SpeedChanged) isEvent()    {}
func (Ended) isEvent()           {}
func (Restarted) isEvent()       {}
