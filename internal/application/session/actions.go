package session

import (
	"fmt"

	"github.com/alejandrodnm/tradequest/internal/domain"
)

// Action is a player or driver command. The set is closed: only the types in
// this file implement it.
type Action interface {
	isAction()
}

type (
	// Start moves idle → playing. StartIndex nil picks a random index.
	Start struct{ StartIndex *int }
	// Tick advances one candle.
	Tick struct{}
	// Open opens a position; against an opposite-side position it closes instead.
	Open struct{ Side domain.Side }
	// Close realizes the whole position.
	Close struct{}
	// SellHalf realizes half the quantity and keeps the rest open.
	SellHalf struct{}
	// CloseAll realizes every open position (there is at most one).
	CloseAll    struct{}
	SetLeverage struct{ Leverage domain.Leverage }
	SetSpeed    struct{ Speed float64 }
	TogglePlay  struct{}
	Pause       struct{}
	Resume      struct{}
	// EndGame closes any position and ends the session.
	EndGame struct{}
	// Reset reloads a fresh series and returns to idle. Prior XP carries over.
	Reset struct{ Series domain.PriceSeries }
)

func (Start) isAction()       {}
func (Tick) isAction()        {}
func (Open) isAction()        {}
func (Close) isAction()       {}
func (SellHalf) isAction()    {}
func (CloseAll) isAction()    {}
func (SetLeverage) isAction() {}
func (SetSpeed) isAction()    {}
func (TogglePlay) isAction()  {}
func (Pause) isAction()       {}
func (Resume) isAction()      {}
func (EndGame) isAction()     {}
func (Reset) isAction()       {}

// Apply runs one action against the session and returns the events it produced.
// A nil slice with a nil error means the action was a legal no-op.
func (s *Session) Apply(a Action) ([]Event, error) {
	switch a := a.(type) {
	case Start:
		return s.start(a.StartIndex)
	case Tick:
		return s.tick(), nil
	case Open:
		return s.open(a.Side)
	case Close:
		return s.closeFull(), nil
	case CloseAll:
		return s.closeFull(), nil
	case SellHalf:
		return s.sellHalf(), nil
	case SetLeverage:
		return s.setLeverage(a.Leverage)
	case SetSpeed:
		return s.setSpeed(a.Speed)
	case TogglePlay:
		return s.togglePlay(), nil
	case Pause:
		return s.pause(), nil
	case Resume:
		return s.resume(), nil
	case EndGame:
		return s.endGame(), nil
	case Reset:
		return s.reset(a.Series)
	default:
		return nil, fmt.Errorf("session.Apply: %T: %w", a, ErrUnknownAction)
	}
}
