// Package session implements the turn-based trading session state machine.
//
// A Session owns one SessionState and is driven by Apply(Action). Every call is
// synchronous and all-or-nothing. Illegal-but-foreseeable actions (double open,
// leverage change mid-position, tick while paused) return no events and a nil
// error; contract violations (bad leverage, bad speed, bad price data) return an
// error and leave the state untouched.
package session

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/alejandrodnm/tradequest/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultStartingBalance    = 10000.0
	DefaultMinPlayableCandles = 50
	DefaultSpeed              = 1.0
)

var (
	ErrUnknownAction = errors.New("unknown session action")
	ErrInvalidSide   = errors.New("invalid position side")
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

// Config parametrizes a new session.
type Config struct {
	StartingBalance    float64
	Leverage           domain.Leverage
	MinPlayableCandles int
	PriorXP            int
	Rand               *rand.Rand       // random start index; nil → fixed seed
	Clock              func() time.Time // nil → time.Now
	NewID              func() string    // nil → uuid
}

// State is the mutable session aggregate. Callers only ever see copies.
type State struct {
	SessionID       string
	Symbol          string
	CandleIndex     int
	StartIndex      int
	Balance         float64
	StartingBalance float64
	Position        *domain.Position
	Trades          []domain.CompletedTrade
	OpenPnL         float64
	IsPlaying       bool
	SpeedMultiplier float64
	Leverage        domain.Leverage
	Status          Status
	WinCount        int
	LossCount       int
	CurrentStreak   int
	MaxStreak       int
	MaxDrawdown     float64 // percent, non-decreasing
	PeakBalance     float64
	XP              int // prior XP + SessionXP
	SessionXP       int
	MaxLeverageUsed domain.Leverage
	Liquidated      bool
}

// Equity is balance plus unrealized P&L.
func (s State) Equity() float64 {
	return s.Balance + s.OpenPnL
}

// Session is the single mutable owner of a State. Not safe for concurrent use.
type Session struct {
	cfg    Config
	series domain.PriceSeries
	state  State
	result *domain.SessionResult
}

// New validates the price series and config and returns an idle session.
func New(series domain.PriceSeries, cfg Config) (*Session, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("session.New: %w", err)
	}
	if cfg.StartingBalance == 0 {
		cfg.StartingBalance = DefaultStartingBalance
	}
	if cfg.StartingBalance < 0 {
		return nil, fmt.Errorf("session.New: starting balance %v: %w", cfg.StartingBalance, domain.ErrInvalidBalance)
	}
	if cfg.Leverage == 0 {
		cfg.Leverage = 1
	}
	if err := domain.ValidateLeverage(cfg.Leverage); err != nil {
		return nil, fmt.Errorf("session.New: %w", err)
	}
	if cfg.MinPlayableCandles <= 0 {
		cfg.MinPlayableCandles = DefaultMinPlayableCandles
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(1, 2))
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	s := &Session{cfg: cfg}
	s.load(series, cfg.PriorXP)
	return s, nil
}

// load resets all state to idle on the given series.
func (s *Session) load(series domain.PriceSeries, priorXP int) {
	s.series = series
	s.result = nil
	s.state = State{
		SessionID:       s.cfg.NewID(),
		Symbol:          series.Symbol,
		Balance:         s.cfg.StartingBalance,
		StartingBalance: s.cfg.StartingBalance,
		PeakBalance:     s.cfg.StartingBalance,
		SpeedMultiplier: DefaultSpeed,
		Leverage:        s.cfg.Leverage,
		Status:          StatusIdle,
		XP:              priorXP,
		Trades:          []domain.CompletedTrade{},
	}
}

// State returns a snapshot copy of the current state.
func (s *Session) State() State {
	st := s.state
	st.Trades = append([]domain.CompletedTrade(nil), s.state.Trades...)
	if s.state.Position != nil {
		p := *s.state.Position
		st.Position = &p
	}
	return st
}

// Series returns the price series the session is playing.
func (s *Session) Series() domain.PriceSeries {
	return s.series
}

// CurrentCandle returns the candle at the current index.
func (s *Session) CurrentCandle() domain.Candle {
	return s.series.At(s.state.CandleIndex)
}

// Result returns the terminal result once the session has ended.
func (s *Session) Result() (domain.SessionResult, bool) {
	if s.result == nil {
		return domain.SessionResult{}, false
	}
	return *s.result, true
}

// RandomStartIndex picks a start index in [0, length-minPlayable] from r.
// Series shorter than minPlayable always start at 0.
func RandomStartIndex(r *rand.Rand, length, minPlayable int) int {
	maxStart := length - minPlayable
	if maxStart <= 0 {
		return 0
	}
	return r.IntN(maxStart + 1)
}
