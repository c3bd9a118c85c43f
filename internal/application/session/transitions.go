package session

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/tradequest/internal/domain"
)

func (s *Session) setStatus(to Status) Event {
	from := s.state.Status
	s.state.Status = to
	s.state.IsPlaying = to == StatusPlaying
	return StatusChanged{From: from, To: to}
}

func (s *Session) start(startIndex *int) ([]Event, error) {
	if s.state.Status != StatusIdle {
		return nil, nil
	}

	idx := 0
	if startIndex != nil {
		idx = *startIndex
		if idx < 0 || idx >= s.series.Len() {
			return nil, fmt.Errorf("session.Start: index %d of %d: %w", idx, s.series.Len(), domain.ErrInvalidStartIndex)
		}
	} else {
		idx = RandomStartIndex(s.cfg.Rand, s.series.Len(), s.cfg.MinPlayableCandles)
	}

	s.state.CandleIndex = idx
	s.state.StartIndex = idx
	s.state.PeakBalance = s.state.Balance
	return []Event{Started{StartIndex: idx}, s.setStatus(StatusPlaying)}, nil
}

func (s *Session) tick() []Event {
	if s.state.Status != StatusPlaying {
		return nil
	}

	next := s.state.CandleIndex + 1
	if next >= s.series.Len() {
		return s.end(EndSeriesExhausted)
	}
	s.state.CandleIndex = next

	var events []Event
	if s.state.Position != nil {
		s.state.OpenPnL, _ = domain.UnrealizedPnL(*s.state.Position, s.CurrentCandle().Close)
		if domain.IsLiquidated(s.state.Balance, s.state.OpenPnL) {
			closed := s.realize(s.state.Position.Quantity, true)
			s.state.Liquidated = true
			s.trackDrawdown()
			events = append(events, Liquidated{Trade: closed.Trade}, closed)
			return append(events, s.end(EndLiquidated)...)
		}
	}

	s.trackDrawdown()
	return events
}

func (s *Session) trackDrawdown() {
	equity := s.state.Equity()
	s.state.PeakBalance = max(s.state.PeakBalance, equity)
	dd := domain.Drawdown(equity, s.state.PeakBalance) * 100
	s.state.MaxDrawdown = max(s.state.MaxDrawdown, dd)
}

func (s *Session) open(side domain.Side) ([]Event, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("session.Open: side %q: %w", side, ErrInvalidSide)
	}
	if s.state.Status != StatusPlaying {
		return nil, nil
	}
	if pos := s.state.Position; pos != nil {
		if pos.Side == side {
			return nil, nil
		}
		return s.closeFull(), nil
	}
	if s.state.Balance <= 0 {
		return nil, nil
	}

	c := s.CurrentCandle()
	qty, err := domain.PositionSize(s.state.Balance, c.Close, s.state.Leverage)
	if err != nil {
		return nil, fmt.Errorf("session.Open: candle %d: %w", s.state.CandleIndex, err)
	}

	pos := domain.Position{
		Side:       side,
		EntryPrice: c.Close,
		Quantity:   qty,
		Leverage:   s.state.Leverage,
		EntryIndex: s.state.CandleIndex,
		EntryTime:  c.Time,
	}
	s.state.Position = &pos
	s.state.OpenPnL = 0
	s.state.MaxLeverageUsed = max(s.state.MaxLeverageUsed, pos.Leverage)
	return []Event{PositionOpened{Position: pos}}, nil
}

func (s *Session) canClose() bool {
	st := s.state.Status
	return s.state.Position != nil && (st == StatusPlaying || st == StatusPaused)
}

func (s *Session) closeFull() []Event {
	if !s.canClose() {
		return nil
	}
	return []Event{s.realize(s.state.Position.Quantity, false)}
}

func (s *Session) sellHalf() []Event {
	if !s.canClose() {
		return nil
	}
	return []Event{s.realize(s.state.Position.Quantity/2, false)}
}

// realize closes qty of the open position at the current close and books the
// trade: balance, win/loss counters, streak and XP. The loss is capped at the
// current balance so the balance never goes below zero.
func (s *Session) realize(qty float64, liquidation bool) TradeClosed {
	pos := *s.state.Position
	c := s.CurrentCandle()

	part := pos
	part.Quantity = qty
	pnl, pnlPct := domain.UnrealizedPnL(part, c.Close)
	if pnl < -s.state.Balance {
		pnl = -s.state.Balance
		if inv := qty * pos.EntryPrice / float64(pos.Leverage); inv > 0 {
			pnlPct = pnl / inv * 100
		}
	}

	trade := domain.CompletedTrade{
		ID:         s.cfg.NewID(),
		Side:       pos.Side,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  c.Close,
		Quantity:   qty,
		Leverage:   pos.Leverage,
		PnL:        pnl,
		PnLPercent: pnlPct,
		EntryTime:  pos.EntryTime,
		ExitTime:   c.Time,
		EntryIndex: pos.EntryIndex,
		ExitIndex:  s.state.CandleIndex,
		Liquidated: liquidation,
	}

	s.state.Balance += pnl
	if liquidation || s.state.Balance < 0 {
		s.state.Balance = 0
	}

	if trade.IsWin() {
		s.state.WinCount++
		s.state.CurrentStreak++
		s.state.MaxStreak = max(s.state.MaxStreak, s.state.CurrentStreak)
	} else {
		s.state.LossCount++
		s.state.CurrentStreak = 0
	}

	xp := domain.TradeXP(trade, s.state.CurrentStreak)
	s.state.SessionXP += xp
	s.state.XP += xp
	s.state.Trades = append(s.state.Trades, trade)

	remaining := pos.Quantity - qty
	partial := !liquidation && remaining > 0 && qty < pos.Quantity
	if partial {
		pos.Quantity = remaining
		s.state.Position = &pos
		s.state.OpenPnL, _ = domain.UnrealizedPnL(pos, c.Close)
	} else {
		s.state.Position = nil
		s.state.OpenPnL = 0
	}

	return TradeClosed{Trade: trade, XP: xp, Streak: s.state.CurrentStreak, Partial: partial}
}

func (s *Session) setLeverage(v domain.Leverage) ([]Event, error) {
	if err := domain.ValidateLeverage(v); err != nil {
		return nil, fmt.Errorf("session.SetLeverage: %w", err)
	}
	if s.state.Position != nil || s.state.Status == StatusEnded || s.state.Leverage == v {
		return nil, nil
	}
	s.state.Leverage = v
	return []Event{LeverageChanged{Leverage: v}}, nil
}

func (s *Session) setSpeed(v float64) ([]Event, error) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("session.SetSpeed: %v: %w", v, domain.ErrInvalidSpeed)
	}
	if s.state.SpeedMultiplier == v {
		return nil, nil
	}
	s.state.SpeedMultiplier = v
	return []Event{SpeedChanged{Speed: v}}, nil
}

func (s *Session) togglePlay() []Event {
	switch s.state.Status {
	case StatusPlaying:
		return []Event{s.setStatus(StatusPaused)}
	case StatusPaused:
		return []Event{s.setStatus(StatusPlaying)}
	}
	return nil
}

func (s *Session) pause() []Event {
	if s.state.Status != StatusPlaying {
		return nil
	}
	return []Event{s.setStatus(StatusPaused)}
}

func (s *Session) resume() []Event {
	if s.state.Status != StatusPaused {
		return nil
	}
	return []Event{s.setStatus(StatusPlaying)}
}

// endGame fuerza ended desde cualquier estado no terminal, idle incluido.
func (s *Session) endGame() []Event {
	if s.state.Status == StatusEnded {
		return nil
	}
	return s.end(EndPlayer)
}

// end closes any open position, moves to ended and builds the result.
func (s *Session) end(reason EndReason) []Event {
	var events []Event
	if s.state.Position != nil {
		events = append(events, s.realize(s.state.Position.Quantity, false))
	}
	events = append(events, s.setStatus(StatusEnded))

	res := s.buildResult()
	s.result = &res
	return append(events, Ended{Reason: reason, Result: res})
}

func (s *Session) reset(series domain.PriceSeries) ([]Event, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("session.Reset: %w", err)
	}
	s.load(series, s.state.XP)
	return []Event{Restarted{SessionID: s.state.SessionID, Symbol: series.Symbol}}, nil
}

func (s *Session) buildResult() domain.SessionResult {
	st := s.state
	trades := len(st.Trades)
	totalPnL := st.Balance - st.StartingBalance
	pnlPct := 0.0
	if st.StartingBalance > 0 {
		pnlPct = totalPnL / st.StartingBalance * 100
	}
	winRate := domain.WinRatePercent(st.WinCount, trades)
	priorLevel := domain.LevelForXP(st.XP - st.SessionXP)
	newLevel := domain.LevelForXP(st.XP)

	return domain.SessionResult{
		SessionID:       st.SessionID,
		Symbol:          st.Symbol,
		TradeCount:      trades,
		WinCount:        st.WinCount,
		LossCount:       st.LossCount,
		WinRate:         winRate,
		TotalPnL:        totalPnL,
		PnLPercent:      pnlPct,
		StartingBalance: st.StartingBalance,
		FinalBalance:    st.Balance,
		MaxStreak:       st.MaxStreak,
		MaxDrawdown:     st.MaxDrawdown,
		Grade:           domain.SessionGrade(winRate, pnlPct),
		XPEarned:        st.SessionXP,
		TotalXP:         st.XP,
		NewLevel:        newLevel,
		LeveledUp:       newLevel > priorLevel,
		Liquidated:      st.Liquidated,
		CandlesPlayed:   st.CandleIndex - st.StartIndex,
		EndedAt:         s.cfg.Clock(),
	}
}
