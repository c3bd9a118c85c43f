package domain

import "time"

// Profile is the cross-session progression owned by the persistence layer.
type Profile struct {
	XP                int
	Level             int
	TotalTrades       int
	TotalWins         int
	TotalSessions     int
	TotalProfit       float64
	AllTimeMaxStreak  int
	Liquidations      int
	Unlocked          map[string]time.Time // achievementID → unlock time
	CompletedMissions map[string]time.Time // missionID → completion time
	UpdatedAt         time.Time
}

// NewProfile returns an empty level-1 profile.
func NewProfile() Profile {
	return Profile{
		Level:             1,
		Unlocked:          make(map[string]time.Time),
		CompletedMissions: make(map[string]time.Time),
	}
}

// UnlockedSet returns the set of unlocked achievement IDs.
func (p Profile) UnlockedSet() map[string]bool {
	set := make(map[string]bool, len(p.Unlocked))
	for id := range p.Unlocked {
		set[id] = true
	}
	return set
}

// ProfileUpdate is a partial save: nil fields are left untouched,
// slices are added to the existing sets.
type ProfileUpdate struct {
	XP               *int
	Level            *int
	TotalTrades      *int
	TotalWins        *int
	TotalSessions    *int
	TotalProfit      *float64
	AllTimeMaxStreak *int
	Liquidations     *int
	AddUnlocked      []string
	AddMissions      []string
	At               time.Time
}

// Apply merges u into p and returns the result. p is not mutated.
func (u ProfileUpdate) Apply(p Profile) Profile {
	out := p
	out.Unlocked = make(map[string]time.Time, len(p.Unlocked)+len(u.AddUnlocked))
	for k, v := range p.Unlocked {
		out.Unlocked[k] = v
	}
	out.CompletedMissions = make(map[string]time.Time, len(p.CompletedMissions)+len(u.AddMissions))
	for k, v := range p.CompletedMissions {
		out.CompletedMissions[k] = v
	}

	if u.XP != nil {
		out.XP = *u.XP
	}
	if u.Level != nil {
		out.Level = *u.Level
	}
	if u.TotalTrades != nil {
		out.TotalTrades = *u.TotalTrades
	}
	if u.TotalWins != nil {
		out.TotalWins = *u.TotalWins
	}
	if u.TotalSessions != nil {
		out.TotalSessions = *u.TotalSessions
	}
	if u.TotalProfit != nil {
		out.TotalProfit = *u.TotalProfit
	}
	if u.AllTimeMaxStreak != nil {
		out.AllTimeMaxStreak = *u.AllTimeMaxStreak
	}
	if u.Liquidations != nil {
		out.Liquidations = *u.Liquidations
	}
	for _, id := range u.AddUnlocked {
		if _, ok := out.Unlocked[id]; !ok {
			out.Unlocked[id] = u.At
		}
	}
	for _, id := range u.AddMissions {
		if _, ok := out.CompletedMissions[id]; !ok {
			out.CompletedMissions[id] = u.At
		}
	}
	if !u.At.IsZero() {
		out.UpdatedAt = u.At
	}
	return out
}

// SessionResult is the terminal summary emitted when a session ends.
type SessionResult struct {
	SessionID       string
	Symbol          string
	TradeCount      int
	WinCount        int
	LossCount       int
	WinRate         float64 // percent
	TotalPnL        float64
	PnLPercent      float64
	StartingBalance float64
	FinalBalance    float64
	MaxStreak       int
	MaxDrawdown     float64 // percent
	Grade           Grade
	XPEarned        int
	TotalXP         int
	NewLevel        int
	LeveledUp       bool
	Liquidated      bool
	CandlesPlayed   int
	EndedAt         time.Time
}

// WinRatePercent devuelve wins/total×100, 0 si no hay trades.
func WinRatePercent(wins, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}
