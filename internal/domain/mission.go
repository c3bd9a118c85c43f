package domain

import "fmt"

// ConditionType es el tipo de una condición de victoria de misión.
type ConditionType string

const (
	ConditionProfitTarget  ConditionType = "profit_target"
	ConditionProfitPercent ConditionType = "profit_percent"
	ConditionSurvive       ConditionType = "survive"
	ConditionWinStreak     ConditionType = "win_streak"
	ConditionWinRate       ConditionType = "win_rate"
	ConditionMaxDrawdown   ConditionType = "max_drawdown"
	ConditionBeatMarket    ConditionType = "beat_market"
	ConditionTradesCount   ConditionType = "trades_count"
)

// Known reports whether t is one of the supported condition types.
func (t ConditionType) Known() bool {
	switch t {
	case ConditionProfitTarget, ConditionProfitPercent, ConditionSurvive, ConditionWinStreak,
		ConditionWinRate, ConditionMaxDrawdown, ConditionBeatMarket, ConditionTradesCount:
		return true
	}
	return false
}

// MissionWinCondition es una condición declarativa de una misión.
type MissionWinCondition struct {
	Type  ConditionType
	Value float64
}

// RewardType es el tipo de recompensa de una misión.
type RewardType string

const (
	RewardXP    RewardType = "xp"
	RewardCash  RewardType = "cash"
	RewardBadge RewardType = "badge"
)

// MissionReward se concede solo si se cumplen todas las condiciones.
type MissionReward struct {
	Type  RewardType
	Value float64
	ID    string // badge id
}

// Mission es un escenario del modo carrera.
type Mission struct {
	ID              string
	Title           string
	Description     string
	Symbol          string
	StartingBalance float64
	StartIndex      *int
	Conditions      []MissionWinCondition
	Rewards         []MissionReward
}

// Validate rechaza misiones sin condiciones o con tipos desconocidos.
func (m Mission) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("mission: missing id")
	}
	if len(m.Conditions) == 0 {
		return fmt.Errorf("mission %s: no win conditions", m.ID)
	}
	for i, c := range m.Conditions {
		if !c.Type.Known() {
			return fmt.Errorf("mission %s: condition %d %q: %w", m.ID, i, c.Type, ErrUnknownCondition)
		}
	}
	if m.StartingBalance < 0 {
		return fmt.Errorf("mission %s: starting balance %v: %w", m.ID, m.StartingBalance, ErrInvalidBalance)
	}
	return nil
}

// MissionSnapshot es el estado final de la sesión que evalúa la misión.
// BaselineStart/BaselineEnd son los closes de la primera y la última vela jugadas.
type MissionSnapshot struct {
	TotalPnL        float64
	StartingBalance float64
	Balance         float64
	WinCount        int
	LossCount       int
	MaxStreak       int
	MaxDrawdown     float64 // percent
	BaselineStart   float64
	BaselineEnd     float64
}

// TotalTrades devuelve wins + losses.
func (s MissionSnapshot) TotalTrades() int {
	return s.WinCount + s.LossCount
}

// WinRate devuelve el win rate en porcentaje.
func (s MissionSnapshot) WinRate() float64 {
	return WinRatePercent(s.WinCount, s.TotalTrades())
}

// ReturnPercent es el retorno de la sesión sobre el balance inicial.
func (s MissionSnapshot) ReturnPercent() float64 {
	if s.StartingBalance <= 0 {
		return 0
	}
	return s.TotalPnL / s.StartingBalance * 100
}

// BuyAndHoldPercent es el retorno de comprar en BaselineStart y vender en BaselineEnd.
func (s MissionSnapshot) BuyAndHoldPercent() float64 {
	if s.BaselineStart <= 0 {
		return 0
	}
	return (s.BaselineEnd - s.BaselineStart) / s.BaselineStart * 100
}

// ConditionResult es el veredicto de una condición.
type ConditionResult struct {
	Condition MissionWinCondition
	Actual    float64
	Target    float64
	Passed    bool
}

// MissionResult es el resultado de un intento de misión.
type MissionResult struct {
	MissionID        string
	Conditions       []ConditionResult
	AllConditionsMet bool
	Grade            Grade
	Score            int
	Rewards          []MissionReward
}

// EvaluateCondition calcula el valor real y el veredicto de una condición.
// max_drawdown es la única con dirección invertida (<=). Tipos desconocidos no pasan.
func EvaluateCondition(c MissionWinCondition, s MissionSnapshot) ConditionResult {
	r := ConditionResult{Condition: c, Target: c.Value}
	switch c.Type {
	case ConditionProfitTarget:
		r.Actual = s.TotalPnL
		r.Passed = r.Actual >= c.Value
	case ConditionProfitPercent:
		r.Actual = s.ReturnPercent()
		r.Passed = r.Actual >= c.Value
	case ConditionSurvive:
		if s.Balance > 0 {
			r.Actual = 1
		}
		r.Passed = s.Balance > 0
	case ConditionWinStreak:
		r.Actual = float64(s.MaxStreak)
		r.Passed = r.Actual >= c.Value
	case ConditionWinRate:
		r.Actual = s.WinRate()
		r.Passed = r.Actual >= c.Value
	case ConditionMaxDrawdown:
		r.Actual = s.MaxDrawdown
		r.Passed = r.Actual <= c.Value
	case ConditionBeatMarket:
		session := s.ReturnPercent()
		market := s.BuyAndHoldPercent()
		r.Actual = session - market
		r.Passed = session > market
	case ConditionTradesCount:
		r.Actual = float64(s.TotalTrades())
		r.Passed = r.Actual >= c.Value
	}
	return r
}

// EvaluateMission evalúa todas las condiciones y calcula nota, puntuación y recompensas.
func EvaluateMission(m Mission, s MissionSnapshot) MissionResult {
	res := MissionResult{
		MissionID:        m.ID,
		Conditions:       make([]ConditionResult, 0, len(m.Conditions)),
		AllConditionsMet: true,
	}
	for _, c := range m.Conditions {
		cr := EvaluateCondition(c, s)
		res.Conditions = append(res.Conditions, cr)
		if !cr.Passed {
			res.AllConditionsMet = false
		}
	}

	res.Score = MissionScore(s)
	res.Grade = MissionGrade(res.Score, res.AllConditionsMet, s.TotalPnL, s.WinRate())
	if res.AllConditionsMet {
		res.Rewards = append([]MissionReward(nil), m.Rewards...)
	} else {
		res.Rewards = []MissionReward{}
	}
	return res
}

// MissionScore suma tres tramos independientes (máx 100):
//   - P&L%:    >=50 → 40, >=25 → 30, >=10 → 20, >0 → 10
//   - win rate: >=70 → 30, >=60 → 20, >=50 → 10
//   - racha:   >=5 → 30, >=3 → 20, >=2 → 10
func MissionScore(s MissionSnapshot) int {
	score := 0

	switch pnl := s.ReturnPercent(); {
	case pnl >= 50:
		score += 40
	case pnl >= 25:
		score += 30
	case pnl >= 10:
		score += 20
	case pnl > 0:
		score += 10
	}

	switch wr := s.WinRate(); {
	case wr >= 70:
		score += 30
	case wr >= 60:
		score += 20
	case wr >= 50:
		score += 10
	}

	switch {
	case s.MaxStreak >= 5:
		score += 30
	case s.MaxStreak >= 3:
		score += 20
	case s.MaxStreak >= 2:
		score += 10
	}
	return score
}

// MissionGrade convierte la puntuación en S/A/B/C si la misión se cumplió.
// Si no, la nota tiene tope C (pnl>0 y win rate>40%), D (pnl>0) o F.
func MissionGrade(score int, allMet bool, totalPnL, winRate float64) Grade {
	if allMet {
		switch {
		case score >= 80:
			return GradeS
		case score >= 60:
			return GradeA
		case score >= 40:
			return GradeB
		default:
			return GradeC
		}
	}
	switch {
	case totalPnL > 0 && winRate > 40:
		return GradeC
	case totalPnL > 0:
		return GradeD
	default:
		return GradeF
	}
}
