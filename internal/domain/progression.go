package domain

import "math"

// Constantes del motor de progresión.
const (
	ParticipationXP     = 10  // XP fija por un trade no ganador
	BaseWinXP           = 100 // XP base de un trade ganador
	StreakMultiplier    = 1.5
	StreakCapMultiplier = 5.0
	PerfectTradePercent = 5.0 // pnl% por encima del cual se suma el bonus
	PerfectTradeBonusXP = 50
	LeverageXPTenths    = 1 // +10% de XP por cada punto de leverage sobre 1x

	LevelCurveC = 100.0
	MaxLevel    = 50
)

// TradeXP convierte un trade cerrado en XP.
//
// streak es la racha ganadora que este trade completa (1 para la primera
// victoria de una racha). Un trade con pnl <= 0 devuelve ParticipationXP.
//
//	xp = (100 × min(1.5^streak, 5) [+ 50 si pnl% > 5]) × (1 + (leverage-1)×0.1)
func TradeXP(trade CompletedTrade, streak int) int {
	if trade.PnL <= 0 {
		return ParticipationXP
	}
	if streak < 0 {
		streak = 0
	}

	mult := math.Min(math.Pow(StreakMultiplier, float64(streak)), StreakCapMultiplier)
	xp := BaseWinXP * mult
	if trade.PnLPercent > PerfectTradePercent {
		xp += PerfectTradeBonusXP
	}

	lev := trade.Leverage
	if lev < 1 {
		lev = 1
	}
	// en décimas para que 1.1, 1.9... no arrastren error de redondeo
	xp = xp * float64(10+LeverageXPTenths*int(lev-1)) / 10
	return int(math.Floor(xp))
}

// XPForLevel devuelve la XP acumulada necesaria para alcanzar level.
// Curva superlineal: floor(C × (level-1)^1.5).
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	n := float64(level - 1)
	return int(math.Floor(LevelCurveC * n * math.Sqrt(n)))
}

// LevelForXP devuelve el mayor nivel cuyo requisito es <= totalXP, con tope MaxLevel.
func LevelForXP(totalXP int) int {
	level := 1
	for level < MaxLevel && XPForLevel(level+1) <= totalXP {
		level++
	}
	return level
}

// LevelProgress devuelve el progreso fraccional (0..1) hacia el siguiente nivel.
// 1.0 en el nivel máximo.
func LevelProgress(totalXP int) float64 {
	level := LevelForXP(totalXP)
	if level >= MaxLevel {
		return 1.0
	}
	cur := XPForLevel(level)
	next := XPForLevel(level + 1)
	if next <= cur {
		return 1.0
	}
	return float64(totalXP-cur) / float64(next-cur)
}

var levelTitles = []struct {
	minLevel int
	title    string
}{
	{40, "Market Wizard"},
	{30, "Whale"},
	{20, "Pro Trader"},
	{12, "Swing Trader"},
	{6, "Day Trader"},
	{3, "Apprentice"},
	{1, "Novice"},
}

// LevelTitle devuelve el título visible para un nivel.
func LevelTitle(level int) string {
	for _, lt := range levelTitles {
		if level >= lt.minLevel {
			return lt.title
		}
	}
	return levelTitles[len(levelTitles)-1].title
}

// Grade es la nota cualitativa de una sesión o misión.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// gradeThresholds se evalúa de mejor a peor; gana el primero que se cumple.
var gradeThresholds = []struct {
	grade      Grade
	minWinRate float64
	minPnL     float64
}{
	{GradeS, 70, 20},
	{GradeA, 60, 10},
	{GradeB, 50, 5},
	{GradeC, 40, 0},
	{GradeD, 30, -10},
	{GradeF, 0, -100},
}

// SessionGrade calcula la nota de la sesión a partir del win rate (%) y el P&L%.
// Independiente de la XP. GradeF es el fallback garantizado.
func SessionGrade(winRate, pnlPercent float64) Grade {
	for _, t := range gradeThresholds {
		if winRate >= t.minWinRate && pnlPercent >= t.minPnL {
			return t.grade
		}
	}
	return GradeF
}
