package domain

// AchievementCategory agrupa logros para la UI.
type AchievementCategory string

const (
	CategoryTrading AchievementCategory = "trading"
	CategoryStreak  AchievementCategory = "streak"
	CategoryProfit  AchievementCategory = "profit"
	CategoryRisk    AchievementCategory = "risk"
	CategoryMastery AchievementCategory = "mastery"
	CategoryCareer  AchievementCategory = "career"
	CategorySecret  AchievementCategory = "secret"
)

// Rarity es la rareza visible de un logro.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// AchievementStats es el snapshot plano sobre el que se evalúan los predicados.
// Los campos Session* son de la sesión actual; el resto son acumulados.
type AchievementStats struct {
	TotalTrades       int
	TotalWins         int
	TotalSessions     int
	TotalProfit       float64
	AllTimeMaxStreak  int
	Level             int
	MissionsCompleted int
	Liquidations      int

	SessionTrades      int
	SessionWins        int
	SessionPnL         float64
	SessionPnLPercent  float64
	SessionWinRate     float64 // percent
	SessionMaxStreak   int
	SessionMaxDrawdown float64 // percent
	SessionEnded       bool
	SessionLiquidated  bool
	MaxLeverageUsed    int
	LongestHoldCandles int
	FastestWinCandles  int // 0 si no hubo victorias
	BestTradePnL       float64
	BestTradePercent   float64
	WorstTradePercent  float64
	LongWins           int
	ShortWins          int

	CareerMode bool
	NightOwl   bool // algún trade de la sesión se cerró entre 00:00 y 05:00; lo decide el caller
}

// AchievementDefinition es una entrada del catálogo estático.
type AchievementDefinition struct {
	ID          string
	Name        string
	Description string
	Category    AchievementCategory
	Rarity      Rarity
	XPReward    int
	Requirement float64
	Hidden      bool

	check func(s AchievementStats, req float64) bool
}

// Qualifies evalúa el predicado del logro contra el snapshot.
func (d AchievementDefinition) Qualifies(s AchievementStats) bool {
	if d.check == nil {
		return false
	}
	return d.check(s, d.Requirement)
}

// Unlock es un logro que pasó de bloqueado a desbloqueado en una evaluación.
type Unlock struct {
	Achievement AchievementDefinition
	XPReward    int
}

func atLeastInt(f func(AchievementStats) int) func(AchievementStats, float64) bool {
	return func(s AchievementStats, req float64) bool { return float64(f(s)) >= req }
}

func atLeast(f func(AchievementStats) float64) func(AchievementStats, float64) bool {
	return func(s AchievementStats, req float64) bool { return f(s) >= req }
}

// catalog es el catálogo de logros, en orden de presentación.
var catalog = []AchievementDefinition{
	// trading
	{ID: "first_trade", Name: "First Steps", Description: "Close your first trade",
		Category: CategoryTrading, Rarity: RarityCommon, XPReward: 50, Requirement: 1,
		check: atLeastInt(func(s AchievementStats) int { return s.TotalTrades })},
	{ID: "first_win", Name: "Green Candle", Description: "Win your first trade",
		Category: CategoryTrading, Rarity: RarityCommon, XPReward: 75, Requirement: 1,
		check: atLeastInt(func(s AchievementStats) int { return s.TotalWins })},
	{ID: "trades_50", Name: "Regular", Description: "Close 50 trades",
		Category: CategoryTrading, Rarity: RarityCommon, XPReward: 150, Requirement: 50,
		check: atLeastInt(func(s AchievementStats) int { return s.TotalTrades })},
	{ID: "trades_500", Name: "Veteran", Description: "Close 500 trades",
		Category: CategoryTrading, Rarity: RarityEpic, XPReward: 750, Requirement: 500,
		check: atLeastInt(func(s AchievementStats) int { return s.TotalTrades })},
	{ID: "sessions_10", Name: "Committed", Description: "Finish 10 sessions",
		Category: CategoryTrading, Rarity: RarityRare, XPReward: 200, Requirement: 10,
		check: atLeastInt(func(s AchievementStats) int { return s.TotalSessions })},
	{ID: "short_seller", Name: "Bear Market", Description: "Win 5 short trades in one session",
		Category: CategoryTrading, Rarity: RarityRare, XPReward: 200, Requirement: 5,
		check: atLeastInt(func(s AchievementStats) int { return s.ShortWins })},
	{ID: "busy_session", Name: "Hyperactive", Description: "Close 25 trades in one session",
		Category: CategoryTrading, Rarity: RarityRare, XPReward: 150, Requirement: 25,
		check: atLeastInt(func(s AchievementStats) int { return s.SessionTrades })},

	// streak
	{ID: "streak_3", Name: "Hat Trick", Description: "Win 3 trades in a row",
		Category: CategoryStreak, Rarity: RarityCommon, XPReward: 100, Requirement: 3,
		check: atLeastInt(func(s AchievementStats) int { return s.SessionMaxStreak })},
	{ID: "streak_5", Name: "On Fire", Description: "Win 5 trades in a row",
		Category: CategoryStreak, Rarity: RarityRare, XPReward: 250, Requirement: 5,
		check: atLeastInt(func(s AchievementStats) int { return s.SessionMaxStreak })},
	{ID: "streak_10", Name: "Unstoppable", Description: "Win 10 trades in a row",
		Category: CategoryStreak, Rarity: RarityLegendary, XPReward: 1000, Requirement: 10,
		check: atLeastInt(func(s AchievementStats) int { return s.AllTimeMaxStreak })},

	// profit
	{ID: "profit_1k", Name: "Four Figures", Description: "Make $1,000 profit in one session",
		Category: CategoryProfit, Rarity: RarityCommon, XPReward: 100, Requirement: 1000,
		check: atLeast(func(s AchievementStats) float64 { return s.SessionPnL })},
	{ID: "profit_10k", Name: "Double Up", Description: "Make $10,000 profit in one session",
		Category: CategoryProfit, Rarity: RarityEpic, XPReward: 600, Requirement: 10000,
		check: atLeast(func(s AchievementStats) float64 { return s.SessionPnL })},
	{ID: "lifetime_100k", Name: "Six Figures", Description: "Accumulate $100,000 total profit",
		Category: CategoryProfit, Rarity: RarityLegendary, XPReward: 1500, Requirement: 100000,
		check: atLeast(func(s AchievementStats) float64 { return s.TotalProfit })},
	{ID: "big_win", Name: "Home Run", Description: "Gain 50% or more on a single trade",
		Category: CategoryProfit, Rarity: RarityRare, XPReward: 300, Requirement: 50,
		check: atLeast(func(s AchievementStats) float64 { return s.BestTradePercent })},

	// risk
	{ID: "max_leverage", Name: "Full Send", Description: "Open a position at 10x leverage",
		Category: CategoryRisk, Rarity: RarityRare, XPReward: 150, Requirement: 10,
		check: atLeastInt(func(s AchievementStats) int { return s.MaxLeverageUsed })},
	{ID: "iron_hands", Name: "Iron Hands", Description: "Hold a position for 100 candles",
		Category: CategoryRisk, Rarity: RarityRare, XPReward: 200, Requirement: 100,
		check: atLeastInt(func(s AchievementStats) int { return s.LongestHoldCandles })},
	{ID: "scalper", Name: "Scalper", Description: "Win a trade held for 2 candles or less",
		Category: CategoryRisk, Rarity: RarityCommon, XPReward: 100, Requirement: 2,
		check: func(s AchievementStats, req float64) bool {
			return s.FastestWinCandles > 0 && float64(s.FastestWinCandles) <= req
		}},
	{ID: "risk_manager", Name: "Risk Manager", Description: "Finish a profitable session of 10+ trades with drawdown under 5%",
		Category: CategoryRisk, Rarity: RarityEpic, XPReward: 400, Requirement: 5,
		check: func(s AchievementStats, req float64) bool {
			return s.SessionEnded && s.SessionTrades >= 10 && s.SessionPnL > 0 && s.SessionMaxDrawdown < req
		}},

	// mastery
	{ID: "sharpshooter", Name: "Sharpshooter", Description: "Finish a session of 10+ trades with 80% win rate",
		Category: CategoryMastery, Rarity: RarityEpic, XPReward: 500, Requirement: 80,
		check: func(s AchievementStats, req float64) bool {
			return s.SessionEnded && s.SessionTrades >= 10 && s.SessionWinRate >= req
		}},
	{ID: "level_10", Name: "Rising Star", Description: "Reach level 10",
		Category: CategoryMastery, Rarity: RarityRare, XPReward: 250, Requirement: 10,
		check: atLeastInt(func(s AchievementStats) int { return s.Level })},
	{ID: "level_25", Name: "Elite", Description: "Reach level 25",
		Category: CategoryMastery, Rarity: RarityEpic, XPReward: 750, Requirement: 25,
		check: atLeastInt(func(s AchievementStats) int { return s.Level })},

	// career
	{ID: "first_mission", Name: "Recruit", Description: "Complete a career mission",
		Category: CategoryCareer, Rarity: RarityCommon, XPReward: 100, Requirement: 1,
		check: func(s AchievementStats, req float64) bool {
			return s.CareerMode && float64(s.MissionsCompleted) >= req
		}},
	{ID: "missions_10", Name: "Career Trader", Description: "Complete 10 career missions",
		Category: CategoryCareer, Rarity: RarityEpic, XPReward: 800, Requirement: 10,
		check: atLeastInt(func(s AchievementStats) int { return s.MissionsCompleted })},

	// secret
	{ID: "phoenix", Name: "Phoenix", Description: "Finish a session in profit after a 30%+ drawdown",
		Category: CategorySecret, Rarity: RarityLegendary, XPReward: 1000, Requirement: 30, Hidden: true,
		check: func(s AchievementStats, req float64) bool {
			return s.SessionEnded && s.SessionPnL > 0 && s.SessionMaxDrawdown >= req
		}},
	{ID: "rekt", Name: "Rekt", Description: "Get liquidated",
		Category: CategorySecret, Rarity: RarityCommon, XPReward: 25, Requirement: 1, Hidden: true,
		check: atLeastInt(func(s AchievementStats) int { return s.Liquidations })},
	{ID: "diamond_loss", Name: "Catching Knives", Description: "Lose 90% or more on a single trade",
		Category: CategorySecret, Rarity: RarityRare, XPReward: 50, Requirement: -90, Hidden: true,
		check: func(s AchievementStats, req float64) bool {
			return s.SessionTrades > 0 && s.WorstTradePercent <= req
		}},
	{ID: "night_owl", Name: "Night Owl", Description: "Close a trade between midnight and 5 AM",
		Category: CategorySecret, Rarity: RarityCommon, XPReward: 50, Requirement: 1, Hidden: true,
		check: func(s AchievementStats, req float64) bool {
			return s.NightOwl && float64(s.SessionTrades) >= req
		}},
}

// Catalog devuelve una copia del catálogo estático.
func Catalog() []AchievementDefinition {
	out := make([]AchievementDefinition, len(catalog))
	copy(out, catalog)
	return out
}

// AchievementByID busca un logro por ID.
func AchievementByID(id string) (AchievementDefinition, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return AchievementDefinition{}, false
}

// EvaluateAchievements devuelve los logros que pasan de bloqueado a
// desbloqueado con este snapshot, en orden de catálogo. Es pura: el set de
// desbloqueados lo gestiona el caller. Los logros ocultos se evalúan igual.
func EvaluateAchievements(stats AchievementStats, unlocked map[string]bool) []Unlock {
	var out []Unlock
	for _, d := range catalog {
		if unlocked[d.ID] {
			continue
		}
		if d.Qualifies(stats) {
			out = append(out, Unlock{Achievement: d, XPReward: d.XPReward})
		}
	}
	return out
}
