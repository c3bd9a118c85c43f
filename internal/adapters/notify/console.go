package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alejandrodnm/tradequest/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo a un terminal.
type Console struct {
	out     io.Writer
	verbose bool // true: imprime el log de trades completo al terminar
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

// TradeClosed imprime una línea por cierre.
func (c *Console) TradeClosed(_ context.Context, t domain.CompletedTrade, xp, streak int) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%4d] %-5s %2dx %s → %s  %s (%s)  +%d xp",
		t.ExitIndex, strings.ToUpper(string(t.Side)), t.Leverage,
		price(t.EntryPrice), price(t.ExitPrice), money(t.PnL), pct(t.PnLPercent), xp)
	if streak > 1 {
		fmt.Fprintf(&sb, "  streak %d", streak)
	}
	if t.Liquidated {
		sb.WriteString("  LIQUIDATED")
	}
	fmt.Fprintln(c.out, sb.String())
	return nil
}

// AchievementsUnlocked imprime cada logro nuevo.
func (c *Console) AchievementsUnlocked(_ context.Context, unlocks []domain.Unlock) error {
	for _, u := range unlocks {
		a := u.Achievement
		fmt.Fprintf(c.out, "  ★ %s [%s/%s] %s  +%d xp\n",
			a.Name, categoryTag(a), a.Rarity, a.Description, u.XPReward)
	}
	return nil
}

// SessionEnded imprime el resumen de la sesión y, en modo verbose, el log de trades.
func (c *Console) SessionEnded(_ context.Context, r domain.SessionResult, trades []domain.CompletedTrade) error {
	fmt.Fprintf(c.out, "\n══ session %s | %s | grade %s ══\n", shortID(r.SessionID), r.Symbol, r.Grade)

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("Balance", fmt.Sprintf("%s → %s", plain(r.StartingBalance), plain(r.FinalBalance)))
	table.Append("P&L", fmt.Sprintf("%s (%s)", money(r.TotalPnL), pct(r.PnLPercent)))
	table.Append("Trades", fmt.Sprintf("%d (W %d / L %d)", r.TradeCount, r.WinCount, r.LossCount))
	table.Append("Win rate", fmt.Sprintf("%.1f%%", r.WinRate))
	table.Append("Best streak", fmt.Sprintf("%d", r.MaxStreak))
	table.Append("Max drawdown", fmt.Sprintf("%.2f%%", r.MaxDrawdown))
	table.Append("Candles", fmt.Sprintf("%d", r.CandlesPlayed))
	table.Append("XP", fmt.Sprintf("+%d (total %d)", r.XPEarned, r.TotalXP))
	table.Append("Level", levelLabel(r.NewLevel, r.LeveledUp))
	table.Render()

	if r.Liquidated {
		fmt.Fprintln(c.out, "  account liquidated")
	}
	if c.verbose && len(trades) > 0 {
		c.printTrades(trades)
	}
	return nil
}

func (c *Console) printTrades(trades []domain.CompletedTrade) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Side", "Lev", "Entry", "Exit", "Candles", "P&L", "P&L%", "")
	for i, t := range trades {
		flag := ""
		if t.Liquidated {
			flag = "LIQ"
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(t.Side),
			fmt.Sprintf("%dx", t.Leverage),
			price(t.EntryPrice),
			price(t.ExitPrice),
			fmt.Sprintf("%d", t.DurationCandles()),
			money(t.PnL),
			pct(t.PnLPercent),
			flag,
		)
	}
	table.Render()
}

// MissionEvaluated imprime el veredicto condición a condición.
func (c *Console) MissionEvaluated(_ context.Context, m domain.Mission, r domain.MissionResult) error {
	status := "FAILED"
	if r.AllConditionsMet {
		status = "COMPLETE"
	}
	fmt.Fprintf(c.out, "\n══ mission %s | %s | %s (grade %s, score %d) ══\n", m.ID, m.Title, status, r.Grade, r.Score)

	table := tablewriter.NewWriter(c.out)
	table.Header("Condition", "Actual", "Target", "")
	for _, cr := range r.Conditions {
		mark := "✗"
		if cr.Passed {
			mark = "✓"
		}
		table.Append(string(cr.Condition.Type), fmt.Sprintf("%.2f", cr.Actual), fmt.Sprintf("%.2f", cr.Target), mark)
	}
	table.Render()

	for _, rw := range r.Rewards {
		switch rw.Type {
		case domain.RewardBadge:
			fmt.Fprintf(c.out, "  reward: badge %s\n", rw.ID)
		case domain.RewardCash:
			fmt.Fprintf(c.out, "  reward: %s cash\n", plain(rw.Value))
		default:
			fmt.Fprintf(c.out, "  reward: +%.0f xp\n", rw.Value)
		}
	}
	return nil
}

// PrintProfile imprime el perfil de carrera, los logros y las últimas sesiones.
func (c *Console) PrintProfile(p domain.Profile, recent []domain.SessionResult) {
	fmt.Fprintf(c.out, "\n══ %s | level %d (%d xp, %.0f%% to next) ══\n",
		domain.LevelTitle(p.Level), p.Level, p.XP, domain.LevelProgress(p.XP)*100)

	table := tablewriter.NewWriter(c.out)
	table.Header("Sessions", "Trades", "Win rate", "Total profit", "Best streak", "Liquidations", "Missions")
	table.Append(
		fmt.Sprintf("%d", p.TotalSessions),
		fmt.Sprintf("%d", p.TotalTrades),
		fmt.Sprintf("%.1f%%", domain.WinRatePercent(p.TotalWins, p.TotalTrades)),
		money(p.TotalProfit),
		fmt.Sprintf("%d", p.AllTimeMaxStreak),
		fmt.Sprintf("%d", p.Liquidations),
		fmt.Sprintf("%d", len(p.CompletedMissions)),
	)
	table.Render()

	c.printAchievements(p)

	if len(recent) == 0 {
		return
	}
	table = tablewriter.NewWriter(c.out)
	table.Header("Ended", "Symbol", "Trades", "Win rate", "P&L", "Grade", "XP")
	for _, r := range recent {
		table.Append(
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			r.Symbol,
			fmt.Sprintf("%d", r.TradeCount),
			fmt.Sprintf("%.1f%%", r.WinRate),
			fmt.Sprintf("%s (%s)", money(r.TotalPnL), pct(r.PnLPercent)),
			string(r.Grade),
			fmt.Sprintf("+%d", r.XPEarned),
		)
	}
	table.Render()
}

// PrintMissions imprime el catálogo de misiones marcando las ya completadas.
func (c *Console) PrintMissions(missions []domain.Mission, p domain.Profile) {
	fmt.Fprintf(c.out, "\n══ career missions (%d/%d complete) ══\n", completedCount(missions, p), len(missions))

	table := tablewriter.NewWriter(c.out)
	table.Header("", "ID", "Title", "Symbol", "Balance", "Conditions", "Rewards")
	for _, m := range missions {
		mark := " "
		if _, ok := p.CompletedMissions[m.ID]; ok {
			mark = "✓"
		}
		balance := "-"
		if m.StartingBalance > 0 {
			balance = plain(m.StartingBalance)
		}
		table.Append(mark, m.ID, m.Title, m.Symbol, balance, conditionsLabel(m.Conditions), rewardsLabel(m.Rewards))
	}
	table.Render()
}

func completedCount(missions []domain.Mission, p domain.Profile) int {
	n := 0
	for _, m := range missions {
		if _, ok := p.CompletedMissions[m.ID]; ok {
			n++
		}
	}
	return n
}

func conditionsLabel(conds []domain.MissionWinCondition) string {
	parts := make([]string, 0, len(conds))
	for _, cd := range conds {
		switch cd.Type {
		case domain.ConditionSurvive, domain.ConditionBeatMarket:
			parts = append(parts, string(cd.Type))
		case domain.ConditionMaxDrawdown:
			parts = append(parts, fmt.Sprintf("%s<=%g", cd.Type, cd.Value))
		default:
			parts = append(parts, fmt.Sprintf("%s>=%g", cd.Type, cd.Value))
		}
	}
	return strings.Join(parts, ", ")
}

func rewardsLabel(rewards []domain.MissionReward) string {
	parts := make([]string, 0, len(rewards))
	for _, rw := range rewards {
		switch rw.Type {
		case domain.RewardBadge:
			parts = append(parts, "badge "+rw.ID)
		case domain.RewardCash:
			parts = append(parts, plain(rw.Value))
		default:
			parts = append(parts, fmt.Sprintf("%g xp", rw.Value))
		}
	}
	return strings.Join(parts, ", ")
}

// PrintBacktest imprime cada ejecución del lote y el resumen agregado.
func (c *Console) PrintBacktest(results []domain.SessionResult, failed int) {
	fmt.Fprintf(c.out, "\n══ backtest: %d runs, %d failed ══\n", len(results), failed)
	if len(results) == 0 {
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Trades", "Win rate", "P&L", "P&L%", "Drawdown", "Grade", "")
	var sumPct float64
	profitable, liquidated := 0, 0
	grades := make(map[domain.Grade]int)
	best, worst := results[0].PnLPercent, results[0].PnLPercent
	for i, r := range results {
		flag := ""
		if r.Liquidated {
			flag = "LIQ"
			liquidated++
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", r.TradeCount),
			fmt.Sprintf("%.1f%%", r.WinRate),
			money(r.TotalPnL),
			pct(r.PnLPercent),
			fmt.Sprintf("%.2f%%", r.MaxDrawdown),
			string(r.Grade),
			flag,
		)
		sumPct += r.PnLPercent
		if r.TotalPnL > 0 {
			profitable++
		}
		grades[r.Grade]++
		best = max(best, r.PnLPercent)
		worst = min(worst, r.PnLPercent)
	}
	table.Render()

	var dist []string
	for _, g := range []domain.Grade{domain.GradeS, domain.GradeA, domain.GradeB, domain.GradeC, domain.GradeD, domain.GradeF} {
		dist = append(dist, fmt.Sprintf("%s:%d", g, grades[g]))
	}
	fmt.Fprintf(c.out, "  avg %s | best %s | worst %s | profitable %d/%d | liquidated %d\n",
		pct(sumPct/float64(len(results))), pct(best), pct(worst), profitable, len(results), liquidated)
	fmt.Fprintf(c.out, "  grades %s\n", strings.Join(dist, " "))
}

// printAchievements lista el catálogo; los ocultos bloqueados no revelan nombre.
func (c *Console) printAchievements(p domain.Profile) {
	table := tablewriter.NewWriter(c.out)
	table.Header("", "Achievement", "Category", "Rarity", "XP")
	unlocked := 0
	for _, a := range domain.Catalog() {
		_, ok := p.Unlocked[a.ID]
		name := a.Name
		switch {
		case ok:
			unlocked++
		case a.Hidden:
			name = "???"
		}
		mark := " "
		if ok {
			mark = "★"
		}
		table.Append(mark, name, string(a.Category), string(a.Rarity), fmt.Sprintf("%d", a.XPReward))
	}
	table.Render()
	fmt.Fprintf(c.out, "  %d/%d achievements unlocked\n", unlocked, len(domain.Catalog()))

	var badges []string
	for id := range p.Unlocked {
		if b, ok := strings.CutPrefix(id, "badge:"); ok {
			badges = append(badges, b)
		}
	}
	if len(badges) > 0 {
		sort.Strings(badges)
		fmt.Fprintf(c.out, "  badges: %s\n", strings.Join(badges, ", "))
	}
}

// --- formato ---

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("+$%.2f", v)
}

func plain(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func price(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func pct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

func levelLabel(level int, up bool) string {
	s := fmt.Sprintf("%d %s", level, domain.LevelTitle(level))
	if up {
		s += " (level up!)"
	}
	return s
}

func categoryTag(a domain.AchievementDefinition) string {
	if a.Hidden {
		return "secret"
	}
	return string(a.Category)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
