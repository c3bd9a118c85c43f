// Package game orquesta una partida: enruta los eventos de la sesión hacia la
// progresión persistente, los logros, la evaluación de misiones, el histórico
// y los notifiers.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/tradequest/internal/application/session"
	"github.com/alejandrodnm/tradequest/internal/domain"
	"github.com/alejandrodnm/tradequest/internal/ports"
)

// badgePrefix marca los badges de misión dentro del set de desbloqueados.
const badgePrefix = "badge:"

// Config contiene la configuración del servicio.
type Config struct {
	StartingBalance    float64
	Leverage           domain.Leverage
	MinPlayableCandles int
	Seed               uint64           // semilla del índice de inicio aleatorio
	Clock              func() time.Time // nil → time.Now
	NewID              func() string    // nil → uuid (lo decide session)
}

// Service es el dueño del perfil en memoria. Es seguro para uso concurrente;
// cada Play no lo es.
type Service struct {
	cfg       Config
	store     ports.ProgressStore
	history   ports.SessionHistory
	notifiers []ports.Notifier
	rand      *rand.Rand

	mu      sync.Mutex
	profile domain.Profile
	loaded  bool
}

// New crea un Service con todas las dependencias inyectadas.
// history puede ser nil (sin histórico).
func New(cfg Config, store ports.ProgressStore, history ports.SessionHistory, notifiers ...ports.Notifier) *Service {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		cfg:       cfg,
		store:     store,
		history:   history,
		notifiers: notifiers,
		rand:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// Play es una partida en curso: la sesión más lo que el servicio acumula de ella.
type Play struct {
	Session       *session.Session
	Mission       *domain.Mission
	Unlocked      []domain.Unlock
	MissionResult *domain.MissionResult

	svc        *Service
	startLevel int
	nightTrade bool // algún trade se cerró de madrugada
}

// Dispatch aplica a en esta partida a través de su servicio.
func (p *Play) Dispatch(ctx context.Context, a session.Action) ([]session.Event, error) {
	return p.svc.Dispatch(ctx, p, a)
}

// State devuelve una copia del estado de la sesión.
func (p *Play) State() session.State {
	return p.Session.State()
}

// StartAction devuelve la acción Start de la partida: el índice de la misión
// si lo fija, si no uno aleatorio.
func (p *Play) StartAction() session.Start {
	if p.Mission != nil && p.Mission.StartIndex != nil {
		idx := *p.Mission.StartIndex
		return session.Start{StartIndex: &idx}
	}
	return session.Start{}
}

// Profile devuelve una copia del perfil, cargándolo del store la primera vez.
func (s *Service) Profile(ctx context.Context) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Profile{}, err
	}
	return domain.ProfileUpdate{}.Apply(s.profile), nil
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	p, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("game.Profile: load: %w", err)
	}
	if p.Unlocked == nil || p.CompletedMissions == nil {
		p = domain.ProfileUpdate{}.Apply(p)
	}
	if p.Level < 1 {
		p.Level = domain.LevelForXP(p.XP)
	}
	s.profile = p
	s.loaded = true
	return nil
}

// NewPlay prepara una partida idle sobre series. Con mission != nil la
// partida es de modo carrera y su balance inicial, si lo tiene, manda.
func (s *Service) NewPlay(ctx context.Context, series domain.PriceSeries, mission *domain.Mission) (*Play, error) {
	if mission != nil {
		if err := mission.Validate(); err != nil {
			return nil, fmt.Errorf("game.NewPlay: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	balance := s.cfg.StartingBalance
	if mission != nil && mission.StartingBalance > 0 {
		balance = mission.StartingBalance
	}
	sess, err := session.New(series, session.Config{
		StartingBalance:    balance,
		Leverage:           s.cfg.Leverage,
		MinPlayableCandles: s.cfg.MinPlayableCandles,
		PriorXP:            s.profile.XP,
		Rand:               s.rand,
		Clock:              s.cfg.Clock,
		NewID:              s.cfg.NewID,
	})
	if err != nil {
		return nil, fmt.Errorf("game.NewPlay: %w", err)
	}

	st := sess.State()
	slog.Info("session created",
		"session", st.SessionID,
		"symbol", series.Symbol,
		"candles", series.Len(),
		"balance", balance,
		"mission", missionID(mission),
	)
	return &Play{
		Session:    sess,
		Mission:    mission,
		svc:        s,
		startLevel: domain.LevelForXP(s.profile.XP),
	}, nil
}

// Dispatch aplica la acción a la sesión de p y procesa sus eventos.
// Los errores de la sesión se devuelven tal cual; los de persistencia de
// progresión también, pero los eventos ya aplicados no se deshacen.
func (s *Service) Dispatch(ctx context.Context, p *Play, a session.Action) ([]session.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := p.Session.Apply(a)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		switch ev := ev.(type) {
		case session.TradeClosed:
			if err := s.onTradeClosed(ctx, p, ev); err != nil {
				return events, err
			}
		case session.Ended:
			if err := s.onEnded(ctx, p, ev); err != nil {
				return events, err
			}
		case session.Started:
			slog.Info("session started", "session", p.Session.State().SessionID, "start_index", ev.StartIndex)
		}
	}
	return events, nil
}

func (s *Service) onTradeClosed(ctx context.Context, p *Play, ev session.TradeClosed) error {
	t := ev.Trade
	slog.Debug("trade closed",
		"side", t.Side,
		"entry", t.EntryPrice,
		"exit", t.ExitPrice,
		"pnl", t.PnL,
		"pnl_pct", t.PnLPercent,
		"xp", ev.XP,
		"streak", ev.Streak,
		"liquidated", t.Liquidated,
	)

	if isNight(s.cfg.Clock()) {
		p.nightTrade = true
	}

	s.profile.XP += ev.XP
	s.profile.TotalTrades++
	if t.IsWin() {
		s.profile.TotalWins++
	}
	s.profile.TotalProfit += t.PnL
	s.profile.AllTimeMaxStreak = max(s.profile.AllTimeMaxStreak, ev.Streak)
	if t.Liquidated {
		s.profile.Liquidations++
	}

	unlocks := s.unlock(p, false)
	if err := s.persist(ctx); err != nil {
		return err
	}

	s.notify(ctx, "trade_closed", func(n ports.Notifier) error {
		return n.TradeClosed(ctx, t, ev.XP, ev.Streak)
	})
	s.notifyUnlocks(ctx, unlocks)
	return nil
}

func (s *Service) onEnded(ctx context.Context, p *Play, ev session.Ended) error {
	st := p.Session.State()
	res := ev.Result
	s.profile.TotalSessions++

	var badges []string
	if p.Mission != nil {
		mr := domain.EvaluateMission(*p.Mission, snapshot(st, p.Session.Series()))
		p.MissionResult = &mr
		slog.Info("mission evaluated",
			"mission", p.Mission.ID,
			"passed", mr.AllConditionsMet,
			"grade", mr.Grade,
			"score", mr.Score,
		)
		// las recompensas se cobran solo la primera vez que se completa
		_, done := s.profile.CompletedMissions[p.Mission.ID]
		if mr.AllConditionsMet && !done {
			for _, r := range mr.Rewards {
				switch r.Type {
				case domain.RewardXP:
					s.profile.XP += int(r.Value)
				case domain.RewardBadge:
					if r.ID != "" {
						badges = append(badges, badgePrefix+r.ID)
					}
				}
			}
			s.profile.CompletedMissions[p.Mission.ID] = s.cfg.Clock()
		}
	}
	for _, b := range badges {
		if _, ok := s.profile.Unlocked[b]; !ok {
			s.profile.Unlocked[b] = s.cfg.Clock()
		}
	}

	unlocks := s.unlock(p, true)
	if err := s.persist(ctx); err != nil {
		return err
	}

	// nivel y XP total a nivel de perfil: incluyen recompensas de logros y misión
	res.TotalXP = s.profile.XP
	res.NewLevel = s.profile.Level
	res.LeveledUp = s.profile.Level > p.startLevel

	slog.Info("session ended",
		"session", res.SessionID,
		"reason", ev.Reason,
		"trades", res.TradeCount,
		"pnl", res.TotalPnL,
		"grade", res.Grade,
		"xp", res.XPEarned,
		"level", res.NewLevel,
	)

	if s.history != nil {
		if err := s.history.SaveSession(ctx, res, st.Trades); err != nil {
			slog.Warn("history write failed", "session", res.SessionID, "err", err)
		}
	}

	s.notify(ctx, "session_ended", func(n ports.Notifier) error {
		return n.SessionEnded(ctx, res, st.Trades)
	})
	if p.Mission != nil {
		s.notify(ctx, "mission_evaluated", func(n ports.Notifier) error {
			return n.MissionEvaluated(ctx, *p.Mission, *p.MissionResult)
		})
	}
	s.notifyUnlocks(ctx, unlocks)
	return nil
}

// unlock evalúa los logros contra el estado actual, los marca en el perfil y
// suma su XP.
func (s *Service) unlock(p *Play, ended bool) []domain.Unlock {
	s.profile.Level = domain.LevelForXP(s.profile.XP)
	stats := buildStats(s.profile, p.Session.State(), ended, p.Mission != nil, p.nightTrade)
	unlocks := domain.EvaluateAchievements(stats, s.profile.UnlockedSet())
	if len(unlocks) == 0 {
		return nil
	}

	now := s.cfg.Clock()
	for _, u := range unlocks {
		s.profile.Unlocked[u.Achievement.ID] = now
		s.profile.XP += u.XPReward
		slog.Info("achievement unlocked", "id", u.Achievement.ID, "xp", u.XPReward)
	}
	s.profile.Level = domain.LevelForXP(s.profile.XP)
	p.Unlocked = append(p.Unlocked, unlocks...)
	return unlocks
}

// persist guarda los contadores completos y los sets completos de logros y
// misiones: un Save fallido se recupera en el siguiente.
func (s *Service) persist(ctx context.Context) error {
	s.profile.Level = domain.LevelForXP(s.profile.XP)
	now := s.cfg.Clock()
	s.profile.UpdatedAt = now

	p := s.profile
	update := domain.ProfileUpdate{
		XP:               &p.XP,
		Level:            &p.Level,
		TotalTrades:      &p.TotalTrades,
		TotalWins:        &p.TotalWins,
		TotalSessions:    &p.TotalSessions,
		TotalProfit:      &p.TotalProfit,
		AllTimeMaxStreak: &p.AllTimeMaxStreak,
		Liquidations:     &p.Liquidations,
		AddUnlocked:      sortedKeys(p.Unlocked),
		AddMissions:      sortedKeys(p.CompletedMissions),
		At:               now,
	}
	if err := s.store.Save(ctx, update); err != nil {
		return fmt.Errorf("game.persist: %w", err)
	}
	return nil
}

func (s *Service) notifyUnlocks(ctx context.Context, unlocks []domain.Unlock) {
	if len(unlocks) == 0 {
		return
	}
	s.notify(ctx, "achievements_unlocked", func(n ports.Notifier) error {
		return n.AchievementsUnlocked(ctx, unlocks)
	})
}

// notify llama a todos los notifiers; un error solo se loguea.
func (s *Service) notify(ctx context.Context, what string, fn func(ports.Notifier) error) {
	for _, n := range s.notifiers {
		if ctx.Err() != nil {
			return
		}
		if err := fn(n); err != nil {
			slog.Warn("notifier error", "event", what, "err", err)
		}
	}
}

// RecentSessions devuelve el histórico reciente, vacío si no hay histórico.
func (s *Service) RecentSessions(ctx context.Context, limit int) ([]domain.SessionResult, error) {
	if s.history == nil {
		return nil, nil
	}
	out, err := s.history.RecentSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("game.RecentSessions: %w", err)
	}
	return out, nil
}

func sortedKeys(m map[string]time.Time) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func missionID(m *domain.Mission) string {
	if m == nil {
		return ""
	}
	return m.ID
}
