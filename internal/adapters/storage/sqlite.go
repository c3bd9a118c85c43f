package storage

// sqlite.go: perfil de progresión e histórico de sesiones.
//
// Estrategia:
//   - `profile`: una sola fila (id = 1) con los contadores acumulados.
//   - `unlocked_achievements` / `completed_missions`: una fila por ID, solo INSERT
//     OR IGNORE, así la primera fecha de desbloqueo nunca se pisa.
//   - `sessions` + `trades`: una fila por sesión terminada y una por trade.
//   - Dinero (balances, P&L) como TEXT decimal a escala fija (shopspring/decimal).
//   - Cache en memoria del perfil: Load no toca disco tras la primera lectura.
//   - Prune al arrancar: solo se conservan las últimas maxSessions sesiones.

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/tradequest/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS profile (
    id                  INTEGER PRIMARY KEY CHECK (id = 1),
    xp                  INTEGER NOT NULL DEFAULT 0,
    level               INTEGER NOT NULL DEFAULT 1,
    total_trades        INTEGER NOT NULL DEFAULT 0,
    total_wins          INTEGER NOT NULL DEFAULT 0,
    total_sessions      INTEGER NOT NULL DEFAULT 0,
    total_profit        TEXT    NOT NULL DEFAULT '0',
    all_time_max_streak INTEGER NOT NULL DEFAULT 0,
    liquidations        INTEGER NOT NULL DEFAULT 0,
    updated_at          TEXT
);

CREATE TABLE IF NOT EXISTS unlocked_achievements (
    achievement_id TEXT PRIMARY KEY,
    unlocked_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS completed_missions (
    mission_id   TEXT PRIMARY KEY,
    completed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    session_id       TEXT PRIMARY KEY,
    symbol           TEXT    NOT NULL,
    trade_count      INTEGER NOT NULL DEFAULT 0,
    win_count        INTEGER NOT NULL DEFAULT 0,
    loss_count       INTEGER NOT NULL DEFAULT 0,
    win_rate         REAL    NOT NULL DEFAULT 0,
    total_pnl        TEXT    NOT NULL DEFAULT '0',
    pnl_percent      REAL    NOT NULL DEFAULT 0,
    starting_balance TEXT    NOT NULL DEFAULT '0',
    final_balance    TEXT    NOT NULL DEFAULT '0',
    max_streak       INTEGER NOT NULL DEFAULT 0,
    max_drawdown     REAL    NOT NULL DEFAULT 0,
    grade            TEXT    NOT NULL,
    xp_earned        INTEGER NOT NULL DEFAULT 0,
    total_xp         INTEGER NOT NULL DEFAULT 0,
    new_level        INTEGER NOT NULL DEFAULT 1,
    leveled_up       INTEGER NOT NULL DEFAULT 0,
    liquidated       INTEGER NOT NULL DEFAULT 0,
    candles_played   INTEGER NOT NULL DEFAULT 0,
    ended_at         TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    id          TEXT PRIMARY KEY,
    session_id  TEXT    NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
    side        TEXT    NOT NULL,
    entry_price REAL    NOT NULL,
    exit_price  REAL    NOT NULL,
    quantity    REAL    NOT NULL,
    leverage    INTEGER NOT NULL,
    pnl         TEXT    NOT NULL,
    pnl_percent REAL    NOT NULL,
    entry_time  INTEGER NOT NULL,
    exit_time   INTEGER NOT NULL,
    entry_index INTEGER NOT NULL,
    exit_index  INTEGER NOT NULL,
    liquidated  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_ended ON sessions(ended_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id);
`

const (
	maxSessions = 1000 // histórico: últimas N sesiones
	moneyScale  = 8    // decimales guardados en columnas de dinero
)

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db    *sql.DB
	mu    sync.Mutex
	cache *domain.Profile // nil hasta la primera lectura
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia histórico antiguo.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// Load devuelve el perfil. Sin fila guardada devuelve domain.NewProfile().
func (s *SQLiteStorage) Load(ctx context.Context) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil {
		return domain.ProfileUpdate{}.Apply(*s.cache), nil
	}

	p, err := s.loadProfile(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	s.cache = &p
	return domain.ProfileUpdate{}.Apply(p), nil
}

func (s *SQLiteStorage) loadProfile(ctx context.Context) (domain.Profile, error) {
	p := domain.NewProfile()

	var profit string
	var updatedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT xp, level, total_trades, total_wins, total_sessions, total_profit,
		       all_time_max_streak, liquidations, updated_at
		FROM profile WHERE id = 1
	`).Scan(&p.XP, &p.Level, &p.TotalTrades, &p.TotalWins, &p.TotalSessions, &profit,
		&p.AllTimeMaxStreak, &p.Liquidations, &updatedAt)
	switch {
	case err == sql.ErrNoRows:
		// perfil nuevo; puede haber logros sueltos igualmente
	case err != nil:
		return domain.Profile{}, fmt.Errorf("storage.Load: profile: %w", err)
	default:
		if p.TotalProfit, err = parseMoney(profit); err != nil {
			return domain.Profile{}, fmt.Errorf("storage.Load: total_profit: %w", err)
		}
		if updatedAt.Valid {
			p.UpdatedAt = parseTime(updatedAt.String)
		}
	}

	if err := s.loadSet(ctx, `SELECT achievement_id, unlocked_at FROM unlocked_achievements`, p.Unlocked); err != nil {
		return domain.Profile{}, fmt.Errorf("storage.Load: achievements: %w", err)
	}
	if err := s.loadSet(ctx, `SELECT mission_id, completed_at FROM completed_missions`, p.CompletedMissions); err != nil {
		return domain.Profile{}, fmt.Errorf("storage.Load: missions: %w", err)
	}
	return p, nil
}

func (s *SQLiteStorage) loadSet(ctx context.Context, query string, into map[string]time.Time) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, at string
		if err := rows.Scan(&id, &at); err != nil {
			return err
		}
		into[id] = parseTime(at)
	}
	return rows.Err()
}

// Save aplica un update parcial dentro de una transacción. Los campos nil
// conservan el valor guardado.
func (s *SQLiteStorage) Save(ctx context.Context, u domain.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.cache
	if cur == nil {
		p, err := s.loadProfile(ctx)
		if err != nil {
			return fmt.Errorf("storage.Save: %w", err)
		}
		cur = &p
	}
	next := u.Apply(*cur)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Save: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profile
			(id, xp, level, total_trades, total_wins, total_sessions, total_profit,
			 all_time_max_streak, liquidations, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			xp                  = excluded.xp,
			level               = excluded.level,
			total_trades        = excluded.total_trades,
			total_wins          = excluded.total_wins,
			total_sessions      = excluded.total_sessions,
			total_profit        = excluded.total_profit,
			all_time_max_streak = excluded.all_time_max_streak,
			liquidations        = excluded.liquidations,
			updated_at          = excluded.updated_at
	`,
		next.XP, next.Level, next.TotalTrades, next.TotalWins, next.TotalSessions,
		formatMoney(next.TotalProfit), next.AllTimeMaxStreak, next.Liquidations,
		formatTime(next.UpdatedAt),
	); err != nil {
		return fmt.Errorf("storage.Save: upsert profile: %w", err)
	}

	for _, id := range u.AddUnlocked {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO unlocked_achievements (achievement_id, unlocked_at) VALUES (?, ?)`,
			id, formatTime(next.Unlocked[id]),
		); err != nil {
			return fmt.Errorf("storage.Save: unlock %s: %w", id, err)
		}
	}
	for _, id := range u.AddMissions {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO completed_missions (mission_id, completed_at) VALUES (?, ?)`,
			id, formatTime(next.CompletedMissions[id]),
		); err != nil {
			return fmt.Errorf("storage.Save: mission %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.Save: commit: %w", err)
	}
	s.cache = &next
	return nil
}

// SaveSession persiste el resultado y sus trades en una transacción.
// Guardar dos veces la misma sesión la reemplaza.
func (s *SQLiteStorage) SaveSession(ctx context.Context, r domain.SessionResult, trades []domain.CompletedTrade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveSession: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM trades WHERE session_id = ?`,
		`DELETE FROM sessions WHERE session_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, r.SessionID); err != nil {
			return fmt.Errorf("storage.SaveSession: replace %s: %w", r.SessionID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions
			(session_id, symbol, trade_count, win_count, loss_count, win_rate,
			 total_pnl, pnl_percent, starting_balance, final_balance, max_streak,
			 max_drawdown, grade, xp_earned, total_xp, new_level, leveled_up,
			 liquidated, candles_played, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.SessionID, r.Symbol, r.TradeCount, r.WinCount, r.LossCount, r.WinRate,
		formatMoney(r.TotalPnL), r.PnLPercent, formatMoney(r.StartingBalance), formatMoney(r.FinalBalance),
		r.MaxStreak, r.MaxDrawdown, string(r.Grade), r.XPEarned, r.TotalXP, r.NewLevel,
		boolInt(r.LeveledUp), boolInt(r.Liquidated), r.CandlesPlayed, formatTime(r.EndedAt),
	); err != nil {
		return fmt.Errorf("storage.SaveSession: insert %s: %w", r.SessionID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
			(id, session_id, side, entry_price, exit_price, quantity, leverage,
			 pnl, pnl_percent, entry_time, exit_time, entry_index, exit_index, liquidated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveSession: prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.ExecContext(ctx,
			t.ID, r.SessionID, string(t.Side), t.EntryPrice, t.ExitPrice, t.Quantity, int(t.Leverage),
			formatMoney(t.PnL), t.PnLPercent, t.EntryTime, t.ExitTime, t.EntryIndex, t.ExitIndex,
			boolInt(t.Liquidated),
		); err != nil {
			return fmt.Errorf("storage.SaveSession: trade %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveSession: commit: %w", err)
	}
	return nil
}

// RecentSessions devuelve las últimas limit sesiones, la más reciente primero.
func (s *SQLiteStorage) RecentSessions(ctx context.Context, limit int) ([]domain.SessionResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, symbol, trade_count, win_count, loss_count, win_rate,
		       total_pnl, pnl_percent, starting_balance, final_balance, max_streak,
		       max_drawdown, grade, xp_earned, total_xp, new_level, leveled_up,
		       liquidated, candles_played, ended_at
		FROM sessions
		ORDER BY ended_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentSessions: query: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionResult
	for rows.Next() {
		var r domain.SessionResult
		var pnl, start, final, grade, endedAt string
		var leveledUp, liquidated int
		if err := rows.Scan(
			&r.SessionID, &r.Symbol, &r.TradeCount, &r.WinCount, &r.LossCount, &r.WinRate,
			&pnl, &r.PnLPercent, &start, &final, &r.MaxStreak,
			&r.MaxDrawdown, &grade, &r.XPEarned, &r.TotalXP, &r.NewLevel, &leveledUp,
			&liquidated, &r.CandlesPlayed, &endedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.RecentSessions: scan row: %w", err)
		}
		if r.TotalPnL, err = parseMoney(pnl); err != nil {
			return nil, fmt.Errorf("storage.RecentSessions: total_pnl: %w", err)
		}
		if r.StartingBalance, err = parseMoney(start); err != nil {
			return nil, fmt.Errorf("storage.RecentSessions: starting_balance: %w", err)
		}
		if r.FinalBalance, err = parseMoney(final); err != nil {
			return nil, fmt.Errorf("storage.RecentSessions: final_balance: %w", err)
		}
		r.Grade = domain.Grade(grade)
		r.LeveledUp = leveledUp == 1
		r.Liquidated = liquidated == 1
		r.EndedAt = parseTime(endedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SessionTrades devuelve los trades de una sesión en orden de cierre.
func (s *SQLiteStorage) SessionTrades(ctx context.Context, sessionID string) ([]domain.CompletedTrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, side, entry_price, exit_price, quantity, leverage, pnl, pnl_percent,
		       entry_time, exit_time, entry_index, exit_index, liquidated
		FROM trades WHERE session_id = ?
		ORDER BY exit_index, rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("storage.SessionTrades: query: %w", err)
	}
	defer rows.Close()

	var out []domain.CompletedTrade
	for rows.Next() {
		var t domain.CompletedTrade
		var side, pnl string
		var lev, liquidated int
		if err := rows.Scan(&t.ID, &side, &t.EntryPrice, &t.ExitPrice, &t.Quantity, &lev, &pnl,
			&t.PnLPercent, &t.EntryTime, &t.ExitTime, &t.EntryIndex, &t.ExitIndex, &liquidated); err != nil {
			return nil, fmt.Errorf("storage.SessionTrades: scan row: %w", err)
		}
		if t.PnL, err = parseMoney(pnl); err != nil {
			return nil, fmt.Errorf("storage.SessionTrades: pnl: %w", err)
		}
		t.Side = domain.Side(side)
		t.Leverage = domain.Leverage(lev)
		t.Liquidated = liquidated == 1
		out = append(out, t)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina las sesiones (y sus trades) más allá de las últimas maxSessions.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE session_id NOT IN (
			SELECT session_id FROM sessions ORDER BY ended_at DESC LIMIT ?
		)`, maxSessions)
	s.db.ExecContext(ctx, `DELETE FROM trades WHERE session_id NOT IN (SELECT session_id FROM sessions)`)
}

func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(moneyScale)
}

func parseMoney(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// timeLayout es de ancho fijo: el orden de texto coincide con el temporal.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse("2006-01-02 15:04:05", s)
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
