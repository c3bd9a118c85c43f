package ports

import (
	"context"

	"github.com/alejandrodnm/tradequest/internal/domain"
)

// Notifier presenta al jugador lo que va pasando en la partida.
// Los errores de un notifier nunca abortan la sesión.
type Notifier interface {
	// TradeClosed se llama en cada cierre, incluidos parciales y liquidaciones.
	TradeClosed(ctx context.Context, trade domain.CompletedTrade, xp, streak int) error

	// AchievementsUnlocked recibe solo logros nuevos, nunca repetidos.
	AchievementsUnlocked(ctx context.Context, unlocks []domain.Unlock) error

	// SessionEnded recibe el resultado final y los trades de la sesión.
	SessionEnded(ctx context.Context, result domain.SessionResult, trades []domain.CompletedTrade) error

	// MissionEvaluated recibe la evaluación de la misión jugada, si la hay.
	MissionEvaluated(ctx context.Context, mission domain.Mission, result domain.MissionResult) error
}
