package ports

import (
	"context"

	"github.com/alejandrodnm/tradequest/internal/domain"
)

// ProgressStore persiste el perfil de progresión entre sesiones.
type ProgressStore interface {
	// Load devuelve el perfil actual; un store vacío devuelve domain.NewProfile().
	Load(ctx context.Context) (domain.Profile, error)

	// Save aplica un update parcial: los campos nil no se tocan y los IDs de
	// logros y misiones se añaden a los existentes.
	Save(ctx context.Context, update domain.ProfileUpdate) error
}

// SessionHistory guarda el histórico de sesiones terminadas.
type SessionHistory interface {
	// SaveSession persiste el resultado de una sesión con todos sus trades.
	SaveSession(ctx context.Context, result domain.SessionResult, trades []domain.CompletedTrade) error

	// RecentSessions devuelve las últimas limit sesiones, la más reciente primero.
	RecentSessions(ctx context.Context, limit int) ([]domain.SessionResult, error)
}

// Storage es lo que implementan los adapters de storage.
type Storage interface {
	ProgressStore
	SessionHistory

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
