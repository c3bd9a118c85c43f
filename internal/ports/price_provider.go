package ports

import (
	"context"

	"github.com/alejandrodnm/tradequest/internal/domain"
)

// PriceProvider obtiene la serie de velas que se va a jugar.
type PriceProvider interface {
	// FetchSeries devuelve una serie ya validada (ver domain.PriceSeries.Validate).
	FetchSeries(ctx context.Context, symbol string) (domain.PriceSeries, error)
}

// MissionProvider expone el catálogo de misiones.
type MissionProvider interface {
	Missions(ctx context.Context) ([]domain.Mission, error)
	Mission(ctx context.Context, id string) (domain.Mission, error)
}
