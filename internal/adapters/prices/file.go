// Package prices provee series de velas: ficheros JSON y un generador
// sintético con semilla para dry runs.
package prices

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/alejandrodnm/tradequest/internal/domain"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// candleJSON acepta OHLC null: esas velas se descartan al cargar.
type candleJSON struct {
	Time   int64    `json:"time"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *int64   `json:"volume,omitempty"`
}

type seriesJSON struct {
	Symbol  string       `json:"symbol"`
	Candles []candleJSON `json:"candles"`
}

// FileProvider carga una serie desde un fichero JSON. Acepta un objeto
// {"symbol": ..., "candles": [...]} o directamente el array de velas.
type FileProvider struct {
	path string
}

// NewFileProvider crea un provider para path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// FetchSeries lee el fichero, descarta velas con OHLC null, ordena por tiempo
// y valida el resultado. symbol se usa si el fichero no trae uno.
func (p *FileProvider) FetchSeries(_ context.Context, symbol string) (domain.PriceSeries, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("prices.FetchSeries: read %q: %w", p.path, err)
	}
	ps, err := ParseSeries(data)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("prices.FetchSeries: %s: %w", p.path, err)
	}
	if ps.Symbol == "" {
		ps.Symbol = symbol
	}
	return ps, nil
}

// ParseSeries decodifica y valida una serie JSON.
func ParseSeries(data []byte) (domain.PriceSeries, error) {
	var doc seriesJSON
	if json.Get(data).ValueType() == jsoniter.ArrayValue {
		if err := json.Unmarshal(data, &doc.Candles); err != nil {
			return domain.PriceSeries{}, fmt.Errorf("decode candles: %w", err)
		}
	} else if err := json.Unmarshal(data, &doc); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("decode series: %w", err)
	}

	ps := domain.PriceSeries{Symbol: doc.Symbol}
	for _, c := range doc.Candles {
		if c.Open == nil || c.High == nil || c.Low == nil || c.Close == nil {
			continue
		}
		ps.Candles = append(ps.Candles, domain.Candle{
			Time:   c.Time,
			Open:   *c.Open,
			High:   *c.High,
			Low:    *c.Low,
			Close:  *c.Close,
			Volume: c.Volume,
		})
	}
	sort.SliceStable(ps.Candles, func(i, j int) bool { return ps.Candles[i].Time < ps.Candles[j].Time })

	if err := ps.Validate(); err != nil {
		return domain.PriceSeries{}, err
	}
	return ps, nil
}

// MarshalSeries codifica una serie en el formato objeto que lee ParseSeries.
func MarshalSeries(ps domain.PriceSeries) ([]byte, error) {
	doc := seriesJSON{Symbol: ps.Symbol, Candles: make([]candleJSON, 0, len(ps.Candles))}
	for _, c := range ps.Candles {
		doc.Candles = append(doc.Candles, candleJSON{
			Time: c.Time, Open: &c.Open, High: &c.High, Low: &c.Low, Close: &c.Close, Volume: c.Volume,
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}
