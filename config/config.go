package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del trainer.
type Config struct {
	Session SessionConfig `yaml:"session"`
	Replay  ReplayConfig  `yaml:"replay"`
	Data    DataConfig    `yaml:"data"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// SessionConfig controla los parámetros de cada partida.
type SessionConfig struct {
	StartingBalance    float64 `yaml:"starting_balance"`
	DefaultLeverage    int     `yaml:"default_leverage"`     // 1 | 2 | 4 | 10
	MinPlayableCandles int     `yaml:"min_playable_candles"` // velas mínimas tras el punto de inicio aleatorio
	Seed               uint64  `yaml:"seed"`                 // 0 → semilla derivada del reloj
}

// ReplayConfig controla el ritmo de los ticks.
type ReplayConfig struct {
	BaseIntervalMS int     `yaml:"base_interval_ms"` // intervalo a speed 1
	Speed          float64 `yaml:"speed"`
}

// DataConfig indica de dónde salen las velas.
type DataConfig struct {
	CandlesPath      string `yaml:"candles_path"` // vacío → serie sintética
	Symbol           string `yaml:"symbol"`
	SyntheticCandles int    `yaml:"synthetic_candles"`
	MissionsPath     string `yaml:"missions_path"`
}

// StorageConfig controla dónde se persiste el progreso.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// MetricsConfig controla el endpoint Prometheus.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // vacío → deshabilitado
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un path vacío devuelve los defaults con los overrides de entorno aplicados.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// BaseInterval devuelve el intervalo entre ticks a speed 1.
func (c *Config) BaseInterval() time.Duration {
	return time.Duration(c.Replay.BaseIntervalMS) * time.Millisecond
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TRAINER_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("TRAINER_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TRAINER_SEED %q: %w", v, err)
		}
		cfg.Session.Seed = seed
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Session.StartingBalance <= 0 {
		cfg.Session.StartingBalance = 10000
	}
	if cfg.Session.DefaultLeverage <= 0 {
		cfg.Session.DefaultLeverage = 1
	}
	if cfg.Session.MinPlayableCandles <= 0 {
		cfg.Session.MinPlayableCandles = 50
	}
	if cfg.Replay.BaseIntervalMS <= 0 {
		cfg.Replay.BaseIntervalMS = 1000
	}
	if cfg.Replay.Speed <= 0 {
		cfg.Replay.Speed = 1
	}
	if cfg.Data.Symbol == "" {
		cfg.Data.Symbol = "BTCUSD"
	}
	if cfg.Data.SyntheticCandles <= 0 {
		cfg.Data.SyntheticCandles = 300
	}
	if cfg.Data.MissionsPath == "" {
		cfg.Data.MissionsPath = "config/missions.yaml"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "tradequest.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
