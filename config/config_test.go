package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/tradequest/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.Session.StartingBalance)
	assert.Equal(t, 1, cfg.Session.DefaultLeverage)
	assert.Equal(t, 50, cfg.Session.MinPlayableCandles)
	assert.Equal(t, time.Second, cfg.BaseInterval())
	assert.Equal(t, 1.0, cfg.Replay.Speed)
	assert.Equal(t, "BTCUSD", cfg.Data.Symbol)
	assert.Equal(t, 300, cfg.Data.SyntheticCandles)
	assert.Equal(t, "config/missions.yaml", cfg.Data.MissionsPath)
	assert.Equal(t, "tradequest.db", cfg.Storage.DSN)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
session:
  starting_balance: 2500
  default_leverage: 5
  seed: 42
replay:
  base_interval_ms: 250
  speed: 2
data:
  candles_path: data/btc.json
  symbol: ETHUSD
storage:
  dsn: ":memory:"
metrics:
  addr: ":9100"
log:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, 2500.0, cfg.Session.StartingBalance)
	assert.Equal(t, 5, cfg.Session.DefaultLeverage)
	assert.Equal(t, uint64(42), cfg.Session.Seed)
	assert.Equal(t, 250*time.Millisecond, cfg.BaseInterval())
	assert.Equal(t, 2.0, cfg.Replay.Speed)
	assert.Equal(t, "data/btc.json", cfg.Data.CandlesPath)
	assert.Equal(t, "ETHUSD", cfg.Data.Symbol)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("TRAINER_DB", "/tmp/override.db")
	t.Setenv("TRAINER_SEED", "7")

	cfg, err := config.Load(writeConfig(t, "log:\n  level: debug\nstorage:\n  dsn: file.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/override.db", cfg.Storage.DSN)
	assert.Equal(t, uint64(7), cfg.Session.Seed)
}

func TestLoad_BadSeed(t *testing.T) {
	t.Setenv("TRAINER_SEED", "not-a-number")
	_, err := config.Load(writeConfig(t, "{}\n"))
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 10000.0, cfg.Session.StartingBalance)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "session: [not, a, map]\n"))
	assert.Error(t, err)
}

func TestShippedFiles(t *testing.T) {
	cfg, err := config.Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "config/missions.yaml", cfg.Data.MissionsPath)
}
