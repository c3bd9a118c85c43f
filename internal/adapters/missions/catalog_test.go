package missions_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/tradequest/internal/adapters/missions"
	"github.com/alejandrodnm/tradequest/internal/domain"
	"github.com/alejandrodnm/tradequest/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.MissionProvider = (*missions.Catalog)(nil)

const catalogYAML = `
missions:
  - id: first_profit
    title: First Profit
    description: Finish in the green and stay solvent
    symbol: BTCUSD
    starting_balance: 5000
    start_index: 10
    conditions:
      - {type: profit_target, value: 250}
      - {type: survive, value: 1}
    rewards:
      - {type: xp, value: 200}
      - {type: badge, id: green_thumb}
  - id: steady_hands
    title: Steady Hands
    conditions:
      - {type: max_drawdown, value: 5}
      - {type: trades_count, value: 5}
`

func TestParse(t *testing.T) {
	c, err := missions.Parse([]byte(catalogYAML))
	require.NoError(t, err)

	all, err := c.Missions(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first_profit", all[0].ID)

	m, err := c.Mission(context.Background(), "first_profit")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, m.StartingBalance)
	require.NotNil(t, m.StartIndex)
	assert.Equal(t, 10, *m.StartIndex)
	assert.Equal(t, domain.MissionWinCondition{Type: domain.ConditionProfitTarget, Value: 250}, m.Conditions[0])
	assert.Equal(t, domain.MissionReward{Type: domain.RewardBadge, ID: "green_thumb"}, m.Rewards[1])

	m, err = c.Mission(context.Background(), "steady_hands")
	require.NoError(t, err)
	assert.Nil(t, m.StartIndex)
	assert.Empty(t, m.Rewards)

	_, err = c.Mission(context.Background(), "nope")
	assert.ErrorIs(t, err, missions.ErrNotFound)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown condition": `
missions:
  - id: a
    conditions: [{type: moon, value: 1}]`,
		"no conditions": `
missions:
  - id: a`,
		"duplicate id": `
missions:
  - id: a
    conditions: [{type: survive}]
  - id: a
    conditions: [{type: survive}]`,
		"bad reward": `
missions:
  - id: a
    conditions: [{type: survive}]
    rewards: [{type: gold, value: 1}]`,
		"badge without id": `
missions:
  - id: a
    conditions: [{type: survive}]
    rewards: [{type: badge}]`,
		"not yaml": `missions: [`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := missions.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := missions.Parse([]byte(cases["unknown condition"]))
	assert.ErrorIs(t, err, domain.ErrUnknownCondition)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	c, err := missions.Load(path)
	require.NoError(t, err)
	all, _ := c.Missions(context.Background())
	assert.Len(t, all, 2)

	_, err = missions.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ShippedCatalog(t *testing.T) {
	c, err := missions.Load(filepath.Join("..", "..", "..", "config", "missions.yaml"))
	require.NoError(t, err)

	all, err := c.Missions(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, all)
	for _, m := range all {
		assert.NoError(t, m.Validate(), m.ID)
	}
}
