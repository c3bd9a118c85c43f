package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateMission_ProfitAndSurvive(t *testing.T) {
	m := Mission{
		ID: "m1",
		Conditions: []MissionWinCondition{
			{Type: ConditionProfitTarget, Value: 500},
			{Type: ConditionSurvive},
		},
		Rewards: []MissionReward{{Type: RewardXP, Value: 300}},
	}
	snap := MissionSnapshot{TotalPnL: 600, StartingBalance: 1000, Balance: 200, WinCount: 1}

	res := EvaluateMission(m, snap)
	assert.True(t, res.AllConditionsMet)
	assert.Len(t, res.Conditions, 2)
	assert.Equal(t, 600.0, res.Conditions[0].Actual)
	assert.Equal(t, 500.0, res.Conditions[0].Target)
	assert.Equal(t, 1.0, res.Conditions[1].Actual)
	assert.Equal(t, m.Rewards, res.Rewards)
}

func TestEvaluateMission_FailureHasNoRewards(t *testing.T) {
	m := Mission{
		ID:         "m2",
		Conditions: []MissionWinCondition{{Type: ConditionSurvive}},
		Rewards:    []MissionReward{{Type: RewardXP, Value: 300}},
	}
	res := EvaluateMission(m, MissionSnapshot{StartingBalance: 1000, Balance: 0, TotalPnL: -1000, LossCount: 1})
	assert.False(t, res.AllConditionsMet)
	assert.Empty(t, res.Rewards)
	assert.NotNil(t, res.Rewards)
	assert.Equal(t, 0.0, res.Conditions[0].Actual)
	assert.Equal(t, GradeF, res.Grade)
}

func TestEvaluateCondition_Boundaries(t *testing.T) {
	snap := MissionSnapshot{
		TotalPnL:        250,
		StartingBalance: 1000,
		Balance:         1250,
		WinCount:        3,
		LossCount:       1,
		MaxStreak:       3,
		MaxDrawdown:     12,
	}
	cases := []struct {
		typ      ConditionType
		atValue  float64
		actual   float64
		inverted bool
	}{
		{ConditionProfitTarget, 250, 250, false},
		{ConditionProfitPercent, 25, 25, false},
		{ConditionWinStreak, 3, 3, false},
		{ConditionWinRate, 75, 75, false},
		{ConditionTradesCount, 4, 4, false},
		{ConditionMaxDrawdown, 12, 12, true},
	}
	for _, tc := range cases {
		at := EvaluateCondition(MissionWinCondition{Type: tc.typ, Value: tc.atValue}, snap)
		assert.Equal(t, tc.actual, at.Actual, tc.typ)
		assert.True(t, at.Passed, "%s should pass at actual == value", tc.typ)

		above := EvaluateCondition(MissionWinCondition{Type: tc.typ, Value: tc.atValue + 0.5}, snap)
		below := EvaluateCondition(MissionWinCondition{Type: tc.typ, Value: tc.atValue - 0.5}, snap)
		if tc.inverted {
			assert.True(t, above.Passed, tc.typ)
			assert.False(t, below.Passed, tc.typ)
		} else {
			assert.False(t, above.Passed, tc.typ)
			assert.True(t, below.Passed, tc.typ)
		}
	}
}

func TestEvaluateCondition_BeatMarket(t *testing.T) {
	// sesión +25%, buy-and-hold +20% → gana por 5 puntos
	snap := MissionSnapshot{TotalPnL: 250, StartingBalance: 1000, BaselineStart: 100, BaselineEnd: 120}
	r := EvaluateCondition(MissionWinCondition{Type: ConditionBeatMarket}, snap)
	assert.True(t, r.Passed)
	assert.InDelta(t, 5, r.Actual, 1e-9)

	// empate no cuenta
	snap.BaselineEnd = 125
	r = EvaluateCondition(MissionWinCondition{Type: ConditionBeatMarket}, snap)
	assert.False(t, r.Passed)
	assert.InDelta(t, 0, r.Actual, 1e-9)
}

func TestEvaluateCondition_WinRateNoTrades(t *testing.T) {
	r := EvaluateCondition(MissionWinCondition{Type: ConditionWinRate, Value: 0}, MissionSnapshot{})
	assert.Equal(t, 0.0, r.Actual)
	assert.True(t, r.Passed)
}

func TestEvaluateCondition_UnknownFails(t *testing.T) {
	r := EvaluateCondition(MissionWinCondition{Type: "moon"}, MissionSnapshot{TotalPnL: 1e9})
	assert.False(t, r.Passed)
}

func TestMissionScore(t *testing.T) {
	assert.Equal(t, 0, MissionScore(MissionSnapshot{}))
	// +60%, 4/5 = 80%, racha 5 → 40+30+30
	assert.Equal(t, 100, MissionScore(MissionSnapshot{TotalPnL: 600, StartingBalance: 1000, WinCount: 4, LossCount: 1, MaxStreak: 5}))
	// +5%, 50%, racha 2 → 10+10+10
	assert.Equal(t, 30, MissionScore(MissionSnapshot{TotalPnL: 50, StartingBalance: 1000, WinCount: 2, LossCount: 2, MaxStreak: 2}))
}

func TestMissionGrade(t *testing.T) {
	assert.Equal(t, GradeS, MissionGrade(80, true, 1, 50))
	assert.Equal(t, GradeA, MissionGrade(60, true, 1, 50))
	assert.Equal(t, GradeB, MissionGrade(40, true, 1, 50))
	assert.Equal(t, GradeC, MissionGrade(10, true, -1, 0))

	// fallida: tope C/D/F aunque la puntuación sea alta
	assert.Equal(t, GradeC, MissionGrade(100, false, 10, 41))
	assert.Equal(t, GradeD, MissionGrade(100, false, 10, 40))
	assert.Equal(t, GradeF, MissionGrade(100, false, 0, 90))
}

func TestMission_Validate(t *testing.T) {
	ok := Mission{ID: "x", Conditions: []MissionWinCondition{{Type: ConditionSurvive}}}
	assert.NoError(t, ok.Validate())

	assert.Error(t, Mission{Conditions: ok.Conditions}.Validate())
	assert.Error(t, Mission{ID: "x"}.Validate())
	assert.ErrorIs(t, Mission{ID: "x", Conditions: []MissionWinCondition{{Type: "nope"}}}.Validate(), ErrUnknownCondition)
}
