package basketball_nba_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Nike/internal/bonus"
	"github.com/XavierBriggs/Nike/pkg/models"
	"github.com/XavierBriggs/Nike/pkg/testutil"
	"github.com/XavierBriggs/Nike/sports/basketball_nba"
)

func TestDefaultConfig(t *testing.T) {
	config := basketball_nba.DefaultConfig()

	if config.SportKey != "basketball_nba" {
		t.Errorf("expected sport_key basketball_nba, got %s", config.SportKey)
	}

	if config.Live.ThreePointerMade != 3 {
		t.Errorf("expected 3 points per three, got %d", config.Live.ThreePointerMade)
	}

	if config.Bonuses.CategoryThreshold != 10 {
		t.Errorf("expected category threshold 10, got %d", config.Bonuses.CategoryThreshold)
	}
}

func gameContext(phase models.TournamentPhase, counts map[models.EventType]int) *models.MatchContext {
	match := testutil.NewTestMatch("basketball_nba", "g1", "LAL", "BOS", 101, 110)
	return &models.MatchContext{
		MatchID:    "g1",
		SportKey:   "basketball_nba",
		Result:     models.NewMatchResult(match),
		Tournament: models.Tournament{Phase: phase},
		Players: []models.PlayerMatchContext{
			{PlayerID: "P", TeamID: "LAL", Counts: counts},
		},
	}
}

func evaluate(t *testing.T, mc *models.MatchContext) *models.MatchBonusResult {
	t.Helper()
	engine := bonus.NewEngine(nil, nil, 1, nil)
	result, err := engine.Evaluate(context.Background(), mc, basketball_nba.NewModule().PostMatchRules())
	require.NoError(t, err)
	return result
}

func TestMultiCategoryBonuses(t *testing.T) {
	tests := []struct {
		name     string
		counts   map[models.EventType]int
		expected []string
	}{
		{
			name: "Three Categories",
			counts: map[models.EventType]int{
				basketball_nba.Rebound: 10,
				basketball_nba.Assist:  11,
				basketball_nba.Steal:   10,
			},
			expected: []string{"triple_double", "double_double"},
		},
		{
			name: "Exactly Two Categories",
			counts: map[models.EventType]int{
				basketball_nba.Rebound: 12,
				basketball_nba.Assist:  10,
				basketball_nba.Steal:   9,
			},
			expected: []string{"double_double"},
		},
		{
			name: "Points From Weighted Shots",
			counts: map[models.EventType]int{
				basketball_nba.FieldGoalMade:    3, // 6 points
				basketball_nba.ThreePointerMade: 1, // 3 points
				basketball_nba.FreeThrowMade:    1, // 1 point
				basketball_nba.Rebound:          10,
			},
			expected: []string{"double_double"},
		},
		{
			name: "Turnovers Are No Category",
			counts: map[models.EventType]int{
				basketball_nba.Turnover: 12,
				basketball_nba.Rebound:  10,
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			result := evaluate(t, gameContext(models.PhaseRegular, tt.counts))
			assert.Equal(t, tt.expected, result.Rules("P"))
		})
	}
}

func TestPlayoffPerformer(t *testing.T) {
	counts := map[models.EventType]int{
		basketball_nba.FieldGoalMade:    9,
		basketball_nba.ThreePointerMade: 4,
	}

	regular := evaluate(t, gameContext(models.PhaseRegular, counts))
	assert.Empty(t, regular.Rules("P"))

	playoff := evaluate(t, gameContext(models.PhasePlayoff, counts))
	assert.Equal(t, []string{"playoff_performer"}, playoff.Rules("P"))
	assert.Equal(t, 10, playoff.TotalFor("P"))
}

func TestCategories(t *testing.T) {
	p := &models.PlayerMatchContext{Counts: map[models.EventType]int{
		basketball_nba.FieldGoalMade:    5,
		basketball_nba.ThreePointerMade: 2,
		basketball_nba.FreeThrowMade:    4,
		basketball_nba.Block:            3,
		basketball_nba.PersonalFoul:     4,
	}}

	totals := basketball_nba.Categories().Totals(p)
	assert.Equal(t, map[string]int{
		basketball_nba.CategoryPoints: 20,
		basketball_nba.CategoryBlocks: 3,
	}, totals)
}

func TestValidateEvent(t *testing.T) {
	module := basketball_nba.NewModule()

	valid := testutil.NewTestEvent("basketball_nba", "g1", 1, basketball_nba.Rebound, "P", "LAL", 12)
	assert.NoError(t, module.ValidateEvent(valid))

	tests := []struct {
		name   string
		mutate func(e *models.MatchEvent)
	}{
		{"Wrong Sport", func(e *models.MatchEvent) { e.SportKey = "soccer" }},
		{"Unknown Type", func(e *models.MatchEvent) { e.Type = "GOAL" }},
		{"Missing Team", func(e *models.MatchEvent) { e.TeamID = "" }},
		{"Negative Minute", func(e *models.MatchEvent) { e.Minute = -1 }},
		{"Bad Period", func(e *models.MatchEvent) { e.Metadata = map[string]string{models.MetaPeriod: "Q2"} }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			assert.Error(t, module.ValidateEvent(e))
		})
	}
}
