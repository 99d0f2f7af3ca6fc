package soccer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Nike/internal/bonus"
	"github.com/XavierBriggs/Nike/pkg/models"
	"github.com/XavierBriggs/Nike/pkg/testutil"
	"github.com/XavierBriggs/Nike/sports/soccer"
)

func TestDefaultConfig(t *testing.T) {
	config := soccer.DefaultConfig()

	if config.SportKey != "soccer" {
		t.Errorf("expected sport_key soccer, got %s", config.SportKey)
	}

	if config.Live.Goal != 10 {
		t.Errorf("expected 10 points per goal, got %d", config.Live.Goal)
	}

	if config.Bonuses.CleanSheetMinMinutes != 60 {
		t.Errorf("expected clean sheet threshold 60, got %d", config.Bonuses.CleanSheetMinMinutes)
	}
}

// evaluate runs the module's post-match rules for every player in mc
func evaluate(t *testing.T, mc *models.MatchContext) *models.MatchBonusResult {
	t.Helper()
	engine := bonus.NewEngine(nil, nil, 1, nil)
	result, err := engine.Evaluate(context.Background(), mc, soccer.NewModule().PostMatchRules())
	require.NoError(t, err)
	return result
}

func keeperContext(minutes, goalsAgainst int) *models.MatchContext {
	match := testutil.NewTestMatch("soccer", "m1", "H", "A", 1, goalsAgainst)
	match.Lineup = map[string]models.LineupEntry{
		"gk": {TeamID: "H", Position: soccer.PositionGoalkeeper, MinutesPlayed: minutes},
	}
	return &models.MatchContext{
		MatchID:    "m1",
		SportKey:   "soccer",
		Result:     models.NewMatchResult(match),
		Tournament: models.Tournament{Phase: models.PhaseRegular},
		Players: []models.PlayerMatchContext{
			{PlayerID: "gk", TeamID: "H", Counts: map[models.EventType]int{soccer.Save: 4}},
		},
	}
}

func TestCleanSheet(t *testing.T) {
	tests := []struct {
		name         string
		minutes      int
		goalsAgainst int
		expected     bool
	}{
		{"Full Match", 90, 0, true},
		{"Exactly Sixty", 60, 0, true},
		{"Forty Five", 45, 0, false},
		{"Conceded", 90, 1, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			result := evaluate(t, keeperContext(tt.minutes, tt.goalsAgainst))
			assert.Equal(t, tt.expected, contains(result.Rules("gk"), "clean_sheet"))
		})
	}
}

func TestCleanSheet_OutfieldPlayer(t *testing.T) {
	mc := keeperContext(90, 0)
	mc.Result.Lineup["gk"] = models.LineupEntry{TeamID: "H", Position: "DF", MinutesPlayed: 90}

	result := evaluate(t, mc)
	assert.NotContains(t, result.Rules("gk"), "clean_sheet")
}

func TestHatTrickStacking(t *testing.T) {
	tests := []struct {
		name     string
		phase    models.TournamentPhase
		goals    int
		expected []string
		total    int
	}{
		{"Playoff", models.PhasePlayoff, 3, []string{"hat_trick", "hat_trick_playoff", "team_victory"}, 75},
		{"Final", models.PhaseFinal, 4, []string{"hat_trick", "hat_trick_playoff", "team_victory"}, 75},
		{"Regular", models.PhaseRegular, 3, []string{"hat_trick", "team_victory"}, 25},
		{"Two Goals", models.PhasePlayoff, 2, []string{"team_victory"}, 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			match := testutil.NewTestMatch("soccer", "m1", "T", "U", tt.goals, 0)
			mc := &models.MatchContext{
				MatchID:    "m1",
				SportKey:   "soccer",
				Result:     models.NewMatchResult(match),
				Tournament: models.Tournament{Phase: tt.phase},
				Players: []models.PlayerMatchContext{
					{PlayerID: "P", TeamID: "T", Counts: map[models.EventType]int{soccer.Goal: tt.goals}},
				},
			}

			result := evaluate(t, mc)
			assert.Equal(t, tt.expected, result.Rules("P"))
			assert.Equal(t, tt.total, result.TotalFor("P"))
		})
	}
}

func TestComebackVictory(t *testing.T) {
	match := testutil.NewTestMatch("soccer", "m1", "T", "U", 3, 2)
	match.MaxDeficit = map[string]int{"T": 2}
	mc := &models.MatchContext{
		MatchID:  "m1",
		SportKey: "soccer",
		Result:   models.NewMatchResult(match),
		Players: []models.PlayerMatchContext{
			{PlayerID: "P", TeamID: "T", Counts: map[models.EventType]int{}},
			{PlayerID: "Q", TeamID: "U", Counts: map[models.EventType]int{}},
		},
	}

	result := evaluate(t, mc)
	assert.Equal(t, []string{"comeback_victory", "team_victory"}, result.Rules("P"))
	assert.Empty(t, result.Rules("Q"))
}

func TestValidateEvent(t *testing.T) {
	module := soccer.NewModule()

	valid := testutil.NewTestEvent("soccer", "m1", 1, soccer.Goal, "P", "T", 12)
	assert.NoError(t, module.ValidateEvent(valid))

	wrongSport := valid
	wrongSport.SportKey = "basketball_nba"
	assert.Error(t, module.ValidateEvent(wrongSport))

	unknownType := valid
	unknownType.Type = "TOUCHDOWN"
	assert.Error(t, module.ValidateEvent(unknownType))

	selfAssist := valid
	selfAssist.Metadata = map[string]string{models.MetaAssistPlayerID: "P"}
	assert.Error(t, module.ValidateEvent(selfAssist))

	noPlayer := valid
	noPlayer.PlayerID = ""
	assert.Error(t, module.ValidateEvent(noPlayer))

	noTeam := valid
	noTeam.TeamID = ""
	assert.Error(t, module.ValidateEvent(noTeam))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
