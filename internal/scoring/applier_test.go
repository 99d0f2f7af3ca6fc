package scoring_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Nike/internal/registry"
	"github.com/XavierBriggs/Nike/internal/scoring"
	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
	"github.com/XavierBriggs/Nike/pkg/testutil"
	"github.com/XavierBriggs/Nike/sports/basketball_nba"
	"github.com/XavierBriggs/Nike/sports/soccer"
)

func TestPoints_SumsAllMatchingRules(t *testing.T) {
	rules := soccer.NewModule().LiveRules()

	penalty := testutil.NewTestEvent("soccer", "m1", 1, soccer.Goal, "P", "T", 30)
	penalty.Metadata = map[string]string{models.MetaIsPenalty: "true"}

	tests := []struct {
		name     string
		event    models.MatchEvent
		expected int
	}{
		{"Open Play Goal", testutil.NewTestEvent("soccer", "m1", 2, soccer.Goal, "P", "T", 10), 10},
		{"Penalty Goal", penalty, 8},
		{"Assist", testutil.NewTestEvent("soccer", "m1", 3, soccer.Assist, "P", "T", 10), 6},
		{"Red Card", testutil.NewTestEvent("soccer", "m1", 4, soccer.RedCard, "P", "T", 10), -6},
		{"Unscored Type", testutil.NewTestEvent("soccer", "m1", 5, soccer.Shot, "P", "T", 10), 0},
		{"Unknown Type", testutil.NewTestEvent("soccer", "m1", 6, "CORNER", "P", "T", 10), 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := scoring.Points(tt.event, rules)
			if got != tt.expected {
				t.Errorf("expected %d points, got %d", tt.expected, got)
			}

			// Property: the total equals the sum over every matching rule
			sum := 0
			for _, r := range rules {
				if r.Predicate(tt.event) {
					sum += r.Points
				}
			}
			assert.Equal(t, sum, got)
		})
	}
}

func TestApply_EmitsZeroPointAcknowledgement(t *testing.T) {
	event := testutil.NewTestEvent("soccer", "m1", 1, soccer.Shot, "P", "T", 12)

	update := scoring.Apply(event, soccer.NewModule().LiveRules())

	assert.Equal(t, 0, update.Points)
	assert.Equal(t, "P", update.PlayerID)
	assert.Equal(t, "m1", update.MatchID)
	assert.Equal(t, event.EventID, update.EventID)
	assert.Equal(t, soccer.Shot, update.SourceEventType)
	assert.Equal(t, event.Timestamp, update.Timestamp)
	assert.Equal(t, models.OriginLive, update.Origin)
	assert.Equal(t, "test-feed", update.ProviderID)
}

func TestApply_Deterministic(t *testing.T) {
	rules := basketball_nba.NewModule().LiveRules()
	event := testutil.NewTestEvent("basketball_nba", "g1", 7, basketball_nba.ThreePointerMade, "P", "T", 5)

	first := scoring.Apply(event, rules)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scoring.Apply(event, rules))
	}
	assert.Equal(t, 3, first.Points)
}

func TestPoints_PanickingRuleContributesNothing(t *testing.T) {
	rules := []contracts.LiveRule{
		{Name: "boom", Points: 100, Predicate: func(models.MatchEvent) bool { panic("bad rule") }},
		{Name: "any", Points: 2, Predicate: func(models.MatchEvent) bool { return true }},
	}

	event := testutil.NewTestEvent("soccer", "m1", 1, soccer.Goal, "P", "T", 1)
	assert.Equal(t, 2, scoring.Points(event, rules))
	assert.Equal(t, []string{"any"}, scoring.MatchedRules(event, rules))
}

func TestMatchedRules_PenaltyGoal(t *testing.T) {
	event := testutil.NewTestEvent("soccer", "m1", 1, soccer.Goal, "P", "T", 1)
	event.Metadata = map[string]string{models.MetaIsPenalty: "1"}

	names := scoring.MatchedRules(event, soccer.NewModule().LiveRules())
	assert.Equal(t, []string{"goal", "goal_penalty"}, names)
}

func TestApplier_UnknownSport(t *testing.T) {
	reg, err := registry.NewSportRegistry(soccer.NewModule())
	require.NoError(t, err)

	applier := scoring.NewApplier(reg)
	event := testutil.NewTestEvent("cricket", "m1", 1, "RUN", "P", "T", 1)

	update, err := applier.ApplyEvent(event)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrUnknownSport))

	var unknown *contracts.UnknownSportError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "cricket", unknown.SportKey)
	assert.Equal(t, models.PlayerScoreUpdate{}, update)
}

func TestApplier_ResolvesSport(t *testing.T) {
	reg, err := registry.NewSportRegistry(soccer.NewModule(), basketball_nba.NewModule())
	require.NoError(t, err)

	applier := scoring.NewApplier(reg)

	update, err := applier.ApplyEvent(testutil.NewTestEvent("basketball_nba", "g1", 1, basketball_nba.Steal, "P", "T", 3))
	require.NoError(t, err)
	assert.Equal(t, 3, update.Points)

	update, err = applier.ApplyEvent(testutil.NewTestEvent("soccer", "m1", 1, soccer.YellowCard, "P", "T", 3))
	require.NoError(t, err)
	assert.Equal(t, -2, update.Points)
}
