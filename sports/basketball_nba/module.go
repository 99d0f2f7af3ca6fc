package basketball_nba

import (
	"fmt"

	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
	"github.com/XavierBriggs/Nike/pkg/rulekit"
)

// Module implements the SportModule interface for NBA Basketball
type Module struct {
	config     *Config
	categories rulekit.CategoryMap
}

// NewModule creates a new NBA sport module
func NewModule() *Module {
	return NewModuleWithConfig(DefaultConfig())
}

// NewModuleWithConfig creates an NBA module with a custom scoring table
func NewModuleWithConfig(cfg *Config) *Module {
	return &Module{
		config:     cfg,
		categories: Categories(),
	}
}

// GetSportKey returns the sport identifier
func (m *Module) GetSportKey() string {
	return m.config.SportKey
}

// GetDisplayName returns the human-readable name
func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

// EventTypes returns the NBA event types as strings
func (m *Module) EventTypes() []string {
	types := EventTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// LiveRules returns the per-event scoring table
func (m *Module) LiveRules() []contracts.LiveRule {
	p := m.config.Live
	return []contracts.LiveRule{
		rulekit.PerEvent("field_goal_made", FieldGoalMade, p.FieldGoalMade),
		rulekit.PerEvent("three_pointer_made", ThreePointerMade, p.ThreePointerMade),
		rulekit.PerEvent("free_throw_made", FreeThrowMade, p.FreeThrowMade),
		rulekit.PerEvent("rebound", Rebound, p.Rebound),
		rulekit.PerEvent("assist", Assist, p.Assist),
		rulekit.PerEvent("steal", Steal, p.Steal),
		rulekit.PerEvent("block", Block, p.Block),
		rulekit.PerEvent("turnover", Turnover, p.Turnover),
		rulekit.PerEvent("flagrant_foul", FlagrantFoul, p.FlagrantFoul),
	}
}

// PostMatchRules returns the NBA bonus rules
func (m *Module) PostMatchRules() []contracts.PostMatchRule {
	b := m.config.Bonuses
	return []contracts.PostMatchRule{
		{
			Name:      "triple_double",
			Priority:  100,
			Predicate: m.categories.MultiCategory(3, b.CategoryThreshold),
			Calculate: m.categoryBonus("triple_double", b.TripleDouble, "Triple-double"),
		},
		{
			Name:      "double_double",
			Priority:  50,
			Predicate: m.categories.MultiCategory(2, b.CategoryThreshold),
			Calculate: m.categoryBonus("double_double", b.DoubleDouble, "Double-double"),
		},
		{
			Name:     "playoff_performer",
			Priority: 40,
			Predicate: rulekit.All(
				rulekit.InPhase(models.PhasePlayoff, models.PhaseFinal),
				m.categories.CategoryAtLeast(CategoryPoints, b.PlayoffPointsThreshold),
			),
			Calculate: contracts.FixedBonus("playoff_performer", b.PlayoffPerformer,
				fmt.Sprintf("%d+ points in a playoff game", b.PlayoffPointsThreshold)),
		},
		{
			Name:      "team_victory",
			Priority:  10,
			Predicate: rulekit.TeamWon(),
			Calculate: contracts.FixedBonus("team_victory", b.TeamVictory, "Team won the game"),
		},
	}
}

// categoryBonus describes which categories reached the threshold
func (m *Module) categoryBonus(rule string, points int, label string) contracts.BonusCalculator {
	threshold := m.config.Bonuses.CategoryThreshold
	return func(p *models.PlayerMatchContext, _ *models.MatchContext) (models.Bonus, error) {
		cats := m.categories.CategoriesAtLeast(p, threshold)
		return models.Bonus{
			Rule:        rule,
			Points:      points,
			Description: fmt.Sprintf("%s (%v)", label, cats),
		}, nil
	}
}

// ValidateEvent performs NBA-specific validation
func (m *Module) ValidateEvent(event models.MatchEvent) error {
	// Validate sport key
	if event.SportKey != m.config.SportKey {
		return fmt.Errorf("invalid sport_key: expected %s, got %s", m.config.SportKey, event.SportKey)
	}

	if !IsKnownEventType(event.Type) {
		return fmt.Errorf("invalid event type for NBA: %s", event.Type)
	}

	return ValidateEvent(event)
}
