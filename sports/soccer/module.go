// Package soccer is the soccer scoring plugin
package soccer

import (
	"fmt"

	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
	"github.com/XavierBriggs/Nike/pkg/rulekit"
)

// Module implements the SportModule interface for soccer
type Module struct {
	config *Config
}

// NewModule creates a new soccer sport module
func NewModule() *Module {
	return NewModuleWithConfig(DefaultConfig())
}

// NewModuleWithConfig creates a soccer module with a custom scoring table
func NewModuleWithConfig(cfg *Config) *Module {
	return &Module{config: cfg}
}

// GetSportKey returns the sport identifier
func (m *Module) GetSportKey() string {
	return m.config.SportKey
}

// GetDisplayName returns the human-readable name
func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

// EventTypes returns the soccer event types as strings
func (m *Module) EventTypes() []string {
	types := EventTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// LiveRules returns the per-event scoring table.
// A penalty goal fires both "goal" and "goal_penalty".
func (m *Module) LiveRules() []contracts.LiveRule {
	p := m.config.Live
	return []contracts.LiveRule{
		rulekit.PerEvent("goal", Goal, p.Goal),
		{
			Name:      "goal_penalty",
			Points:    p.PenaltyGoalAdjustment,
			Predicate: rulekit.OfTypeWithFlag(Goal, models.MetaIsPenalty),
		},
		rulekit.PerEvent("own_goal", OwnGoal, p.OwnGoal),
		rulekit.PerEvent("assist", Assist, p.Assist),
		rulekit.PerEvent("yellow_card", YellowCard, p.YellowCard),
		rulekit.PerEvent("red_card", RedCard, p.RedCard),
		rulekit.PerEvent("save", Save, p.Save),
		rulekit.PerEvent("penalty_saved", PenaltySaved, p.PenaltySaved),
		rulekit.PerEvent("penalty_missed", PenaltyMissed, p.PenaltyMissed),
	}
}

// PostMatchRules returns the soccer bonus rules
func (m *Module) PostMatchRules() []contracts.PostMatchRule {
	b := m.config.Bonuses
	return []contracts.PostMatchRule{
		{
			Name:      "hat_trick",
			Priority:  100,
			Predicate: rulekit.AtLeast(Goal, b.HatTrickGoals),
			Calculate: goalsBonus("hat_trick", b.HatTrick, "Hat-trick"),
		},
		{
			Name:     "hat_trick_playoff",
			Priority: 95,
			Predicate: rulekit.All(
				rulekit.AtLeast(Goal, b.HatTrickGoals),
				rulekit.TeamWon(),
				rulekit.InPhase(models.PhasePlayoff, models.PhaseFinal),
			),
			Calculate: goalsBonus("hat_trick_playoff", b.HatTrickPlayoff, "Hat-trick in a playoff win"),
		},
		{
			Name:      "clean_sheet",
			Priority:  80,
			Predicate: m.cleanSheet,
			Calculate: contracts.FixedBonus("clean_sheet", b.CleanSheet,
				fmt.Sprintf("Clean sheet (%d+ minutes in goal)", b.CleanSheetMinMinutes)),
		},
		{
			Name:      "playmaker",
			Priority:  70,
			Predicate: rulekit.AtLeast(Assist, b.PlaymakerAssists),
			Calculate: func(p *models.PlayerMatchContext, _ *models.MatchContext) (models.Bonus, error) {
				return models.Bonus{
					Rule:        "playmaker",
					Points:      b.Playmaker,
					Description: fmt.Sprintf("Playmaker (%d assists)", p.Count(Assist)),
				}, nil
			},
		},
		{
			Name:      "comeback_victory",
			Priority:  60,
			Predicate: m.comeback,
			Calculate: func(p *models.PlayerMatchContext, mc *models.MatchContext) (models.Bonus, error) {
				return models.Bonus{
					Rule:        "comeback_victory",
					Points:      b.ComebackVictory,
					Description: fmt.Sprintf("Won after trailing by %d", mc.Result.MaxDeficit[p.TeamID]),
				}, nil
			},
		},
		{
			Name:      "team_victory",
			Priority:  10,
			Predicate: rulekit.TeamWon(),
			Calculate: contracts.FixedBonus("team_victory", b.TeamVictory, "Team won the match"),
		},
	}
}

// cleanSheet holds for a goalkeeper who kept the opposition scoreless for long enough
func (m *Module) cleanSheet(p *models.PlayerMatchContext, mc *models.MatchContext) bool {
	if mc.Result.Position(p.PlayerID) != PositionGoalkeeper {
		return false
	}
	against, ok := mc.Result.GoalsAgainst[p.TeamID]
	if !ok || against != 0 {
		return false
	}
	return mc.Result.MinutesPlayed(p.PlayerID) >= m.config.Bonuses.CleanSheetMinMinutes
}

// comeback holds for players on a winning team that trailed by the configured deficit
func (m *Module) comeback(p *models.PlayerMatchContext, mc *models.MatchContext) bool {
	return mc.Result.Won(p.TeamID) &&
		mc.Result.MaxDeficit[p.TeamID] >= m.config.Bonuses.ComebackDeficit
}

// goalsBonus describes a goal-count bonus
func goalsBonus(rule string, points int, label string) contracts.BonusCalculator {
	return func(p *models.PlayerMatchContext, _ *models.MatchContext) (models.Bonus, error) {
		return models.Bonus{
			Rule:        rule,
			Points:      points,
			Description: fmt.Sprintf("%s (%d goals)", label, p.Count(Goal)),
		}, nil
	}
}

// ValidateEvent performs soccer-specific validation
func (m *Module) ValidateEvent(event models.MatchEvent) error {
	if event.SportKey != m.config.SportKey {
		return fmt.Errorf("invalid sport_key: expected %s, got %s", m.config.SportKey, event.SportKey)
	}

	if !IsKnownEventType(event.Type) {
		return fmt.Errorf("invalid event type for soccer: %s", event.Type)
	}

	if event.EventID == "" || event.MatchID == "" {
		return fmt.Errorf("event and match id are required")
	}

	if event.PlayerID == "" {
		return fmt.Errorf("player id cannot be empty for %s", event.Type)
	}

	if event.TeamID == "" {
		return fmt.Errorf("team id cannot be empty")
	}

	// Stoppage time can push the minute past 90 (or 120 in extra time)
	if event.Minute < 0 || event.Minute > 130 {
		return fmt.Errorf("minute out of range: %d", event.Minute)
	}

	if event.Type == Goal {
		if assist := event.AssistPlayerID(); assist != "" && assist == event.PlayerID {
			return fmt.Errorf("player %s cannot assist their own goal", event.PlayerID)
		}
	}

	return nil
}
