package contracts

import "github.com/XavierBriggs/Nike/pkg/models"

// EventPredicate decides whether a live rule fires for one event
type EventPredicate func(event models.MatchEvent) bool

// LiveRule awards a fixed point value when its predicate holds.
// Several live rules may fire for the same event; their values add up.
type LiveRule struct {
	Name      string
	Points    int
	Predicate EventPredicate
}

// ContextPredicate decides whether a post-match rule applies to a player
type ContextPredicate func(player *models.PlayerMatchContext, match *models.MatchContext) bool

// BonusCalculator produces the bonus for a player a rule applies to
type BonusCalculator func(player *models.PlayerMatchContext, match *models.MatchContext) (models.Bonus, error)

// PostMatchRule is evaluated against the full match context.
// Priority orders evaluation and reporting (higher first); it never
// makes one rule exclude another.
type PostMatchRule struct {
	Name      string
	Priority  int
	Predicate ContextPredicate
	Calculate BonusCalculator
}

// FixedBonus returns a calculator awarding a constant value
func FixedBonus(rule string, points int, description string) BonusCalculator {
	return func(*models.PlayerMatchContext, *models.MatchContext) (models.Bonus, error) {
		return models.Bonus{Rule: rule, Points: points, Description: description}, nil
	}
}
