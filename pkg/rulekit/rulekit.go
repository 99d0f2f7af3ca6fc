// Package rulekit provides small building blocks for sport rule sets:
// event-type predicates for live rules, and count and stat-category
// predicates for post-match rules.
package rulekit

import (
	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// OfType matches events of the given type
func OfType(t models.EventType) contracts.EventPredicate {
	return func(e models.MatchEvent) bool {
		return e.Type == t
	}
}

// OfTypeWithFlag matches events of the given type carrying a true metadata flag
func OfTypeWithFlag(t models.EventType, flag string) contracts.EventPredicate {
	return func(e models.MatchEvent) bool {
		return e.Type == t && e.Flag(flag)
	}
}

// PerEvent builds a live rule awarding points for every event of a type
func PerEvent(name string, t models.EventType, points int) contracts.LiveRule {
	return contracts.LiveRule{Name: name, Points: points, Predicate: OfType(t)}
}

// AtLeast matches players with at least n events of a type
func AtLeast(t models.EventType, n int) contracts.ContextPredicate {
	return func(p *models.PlayerMatchContext, _ *models.MatchContext) bool {
		return p.Count(t) >= n
	}
}

// TeamWon matches players whose team won the match
func TeamWon() contracts.ContextPredicate {
	return func(p *models.PlayerMatchContext, m *models.MatchContext) bool {
		return m.Result.Won(p.TeamID)
	}
}

// InPhase matches matches played in any of the given tournament phases
func InPhase(phases ...models.TournamentPhase) contracts.ContextPredicate {
	return func(_ *models.PlayerMatchContext, m *models.MatchContext) bool {
		for _, ph := range phases {
			if m.Tournament.Phase == ph {
				return true
			}
		}
		return false
	}
}

// All matches when every predicate matches
func All(preds ...contracts.ContextPredicate) contracts.ContextPredicate {
	return func(p *models.PlayerMatchContext, m *models.MatchContext) bool {
		for _, pred := range preds {
			if !pred(p, m) {
				return false
			}
		}
		return true
	}
}
