package rulekit

import (
	"sort"

	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// CategoryWeight attributes one event of a type to a statistical category
type CategoryWeight struct {
	Category string
	Weight   int
}

// CategoryMap maps raw event types to statistical categories.
// An event type absent from the map contributes to no category.
type CategoryMap map[models.EventType]CategoryWeight

// Totals folds a player's event counts into category totals
func (cm CategoryMap) Totals(p *models.PlayerMatchContext) map[string]int {
	totals := make(map[string]int)
	for t, n := range p.Counts {
		cw, ok := cm[t]
		if !ok {
			continue
		}
		totals[cw.Category] += n * cw.Weight
	}
	return totals
}

// CategoriesAtLeast returns the sorted categories whose total reaches threshold
func (cm CategoryMap) CategoriesAtLeast(p *models.PlayerMatchContext, threshold int) []string {
	var hit []string
	for cat, total := range cm.Totals(p) {
		if total >= threshold {
			hit = append(hit, cat)
		}
	}
	sort.Strings(hit)
	return hit
}

// MultiCategory matches players with at least n categories reaching threshold
// (n=2, threshold=10 is a double-double)
func (cm CategoryMap) MultiCategory(n, threshold int) contracts.ContextPredicate {
	return func(p *models.PlayerMatchContext, _ *models.MatchContext) bool {
		return len(cm.CategoriesAtLeast(p, threshold)) >= n
	}
}

// CategoryAtLeast matches players whose category total reaches threshold
func (cm CategoryMap) CategoryAtLeast(category string, threshold int) contracts.ContextPredicate {
	return func(p *models.PlayerMatchContext, _ *models.MatchContext) bool {
		return cm.Totals(p)[category] >= threshold
	}
}

// Identity builds a 1:1 map where each event type is its own category
func Identity(types ...models.EventType) CategoryMap {
	cm := make(CategoryMap, len(types))
	for _, t := range types {
		cm[t] = CategoryWeight{Category: string(t), Weight: 1}
	}
	return cm
}
