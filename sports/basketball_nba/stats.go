package basketball_nba

import (
	"github.com/XavierBriggs/Nike/pkg/models"
	"github.com/XavierBriggs/Nike/pkg/rulekit"
)

// NBA event types
const (
	FieldGoalMade    models.EventType = "FIELD_GOAL_MADE"
	ThreePointerMade models.EventType = "THREE_POINTER_MADE"
	FreeThrowMade    models.EventType = "FREE_THROW_MADE"
	Rebound          models.EventType = "REBOUND"
	Assist           models.EventType = "ASSIST"
	Steal            models.EventType = "STEAL"
	Block            models.EventType = "BLOCK"
	Turnover         models.EventType = "TURNOVER"
	PersonalFoul     models.EventType = "PERSONAL_FOUL"
	FlagrantFoul     models.EventType = "FLAGRANT_FOUL"
)

// Stat categories used by double/triple-double bonuses
const (
	CategoryPoints   = "points"
	CategoryRebounds = "rebounds"
	CategoryAssists  = "assists"
	CategorySteals   = "steals"
	CategoryBlocks   = "blocks"
)

// EventTypes returns every event type an NBA feed may carry
func EventTypes() []models.EventType {
	return []models.EventType{
		FieldGoalMade,
		ThreePointerMade,
		FreeThrowMade,
		Rebound,
		Assist,
		Steal,
		Block,
		Turnover,
		PersonalFoul,
		FlagrantFoul,
	}
}

// Categories maps raw events to box-score categories.
// Made shots roll up into points by value; turnovers and fouls count nowhere.
func Categories() rulekit.CategoryMap {
	return rulekit.CategoryMap{
		FieldGoalMade:    {Category: CategoryPoints, Weight: 2},
		ThreePointerMade: {Category: CategoryPoints, Weight: 3},
		FreeThrowMade:    {Category: CategoryPoints, Weight: 1},
		Rebound:          {Category: CategoryRebounds, Weight: 1},
		Assist:           {Category: CategoryAssists, Weight: 1},
		Steal:            {Category: CategorySteals, Weight: 1},
		Block:            {Category: CategoryBlocks, Weight: 1},
	}
}

// IsKnownEventType reports whether the event type belongs to the NBA feed
func IsKnownEventType(t models.EventType) bool {
	for _, known := range EventTypes() {
		if known == t {
			return true
		}
	}
	return false
}
