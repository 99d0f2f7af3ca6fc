package soccer

import "github.com/XavierBriggs/Nike/pkg/models"

// Soccer event types
const (
	Goal            models.EventType = "GOAL"
	OwnGoal         models.EventType = "OWN_GOAL"
	Assist          models.EventType = "ASSIST"
	YellowCard      models.EventType = "YELLOW_CARD"
	RedCard         models.EventType = "RED_CARD"
	Save            models.EventType = "SAVE"
	PenaltySaved    models.EventType = "PENALTY_SAVED"
	PenaltyMissed   models.EventType = "PENALTY_MISSED"
	Shot            models.EventType = "SHOT"
	SubstitutionIn  models.EventType = "SUBSTITUTION_IN"
	SubstitutionOut models.EventType = "SUBSTITUTION_OUT"
)

// PositionGoalkeeper is the lineup position eligible for clean sheets
const PositionGoalkeeper = "GK"

// EventTypes returns every event type a soccer feed may carry
func EventTypes() []models.EventType {
	return []models.EventType{
		Goal,
		OwnGoal,
		Assist,
		YellowCard,
		RedCard,
		Save,
		PenaltySaved,
		PenaltyMissed,
		Shot,
		SubstitutionIn,
		SubstitutionOut,
	}
}

// IsKnownEventType reports whether the event type belongs to the soccer feed
func IsKnownEventType(t models.EventType) bool {
	for _, known := range EventTypes() {
		if known == t {
			return true
		}
	}
	return false
}
