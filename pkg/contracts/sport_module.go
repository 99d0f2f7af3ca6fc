package contracts

import "github.com/XavierBriggs/Nike/pkg/models"

// SportModule defines the interface for a sport's scoring plugin
// This enables Nike to score multiple sports from one engine
type SportModule interface {
	// GetSportKey returns the unique identifier for this sport (e.g., "soccer")
	GetSportKey() string

	// GetDisplayName returns the human-readable name (e.g., "Soccer")
	GetDisplayName() string

	// LiveRules returns the ordered rules applied to each event as it arrives
	LiveRules() []LiveRule

	// PostMatchRules returns the rules evaluated once the match is finished
	PostMatchRules() []PostMatchRule

	// EventTypes returns every event type the sport's feed may carry
	EventTypes() []string

	// ValidateEvent performs sport-specific validation of an incoming event
	ValidateEvent(event models.MatchEvent) error
}
