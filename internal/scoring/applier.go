// Package scoring applies a sport's live rules to single match events.
// Everything here is pure: no I/O, no clock reads, no shared state.
package scoring

import (
	"log/slog"

	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// RuleSource resolves a sport's live rules
type RuleSource interface {
	LiveRules(sportKey string) ([]contracts.LiveRule, error)
}

// Points sums the value of every live rule whose predicate holds for the event.
// Rules are independent and additive; a panicking predicate contributes nothing.
func Points(event models.MatchEvent, rules []contracts.LiveRule) int {
	total := 0
	for _, rule := range rules {
		if matches(rule, event) {
			total += rule.Points
		}
	}
	return total
}

// Apply converts one event into a score update. An update is emitted even when
// no rule matches, as a zero-point acknowledgement.
func Apply(event models.MatchEvent, rules []contracts.LiveRule) models.PlayerScoreUpdate {
	return models.PlayerScoreUpdate{
		PlayerID:        event.PlayerID,
		MatchID:         event.MatchID,
		SportKey:        event.SportKey,
		EventID:         event.EventID,
		Points:          Points(event, rules),
		SourceEventType: event.Type,
		Timestamp:       event.Timestamp,
		Origin:          models.OriginLive,
		ProviderID:      event.ProviderID,
	}
}

// MatchedRules returns the names of the rules that fire for an event, in rule order
func MatchedRules(event models.MatchEvent, rules []contracts.LiveRule) []string {
	var names []string
	for _, rule := range rules {
		if matches(rule, event) {
			names = append(names, rule.Name)
		}
	}
	return names
}

// matches evaluates one predicate, treating a panic as "does not match"
func matches(rule contracts.LiveRule, event models.MatchEvent) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("live rule panicked",
				"rule", rule.Name, "event_id", event.EventID, "panic", r)
			ok = false
		}
	}()
	return rule.Predicate(event)
}

// Applier resolves the sport's rule set before applying it
type Applier struct {
	rules RuleSource
}

// NewApplier creates a live rule applier backed by a rule source (the registry)
func NewApplier(rules RuleSource) *Applier {
	return &Applier{rules: rules}
}

// ApplyEvent scores one event. Returns UnknownSportError, and no update,
// when the event's sport has no registered plugin.
func (a *Applier) ApplyEvent(event models.MatchEvent) (models.PlayerScoreUpdate, error) {
	rules, err := a.rules.LiveRules(event.SportKey)
	if err != nil {
		return models.PlayerScoreUpdate{}, err
	}
	return Apply(event, rules), nil
}
