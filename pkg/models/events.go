package models

import (
	"strconv"
	"time"
)

// EventType is a sport-specific event kind (e.g., GOAL, REBOUND)
type EventType string

// Metadata keys shared across sports
const (
	MetaIsPenalty      = "is_penalty"
	MetaAssistPlayerID = "assist_player_id"
	MetaPeriod         = "period"
)

// MatchEvent is an immutable fact produced once by an upstream adapter
type MatchEvent struct {
	EventID    string            `json:"event_id"`
	MatchID    string            `json:"match_id"`
	SportKey   string            `json:"sport_key"`
	ProviderID string            `json:"provider_id"`
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	PlayerID   string            `json:"player_id"`
	TeamID     string            `json:"team_id"`
	Minute     int               `json:"minute"`
	Sequence   int64             `json:"sequence"` // Position in the match log
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Flag reports whether a boolean metadata key is set to a true value
func (e MatchEvent) Flag(key string) bool {
	v, ok := e.Metadata[key]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// IsPenalty reports whether the event was a penalty
func (e MatchEvent) IsPenalty() bool {
	return e.Flag(MetaIsPenalty)
}

// AssistPlayerID returns the assisting player, if any
func (e MatchEvent) AssistPlayerID() string {
	return e.Metadata[MetaAssistPlayerID]
}

// ScoreOrigin distinguishes live deltas from post-match bonuses
type ScoreOrigin string

const (
	OriginLive  ScoreOrigin = "live"
	OriginBonus ScoreOrigin = "bonus"
)

// PlayerScoreUpdate is the output of the live rule applier
type PlayerScoreUpdate struct {
	PlayerID        string      `json:"player_id"`
	MatchID         string      `json:"match_id"`
	SportKey        string      `json:"sport_key"`
	EventID         string      `json:"event_id"`
	Points          int         `json:"points"`
	SourceEventType EventType   `json:"source_event_type"`
	Timestamp       time.Time   `json:"timestamp"`
	Origin          ScoreOrigin `json:"origin"`
	ProviderID      string      `json:"provider_id"`
}
