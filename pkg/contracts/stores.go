package contracts

import (
	"context"

	"github.com/XavierBriggs/Nike/pkg/models"
)

// EventLog reads the append-only event log of a match
type EventLog interface {
	// ReadMatchEvents returns every event of the match in log order
	ReadMatchEvents(ctx context.Context, matchID string) ([]models.MatchEvent, error)
}

// MatchStore looks up match metadata (read-only)
type MatchStore interface {
	// GetMatch returns ErrNotFound when the match does not exist
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
}

// TournamentStore looks up tournament metadata (read-only)
type TournamentStore interface {
	// GetTournamentByMatch returns ErrNotFound when no tournament is linked to the match
	GetTournamentByMatch(ctx context.Context, matchID string) (*models.Tournament, error)
}

// ScoreSink appends live score updates
type ScoreSink interface {
	WriteScores(ctx context.Context, updates []models.PlayerScoreUpdate) error
}

// BonusSink stores bonus results, replacing any previous result for the match
type BonusSink interface {
	ReplaceBonusResult(ctx context.Context, result *models.MatchBonusResult) error
}

// Notifier delivers bonus notifications (fire-and-forget from the engine's view)
type Notifier interface {
	NotifyBonus(ctx context.Context, matchID string, award models.PlayerBonus) error
}
