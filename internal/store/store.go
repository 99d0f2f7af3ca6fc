// Package store reads match metadata and the match event log from Postgres
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// Store implements contracts.MatchStore, contracts.TournamentStore and contracts.EventLog
type Store struct {
	db *sql.DB
}

// NewStore creates a Postgres-backed store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetMatch loads a match with its lineup
func (s *Store) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	query := `
		SELECT match_id, sport_key, tournament_id, home_team_id, away_team_id,
		       home_score, away_score, status, home_max_deficit, away_max_deficit
		FROM matches
		WHERE match_id = $1
	`

	var (
		m                              models.Match
		status                         string
		homeMaxDeficit, awayMaxDeficit int
	)
	err := s.db.QueryRowContext(ctx, query, matchID).Scan(
		&m.MatchID, &m.SportKey, &m.TournamentID, &m.HomeTeamID, &m.AwayTeamID,
		&m.HomeScore, &m.AwayScore, &status, &homeMaxDeficit, &awayMaxDeficit,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", matchID, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query match: %w", err)
	}

	m.Status = models.MatchStatus(status)
	m.MaxDeficit = map[string]int{
		m.HomeTeamID: homeMaxDeficit,
		m.AwayTeamID: awayMaxDeficit,
	}

	lineup, err := s.getLineup(ctx, matchID)
	if err != nil {
		return nil, err
	}
	m.Lineup = lineup

	return &m, nil
}

// getLineup loads every player entry for a match
func (s *Store) getLineup(ctx context.Context, matchID string) (map[string]models.LineupEntry, error) {
	query := `
		SELECT player_id, team_id, position, minutes_played
		FROM match_lineups
		WHERE match_id = $1
		ORDER BY player_id
	`

	rows, err := s.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("query lineup: %w", err)
	}
	defer rows.Close()

	lineup := make(map[string]models.LineupEntry)
	for rows.Next() {
		var (
			playerID string
			entry    models.LineupEntry
		)
		if err := rows.Scan(&playerID, &entry.TeamID, &entry.Position, &entry.MinutesPlayed); err != nil {
			return nil, fmt.Errorf("scan lineup: %w", err)
		}
		lineup[playerID] = entry
	}

	return lineup, rows.Err()
}

// GetTournamentByMatch loads the tournament a match is played in
func (s *Store) GetTournamentByMatch(ctx context.Context, matchID string) (*models.Tournament, error) {
	query := `
		SELECT t.tournament_id, t.name, t.phase
		FROM tournaments t
		JOIN matches m ON m.tournament_id = t.tournament_id
		WHERE m.match_id = $1
	`

	var (
		t     models.Tournament
		phase string
	)
	err := s.db.QueryRowContext(ctx, query, matchID).Scan(&t.TournamentID, &t.Name, &phase)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tournament for match %s: %w", matchID, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query tournament: %w", err)
	}

	t.Phase = models.TournamentPhase(phase)
	return &t, nil
}

// ReadMatchEvents returns the match's event log in sequence order
func (s *Store) ReadMatchEvents(ctx context.Context, matchID string) ([]models.MatchEvent, error) {
	query := `
		SELECT event_id, match_id, sport_key, provider_id, occurred_at,
		       event_type, player_id, team_id, minute, sequence, metadata
		FROM match_events
		WHERE match_id = $1
		ORDER BY sequence ASC, event_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("query match events: %w", err)
	}
	defer rows.Close()

	var events []models.MatchEvent
	for rows.Next() {
		var (
			e         models.MatchEvent
			eventType string
			playerID  sql.NullString
			teamID    sql.NullString
			metadata  []byte
		)
		if err := rows.Scan(
			&e.EventID, &e.MatchID, &e.SportKey, &e.ProviderID, &e.Timestamp,
			&eventType, &playerID, &teamID, &e.Minute, &e.Sequence, &metadata,
		); err != nil {
			return nil, fmt.Errorf("scan match event: %w", err)
		}

		e.Type = models.EventType(eventType)
		e.PlayerID = playerID.String
		e.TeamID = teamID.String

		if len(metadata) > 0 && string(metadata) != "null" {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for event %s: %w", e.EventID, err)
			}
		}

		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match events: %w", err)
	}

	return events, nil
}

// FinishedMatch is a finished match awaiting a bonus result
type FinishedMatch struct {
	MatchID  string
	SportKey string
}

// ListFinishedWithoutBonus returns one page of finished matches that have no
// stored bonus result, ordered by match id and starting after afterMatchID
func (s *Store) ListFinishedWithoutBonus(ctx context.Context, afterMatchID string, limit int) ([]FinishedMatch, error) {
	query := `
		SELECT m.match_id, m.sport_key
		FROM matches m
		LEFT JOIN match_bonus_results r ON r.match_id = m.match_id
		WHERE m.status = 'finished'
		  AND r.match_id IS NULL
		  AND m.match_id > $1
		ORDER BY m.match_id
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, afterMatchID, limit)
	if err != nil {
		return nil, fmt.Errorf("query finished matches: %w", err)
	}
	defer rows.Close()

	var matches []FinishedMatch
	for rows.Next() {
		var fm FinishedMatch
		if err := rows.Scan(&fm.MatchID, &fm.SportKey); err != nil {
			return nil, fmt.Errorf("scan finished match: %w", err)
		}
		matches = append(matches, fm)
	}

	return matches, rows.Err()
}
