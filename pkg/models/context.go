package models

import "sort"

// TournamentPhase is the stage of a competition a match belongs to
type TournamentPhase string

const (
	PhaseRegular  TournamentPhase = "REGULAR"
	PhasePlayoff  TournamentPhase = "PLAYOFF"
	PhaseFinal    TournamentPhase = "FINAL"
	PhaseFriendly TournamentPhase = "FRIENDLY"
)

// IsKnockout reports whether the phase counts as playoff football/basketball
func (p TournamentPhase) IsKnockout() bool {
	return p == PhasePlayoff || p == PhaseFinal
}

// MatchStatus mirrors the provider's match lifecycle
type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchFinished  MatchStatus = "finished"
	MatchCancelled MatchStatus = "cancelled"
)

// Tournament is the competition metadata read at context build time
type Tournament struct {
	TournamentID string          `json:"tournament_id"`
	Name         string          `json:"name"`
	Phase        TournamentPhase `json:"phase"`
}

// LineupEntry describes one player's participation in a match
type LineupEntry struct {
	TeamID        string `json:"team_id"`
	Position      string `json:"position"`
	MinutesPlayed int    `json:"minutes_played"`
}

// Match is the match metadata record
type Match struct {
	MatchID      string                 `json:"match_id"`
	SportKey     string                 `json:"sport_key"`
	TournamentID string                 `json:"tournament_id"`
	HomeTeamID   string                 `json:"home_team_id"`
	AwayTeamID   string                 `json:"away_team_id"`
	HomeScore    int                    `json:"home_score"`
	AwayScore    int                    `json:"away_score"`
	Status       MatchStatus            `json:"status"`
	MaxDeficit   map[string]int         `json:"max_deficit,omitempty"` // team -> largest deficit faced
	Lineup       map[string]LineupEntry `json:"lineup,omitempty"`      // player -> entry
}

// MatchResult is the final state of a match as seen by post-match rules
type MatchResult struct {
	HomeTeamID   string                 `json:"home_team_id"`
	AwayTeamID   string                 `json:"away_team_id"`
	HomeScore    int                    `json:"home_score"`
	AwayScore    int                    `json:"away_score"`
	WinnerTeamID string                 `json:"winner_team_id"` // empty on a draw
	Status       MatchStatus            `json:"status"`
	GoalsAgainst map[string]int         `json:"goals_against"`
	MaxDeficit   map[string]int         `json:"max_deficit"`
	Lineup       map[string]LineupEntry `json:"lineup"`
}

// NewMatchResult derives the result view from match metadata
func NewMatchResult(m *Match) MatchResult {
	r := MatchResult{
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		HomeScore:  m.HomeScore,
		AwayScore:  m.AwayScore,
		Status:     m.Status,
		GoalsAgainst: map[string]int{
			m.HomeTeamID: m.AwayScore,
			m.AwayTeamID: m.HomeScore,
		},
		MaxDeficit: make(map[string]int, len(m.MaxDeficit)),
		Lineup:     make(map[string]LineupEntry, len(m.Lineup)),
	}

	switch {
	case m.HomeScore > m.AwayScore:
		r.WinnerTeamID = m.HomeTeamID
	case m.AwayScore > m.HomeScore:
		r.WinnerTeamID = m.AwayTeamID
	}

	for team, d := range m.MaxDeficit {
		r.MaxDeficit[team] = d
	}
	for player, entry := range m.Lineup {
		r.Lineup[player] = entry
	}

	return r
}

// Won reports whether the team won the match
func (r MatchResult) Won(teamID string) bool {
	return teamID != "" && r.WinnerTeamID == teamID
}

// MinutesPlayed returns the minutes a player was on the field (0 if unknown)
func (r MatchResult) MinutesPlayed(playerID string) int {
	return r.Lineup[playerID].MinutesPlayed
}

// Position returns the player's lineup position (empty if unknown)
func (r MatchResult) Position(playerID string) string {
	return r.Lineup[playerID].Position
}

// PlayerMatchContext is the per-player aggregate folded from the event log
type PlayerMatchContext struct {
	PlayerID string            `json:"player_id"`
	TeamID   string            `json:"team_id"`
	Counts   map[EventType]int `json:"counts"`
	Points   int               `json:"points"` // Cumulative live points, in log order
	Events   int               `json:"events"`
}

// Count returns the number of events of a type
func (p *PlayerMatchContext) Count(t EventType) int {
	return p.Counts[t]
}

// MatchContext is the reconstructed match state used for post-match evaluation
type MatchContext struct {
	MatchID    string               `json:"match_id"`
	SportKey   string               `json:"sport_key"`
	Result     MatchResult          `json:"result"`
	Tournament Tournament           `json:"tournament"`
	Players    []PlayerMatchContext `json:"players"` // Sorted by PlayerID
}

// Player returns the context for a player, or nil if absent
func (m *MatchContext) Player(playerID string) *PlayerMatchContext {
	i := sort.Search(len(m.Players), func(i int) bool {
		return m.Players[i].PlayerID >= playerID
	})
	if i < len(m.Players) && m.Players[i].PlayerID == playerID {
		return &m.Players[i]
	}
	return nil
}
