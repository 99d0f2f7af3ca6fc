package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// KickOff is the fixed start time used by fixtures so results stay reproducible
var KickOff = time.Date(2026, 5, 30, 19, 0, 0, 0, time.UTC)

// NewTestEvent creates a test event. The event id is derived from match and sequence.
func NewTestEvent(sportKey, matchID string, seq int64, eventType models.EventType, playerID, teamID string, minute int) models.MatchEvent {
	return models.MatchEvent{
		EventID:    fmt.Sprintf("%s-%d", matchID, seq),
		MatchID:    matchID,
		SportKey:   sportKey,
		ProviderID: "test-feed",
		Timestamp:  KickOff.Add(time.Duration(minute) * time.Minute),
		Type:       eventType,
		PlayerID:   playerID,
		TeamID:     teamID,
		Minute:     minute,
		Sequence:   seq,
	}
}

// NewTestMatch creates a finished match
func NewTestMatch(sportKey, matchID, home, away string, homeScore, awayScore int) *models.Match {
	return &models.Match{
		MatchID:      matchID,
		SportKey:     sportKey,
		TournamentID: "tournament-" + matchID,
		HomeTeamID:   home,
		AwayTeamID:   away,
		HomeScore:    homeScore,
		AwayScore:    awayScore,
		Status:       models.MatchFinished,
		MaxDeficit:   map[string]int{},
		Lineup:       map[string]models.LineupEntry{},
	}
}

// GoldenScenario is a complete match with the bonuses it must produce
type GoldenScenario struct {
	Name       string
	Match      *models.Match
	Tournament *models.Tournament
	Events     []models.MatchEvent

	// player -> expected total bonus points
	ExpectedBonus map[string]int
	// player -> expected rules, in result order
	ExpectedRules map[string][]string
}

// GetGoldenScenarios returns soccer scenarios with expected outputs
func GetGoldenScenarios() []GoldenScenario {
	return []GoldenScenario{
		{
			Name:       "Playoff Hat-trick",
			Match:      NewTestMatch("soccer", "m-hat", "T", "U", 3, 1),
			Tournament: &models.Tournament{TournamentID: "cup", Name: "Cup", Phase: models.PhasePlayoff},
			Events: []models.MatchEvent{
				NewTestEvent("soccer", "m-hat", 1, "GOAL", "P", "T", 23),
				NewTestEvent("soccer", "m-hat", 2, "GOAL", "P", "T", 45),
				NewTestEvent("soccer", "m-hat", 3, "GOAL", "P", "T", 78),
			},
			ExpectedBonus: map[string]int{"P": 75},
			ExpectedRules: map[string][]string{
				"P": {"hat_trick", "hat_trick_playoff", "team_victory"},
			},
		},
		{
			Name:       "Regular Season Hat-trick In A Draw",
			Match:      NewTestMatch("soccer", "m-draw", "T", "U", 3, 3),
			Tournament: &models.Tournament{TournamentID: "league", Name: "League", Phase: models.PhaseRegular},
			Events: []models.MatchEvent{
				NewTestEvent("soccer", "m-draw", 1, "GOAL", "P", "T", 10),
				NewTestEvent("soccer", "m-draw", 2, "GOAL", "P", "T", 50),
				NewTestEvent("soccer", "m-draw", 3, "GOAL", "P", "T", 88),
				NewTestEvent("soccer", "m-draw", 4, "GOAL", "Q", "U", 12),
			},
			ExpectedBonus: map[string]int{"P": 20, "Q": 0},
			ExpectedRules: map[string][]string{
				"P": {"hat_trick"},
				"Q": nil,
			},
		},
	}
}

// MemoryStore is an in-memory MatchStore, TournamentStore and EventLog
type MemoryStore struct {
	mu          sync.RWMutex
	matches     map[string]*models.Match
	tournaments map[string]*models.Tournament
	events      map[string][]models.MatchEvent

	// Err, when set, is returned by every read
	Err error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches:     make(map[string]*models.Match),
		tournaments: make(map[string]*models.Tournament),
		events:      make(map[string][]models.MatchEvent),
	}
}

// Load stores a golden scenario
func (s *MemoryStore) Load(sc GoldenScenario) {
	s.PutMatch(sc.Match, sc.Tournament)
	for _, e := range sc.Events {
		s.Append(e)
	}
}

// PutMatch stores a match and the tournament it belongs to
func (s *MemoryStore) PutMatch(m *models.Match, t *models.Tournament) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.MatchID] = m
	if t != nil {
		s.tournaments[m.MatchID] = t
	}
}

// PutTournament links a tournament to a match id
func (s *MemoryStore) PutTournament(matchID string, t *models.Tournament) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournaments[matchID] = t
}

// Append adds an event to the match log
func (s *MemoryStore) Append(e models.MatchEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.MatchID] = append(s.events[e.MatchID], e)
}

func (s *MemoryStore) GetMatch(_ context.Context, matchID string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	m, ok := s.matches[matchID]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return m, nil
}

func (s *MemoryStore) GetTournamentByMatch(_ context.Context, matchID string) (*models.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.tournaments[matchID]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) ReadMatchEvents(_ context.Context, matchID string) ([]models.MatchEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]models.MatchEvent(nil), s.events[matchID]...), nil
}

// RecordingSink captures everything written to it
type RecordingSink struct {
	mu      sync.Mutex
	Scores  []models.PlayerScoreUpdate
	Results map[string]*models.MatchBonusResult
	Writes  int

	// Err, when set, fails every write
	Err error
}

// NewRecordingSink creates an empty sink
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{Results: make(map[string]*models.MatchBonusResult)}
}

func (s *RecordingSink) WriteScores(_ context.Context, updates []models.PlayerScoreUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Scores = append(s.Scores, updates...)
	return nil
}

func (s *RecordingSink) ReplaceBonusResult(_ context.Context, result *models.MatchBonusResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Writes++
	s.Results[result.MatchID] = result
	return nil
}

// RecordingNotifier captures notifications
type RecordingNotifier struct {
	mu   sync.Mutex
	Sent []models.PlayerBonus

	// Err, when set, fails every notification
	Err error
}

func (n *RecordingNotifier) NotifyBonus(_ context.Context, _ string, award models.PlayerBonus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, award)
	return nil
}
