// Package matchctx reconstructs a finished match's context by replaying its
// event log. Rebuilding from an unchanged log always yields an equal context.
package matchctx

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/XavierBriggs/Nike/internal/scoring"
	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// Builder folds a match's event log into a MatchContext
type Builder struct {
	matches     contracts.MatchStore
	tournaments contracts.TournamentStore
	events      contracts.EventLog
	rules       scoring.RuleSource
	logger      *slog.Logger
}

// NewBuilder creates a context builder
func NewBuilder(
	matches contracts.MatchStore,
	tournaments contracts.TournamentStore,
	events contracts.EventLog,
	rules scoring.RuleSource,
	logger *slog.Logger,
) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		matches:     matches,
		tournaments: tournaments,
		events:      events,
		rules:       rules,
		logger:      logger.With("component", "matchctx"),
	}
}

// Build reconstructs the context for a match. Any missing or unreadable input
// fails with ContextBuildError; no partial context is ever returned.
func (b *Builder) Build(ctx context.Context, matchID string) (*models.MatchContext, error) {
	// Step 1: Match and tournament metadata are independent reads
	var (
		match      *models.Match
		tournament *models.Tournament
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := b.matches.GetMatch(gctx, matchID)
		if err != nil {
			return &contracts.ContextBuildError{MatchID: matchID, Stage: "match", Err: err}
		}
		match = m
		return nil
	})
	g.Go(func() error {
		t, err := b.tournaments.GetTournamentByMatch(gctx, matchID)
		if err != nil {
			return &contracts.ContextBuildError{MatchID: matchID, Stage: "tournament", Err: err}
		}
		tournament = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rules, err := b.rules.LiveRules(match.SportKey)
	if err != nil {
		return nil, err
	}

	// Step 2: Read the log in log order
	log, err := b.events.ReadMatchEvents(ctx, matchID)
	if err != nil {
		return nil, &contracts.ContextBuildError{MatchID: matchID, Stage: "events", Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build context for match %s: %w", matchID, err)
	}

	// Steps 3-4: Partition by player and fold each partition
	partitions := Partition(log)
	players, err := foldAll(ctx, partitions, rules)
	if err != nil {
		return nil, fmt.Errorf("fold events for match %s: %w", matchID, err)
	}

	// The lineup is authoritative for team membership. Lineup players with no
	// recorded events still get a (zero) context.
	for playerID, entry := range match.Lineup {
		if p, ok := players[playerID]; ok {
			if entry.TeamID != "" {
				p.TeamID = entry.TeamID
				players[playerID] = p
			}
			continue
		}
		players[playerID] = models.PlayerMatchContext{
			PlayerID: playerID,
			TeamID:   entry.TeamID,
			Counts:   map[models.EventType]int{},
		}
	}

	// Step 5: Assemble
	mc := &models.MatchContext{
		MatchID:    matchID,
		SportKey:   match.SportKey,
		Result:     models.NewMatchResult(match),
		Tournament: *tournament,
		Players:    make([]models.PlayerMatchContext, 0, len(players)),
	}
	for _, p := range players {
		mc.Players = append(mc.Players, p)
	}
	sort.Slice(mc.Players, func(i, j int) bool {
		return mc.Players[i].PlayerID < mc.Players[j].PlayerID
	})

	b.logger.Debug("context built",
		"match_id", matchID, "events", len(log), "players", len(mc.Players))

	return mc, nil
}

// Partition splits a log into per-player slices, preserving log order within
// each player. Events without a player and repeated event ids are dropped.
func Partition(log []models.MatchEvent) map[string][]models.MatchEvent {
	ordered := append([]models.MatchEvent(nil), log...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	seen := make(map[string]bool, len(ordered))
	partitions := make(map[string][]models.MatchEvent)
	for _, e := range ordered {
		if e.PlayerID == "" {
			continue
		}
		if e.EventID != "" {
			if seen[e.EventID] {
				continue
			}
			seen[e.EventID] = true
		}
		partitions[e.PlayerID] = append(partitions[e.PlayerID], e)
	}
	return partitions
}

// Fold is the left-fold of one player's events into an accumulator
func Fold(playerID string, events []models.MatchEvent, rules []contracts.LiveRule) models.PlayerMatchContext {
	acc := models.PlayerMatchContext{
		PlayerID: playerID,
		Counts:   make(map[models.EventType]int),
	}
	for _, e := range events {
		acc = step(acc, e, rules)
	}
	return acc
}

// step applies one event to the accumulator
func step(acc models.PlayerMatchContext, e models.MatchEvent, rules []contracts.LiveRule) models.PlayerMatchContext {
	if acc.TeamID == "" {
		acc.TeamID = e.TeamID
	}
	acc.Counts[e.Type]++
	acc.Points += scoring.Points(e, rules)
	acc.Events++
	return acc
}

// foldAll folds every partition concurrently; each goroutine owns its accumulator
func foldAll(ctx context.Context, partitions map[string][]models.MatchEvent, rules []contracts.LiveRule) (map[string]models.PlayerMatchContext, error) {
	playerIDs := make([]string, 0, len(partitions))
	for id := range partitions {
		playerIDs = append(playerIDs, id)
	}
	sort.Strings(playerIDs)

	results := make([]models.PlayerMatchContext, len(playerIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(foldConcurrency)
	for i, id := range playerIDs {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Fold(id, partitions[id], rules)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]models.PlayerMatchContext, len(results))
	for _, r := range results {
		out[r.PlayerID] = r
	}
	return out, nil
}

const foldConcurrency = 8
