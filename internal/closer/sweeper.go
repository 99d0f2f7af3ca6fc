// Package closer finishes off matches: it finds finished matches that never got
// a bonus result and runs the bonus calculation for them
package closer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/XavierBriggs/Nike/internal/store"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// FinishedFinder lists finished matches without a stored bonus result (internal/store)
type FinishedFinder interface {
	ListFinishedWithoutBonus(ctx context.Context, afterMatchID string, limit int) ([]store.FinishedMatch, error)
}

// MatchProcessor calculates and persists a match's bonuses (bonus.Processor)
type MatchProcessor interface {
	Process(ctx context.Context, matchID string) (*models.MatchBonusResult, error)
}

// Sweeper periodically processes finished matches whose match-finished signal was missed
type Sweeper struct {
	finder       FinishedFinder
	processor    MatchProcessor
	pollInterval time.Duration
	limit        int
	logger       *slog.Logger
	stopChan     chan struct{}
}

// NewSweeper creates a new finished-match sweeper
func NewSweeper(finder FinishedFinder, processor MatchProcessor, pollInterval time.Duration, limit int, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &Sweeper{
		finder:       finder,
		processor:    processor,
		pollInterval: pollInterval,
		limit:        limit,
		logger:       logger.With("component", "sweeper"),
		stopChan:     make(chan struct{}),
	}
}

// Start runs sweeps until Stop is called or ctx is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.logger.Info("finished-match sweeper started", "interval", s.pollInterval)

	// Initial sweep immediately
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("initial sweep failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			}
		case <-s.stopChan:
			s.logger.Info("finished-match sweeper stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop gracefully stops the sweeper
func (s *Sweeper) Stop() {
	close(s.stopChan)
}

// Sweep walks every finished match without a result, one page at a time, and
// returns how many got a result. A failing match is logged and retried on the
// next sweep; the walk continues past it so it never blocks later matches.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	processed := 0
	after := ""
	for {
		matches, err := s.finder.ListFinishedWithoutBonus(ctx, after, s.limit)
		if err != nil {
			return processed, fmt.Errorf("list finished matches: %w", err)
		}

		for _, m := range matches {
			if err := ctx.Err(); err != nil {
				return processed, err
			}

			result, err := s.processor.Process(ctx, m.MatchID)
			if err != nil {
				s.logger.Warn("process finished match failed",
					"match_id", m.MatchID, "sport", m.SportKey, "error", err)
				continue
			}

			processed++
			s.logger.Info("processed finished match",
				"match_id", m.MatchID, "sport", m.SportKey, "awards", len(result.Entries))
		}

		if len(matches) == 0 || len(matches) < s.limit {
			return processed, nil
		}
		after = matches[len(matches)-1].MatchID
	}
}
