// Package scheduler wires the live and post-match pipelines together:
// stream messages in, lanes, live scoring, batched writes, bonus processing
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/XavierBriggs/Nike/internal/consumer"
	"github.com/XavierBriggs/Nike/internal/lanes"
	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// SportLookup resolves a sport plugin (internal/registry)
type SportLookup interface {
	Get(sportKey string) (contracts.SportModule, bool)
}

// LiveScorer turns one event into a score update (internal/scoring)
type LiveScorer interface {
	ApplyEvent(event models.MatchEvent) (models.PlayerScoreUpdate, error)
}

// ScoreQueue buffers updates for batched persistence (internal/writer)
type ScoreQueue interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(ctx context.Context, event models.MatchEvent, update models.PlayerScoreUpdate, done func(error)) error
}

// BonusProcessor calculates and stores a finished match's bonuses (internal/bonus)
type BonusProcessor interface {
	Process(ctx context.Context, matchID string) (*models.MatchBonusResult, error)
}

// Scheduler orchestrates both scoring phases for all registered sports
type Scheduler struct {
	sports  SportLookup
	scorer  LiveScorer
	queue   ScoreQueue
	bonuses BonusProcessor
	lanes   *lanes.Dispatcher
	logger  *slog.Logger
}

// NewScheduler creates a scheduler routing live events over laneCount ordered lanes
func NewScheduler(
	sports SportLookup,
	scorer LiveScorer,
	queue ScoreQueue,
	bonuses BonusProcessor,
	laneCount, laneQueueSize int,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		sports:  sports,
		scorer:  scorer,
		queue:   queue,
		bonuses: bonuses,
		logger:  logger.With("component", "scheduler"),
	}
	s.lanes = lanes.NewDispatcher(laneCount, laneQueueSize, s.scoreEvent, logger)
	return s
}

// Start begins the writer's background flush and the lanes
func (s *Scheduler) Start(ctx context.Context) {
	s.queue.Start(ctx)
	s.lanes.Start(ctx)
}

// Stop drains the lanes, then flushes the writer so every accepted event is acked
func (s *Scheduler) Stop() {
	s.lanes.Stop()
	s.queue.Stop()
}

// HandleEvent queues an event on its match's lane. An event that cannot be
// queued is left unacked and will be redelivered.
func (s *Scheduler) HandleEvent(ctx context.Context, event models.MatchEvent, ack func()) {
	if err := s.lanes.Submit(ctx, lanes.Job{Event: event, Ack: ack}); err != nil {
		s.logger.Warn("event not queued", "event_id", event.EventID, "match_id", event.MatchID, "error", err)
	}
}

// HandleFinished runs the post-match phase for a finished match
func (s *Scheduler) HandleFinished(ctx context.Context, signal consumer.MatchFinished) error {
	start := time.Now()

	result, err := s.bonuses.Process(ctx, signal.MatchID)
	if err != nil {
		return err
	}

	s.logger.Info("match bonuses processed",
		"match_id", signal.MatchID,
		"sport", result.SportKey,
		"awards", len(result.Entries),
		"duration", time.Since(start))
	return nil
}

// scoreEvent is the lane handler: validate, apply live rules, enqueue for persistence.
// Events that can never be scored are acked without an update.
func (s *Scheduler) scoreEvent(ctx context.Context, job lanes.Job) {
	event := job.Event
	ack := job.Ack
	if ack == nil {
		ack = func() {}
	}

	sport, ok := s.sports.Get(event.SportKey)
	if !ok {
		s.logger.Warn("dropping event for unknown sport",
			"event_id", event.EventID, "sport", event.SportKey)
		ack()
		return
	}

	if err := sport.ValidateEvent(event); err != nil {
		s.logger.Warn("dropping invalid event", "event_id", event.EventID, "error", err)
		ack()
		return
	}

	update, err := s.scorer.ApplyEvent(event)
	if err != nil {
		if errors.Is(err, contracts.ErrUnknownSport) {
			ack()
		}
		s.logger.Warn("apply live rules failed", "event_id", event.EventID, "error", err)
		return
	}

	err = s.queue.Enqueue(ctx, event, update, func(err error) {
		if err != nil {
			// Unacked; redelivery is idempotent
			s.logger.Warn("score update not persisted", "event_id", event.EventID, "error", err)
			return
		}
		ack()
	})
	if err != nil {
		s.logger.Error("flush failed", "error", err)
	}
}
