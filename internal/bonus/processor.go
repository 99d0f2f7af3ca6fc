package bonus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// Calculator is the pure side of the bonus pipeline
type Calculator interface {
	Calculate(ctx context.Context, matchID string) (*models.MatchBonusResult, error)
}

// Processor runs a calculation and hands the result to persistence and notification
type Processor struct {
	calc     Calculator
	sink     contracts.BonusSink
	notifier contracts.Notifier
	logger   *slog.Logger
}

// NewProcessor creates a processor. notifier may be nil.
func NewProcessor(calc Calculator, sink contracts.BonusSink, notifier contracts.Notifier, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		calc:     calc,
		sink:     sink,
		notifier: notifier,
		logger:   logger.With("component", "bonus_processor"),
	}
}

// Process calculates the match's bonuses, replaces the stored result and
// notifies every award. Safe to run more than once for the same match.
func (p *Processor) Process(ctx context.Context, matchID string) (*models.MatchBonusResult, error) {
	result, err := p.calc.Calculate(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if err := p.sink.ReplaceBonusResult(ctx, result); err != nil {
		return nil, fmt.Errorf("persist bonus result for match %s: %w", matchID, err)
	}

	p.notify(ctx, result)

	return result, nil
}

// notify delivers each award; failures are logged and never undo persistence
func (p *Processor) notify(ctx context.Context, result *models.MatchBonusResult) {
	if p.notifier == nil {
		return
	}

	failed := 0
	for _, award := range result.Entries {
		if err := p.notifier.NotifyBonus(ctx, result.MatchID, award); err != nil {
			failed++
			p.logger.Warn("bonus notification failed",
				"match_id", result.MatchID,
				"player_id", award.PlayerID,
				"rule", award.Bonus.Rule,
				"error", err)
		}
	}

	if failed > 0 {
		p.logger.Warn("some bonus notifications were not delivered",
			"match_id", result.MatchID, "failed", failed, "total", len(result.Entries))
	}
}
