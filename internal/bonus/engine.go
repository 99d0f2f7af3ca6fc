// Package bonus evaluates a sport's post-match rules against a rebuilt match
// context and produces the match's bonus result.
package bonus

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// resultNamespace seeds content-derived result ids
var resultNamespace = uuid.MustParse("6f1b4d3e-2a8c-5e71-9b0d-4c3a2e1f8d57")

// ContextBuilder reconstructs a finished match's context
type ContextBuilder interface {
	Build(ctx context.Context, matchID string) (*models.MatchContext, error)
}

// RuleSource resolves a sport's rule sets
type RuleSource interface {
	GetRules(sportKey string) ([]contracts.LiveRule, []contracts.PostMatchRule, error)
}

// Engine computes post-match bonuses
type Engine struct {
	builder     ContextBuilder
	rules       RuleSource
	concurrency int
	logger      *slog.Logger
}

// NewEngine creates a bonus engine.
// concurrency bounds how many players are evaluated at once (<=0 means 8).
func NewEngine(builder ContextBuilder, rules RuleSource, concurrency int, logger *slog.Logger) *Engine {
	if concurrency <= 0 {
		concurrency = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		builder:     builder,
		rules:       rules,
		concurrency: concurrency,
		logger:      logger.With("component", "bonus"),
	}
}

// Calculate builds the match context and evaluates every post-match rule for
// every player. A context build failure aborts the whole calculation.
func (e *Engine) Calculate(ctx context.Context, matchID string) (*models.MatchBonusResult, error) {
	mc, err := e.builder.Build(ctx, matchID)
	if err != nil {
		return nil, err
	}

	_, post, err := e.rules.GetRules(mc.SportKey)
	if err != nil {
		return nil, err
	}

	return e.Evaluate(ctx, mc, post)
}

// Evaluate applies the rules to an already built context.
// Output order is player id ascending, then rule order (SortRules).
func (e *Engine) Evaluate(ctx context.Context, mc *models.MatchContext, rules []contracts.PostMatchRule) (*models.MatchBonusResult, error) {
	ordered := SortRules(rules)

	// One slot per player keeps the output order independent of scheduling
	slots := make([][]models.Bonus, len(mc.Players))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range mc.Players {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = e.evaluatePlayer(&mc.Players[i], mc, ordered)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate bonuses for match %s: %w", mc.MatchID, err)
	}

	result := &models.MatchBonusResult{
		MatchID:  mc.MatchID,
		SportKey: mc.SportKey,
		Entries:  []models.PlayerBonus{},
	}
	for i, bonuses := range slots {
		for _, b := range bonuses {
			result.Entries = append(result.Entries, models.PlayerBonus{
				PlayerID: mc.Players[i].PlayerID,
				Bonus:    b,
			})
		}
	}
	result.ResultID = ResultID(result)

	e.logger.Info("bonuses calculated",
		"match_id", mc.MatchID,
		"sport", mc.SportKey,
		"players", len(mc.Players),
		"awards", len(result.Entries),
		"result_id", result.ResultID)

	return result, nil
}

// evaluatePlayer runs every rule for one player; no rule suppresses another
func (e *Engine) evaluatePlayer(p *models.PlayerMatchContext, mc *models.MatchContext, rules []contracts.PostMatchRule) []models.Bonus {
	var bonuses []models.Bonus
	for _, rule := range rules {
		b, ok, err := evaluateRule(rule, p, mc)
		if err != nil {
			e.logger.Warn("rule evaluation failed",
				"match_id", mc.MatchID, "error", err)
			continue
		}
		if ok {
			bonuses = append(bonuses, b)
		}
	}
	return bonuses
}

// evaluateRule isolates one rule for one player. Panics and calculator errors
// come back as EvaluationError.
func evaluateRule(rule contracts.PostMatchRule, p *models.PlayerMatchContext, mc *models.MatchContext) (b models.Bonus, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok = models.Bonus{}, false
			err = &contracts.EvaluationError{
				Rule:     rule.Name,
				PlayerID: p.PlayerID,
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
	}()

	if !rule.Predicate(p, mc) {
		return models.Bonus{}, false, nil
	}

	b, err = rule.Calculate(p, mc)
	if err != nil {
		return models.Bonus{}, false, &contracts.EvaluationError{Rule: rule.Name, PlayerID: p.PlayerID, Err: err}
	}

	// A bonus is always tagged with the rule that produced it
	b.Rule = rule.Name
	return b, true, nil
}

// SortRules returns the rules ordered by priority descending, then name ascending
func SortRules(rules []contracts.PostMatchRule) []contracts.PostMatchRule {
	sorted := append([]contracts.PostMatchRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// ResultID derives a stable id from the result's content.
// Equal results (same match, same ordered entries) always share an id.
func ResultID(r *models.MatchBonusResult) string {
	var sb strings.Builder
	sb.WriteString(r.SportKey)
	sb.WriteByte('|')
	sb.WriteString(r.MatchID)
	for _, e := range r.Entries {
		sb.WriteByte('|')
		sb.WriteString(e.PlayerID)
		sb.WriteByte(':')
		sb.WriteString(e.Bonus.Rule)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(e.Bonus.Points))
	}
	return uuid.NewSHA1(resultNamespace, []byte(sb.String())).String()
}
