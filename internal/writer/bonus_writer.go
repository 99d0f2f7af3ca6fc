package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Nike/pkg/models"
)

const bonusStreamFormat = "bonuses.calculated.%s" // bonuses.calculated.soccer

// BonusWriter stores bonus results. Each write replaces the match's previous
// result in a single transaction, so a recalculation never adds to it.
type BonusWriter struct {
	db     *sql.DB
	redis  *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// BonusMessage is published once a result is stored
type BonusMessage struct {
	ResultID string               `json:"result_id"`
	MatchID  string               `json:"match_id"`
	SportKey string               `json:"sport_key"`
	Entries  []models.PlayerBonus `json:"entries"`
}

// NewBonusWriter creates a bonus result writer. redisClient may be nil.
func NewBonusWriter(db *sql.DB, redisClient *redis.Client, logger *slog.Logger) *BonusWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BonusWriter{
		db:     db,
		redis:  redisClient,
		logger: logger.With("component", "bonus_writer"),
		now:    time.Now,
	}
}

// ReplaceBonusResult atomically swaps the stored result for the match
func (w *BonusWriter) ReplaceBonusResult(ctx context.Context, result *models.MatchBonusResult) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Step 1: Record which result is current. The row lock on match_id
	// serializes concurrent replaces of the same match.
	if err := w.upsertResult(ctx, tx, result); err != nil {
		return fmt.Errorf("upsert bonus result: %w", err)
	}

	// Step 2: Drop the previous result's rows
	if _, err := tx.ExecContext(ctx, `DELETE FROM player_bonuses WHERE match_id = $1`, result.MatchID); err != nil {
		return fmt.Errorf("delete previous bonuses: %w", err)
	}

	// Step 3: Insert the new rows
	if err := w.insertBonuses(ctx, tx, result); err != nil {
		return fmt.Errorf("insert bonuses: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if err := w.publish(ctx, result); err != nil {
		// Log but don't fail - DB is source of truth
		w.logger.Warn("publish bonus result failed", "match_id", result.MatchID, "error", err)
	}

	return nil
}

// insertBonuses writes one row per (player, bonus) keeping result order
func (w *BonusWriter) insertBonuses(ctx context.Context, tx *sql.Tx, result *models.MatchBonusResult) error {
	if len(result.Entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO player_bonuses (
			match_id, result_id, position, player_id, rule, points, description
		)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::int[], $4::text[], $5::text[], $6::int[], $7::text[]
		)
	`

	n := len(result.Entries)
	matchIDs := make([]string, n)
	resultIDs := make([]string, n)
	positions := make([]int64, n)
	playerIDs := make([]string, n)
	rules := make([]string, n)
	points := make([]int64, n)
	descriptions := make([]string, n)

	for i, e := range result.Entries {
		matchIDs[i] = result.MatchID
		resultIDs[i] = result.ResultID
		positions[i] = int64(i)
		playerIDs[i] = e.PlayerID
		rules[i] = e.Bonus.Rule
		points[i] = int64(e.Bonus.Points)
		descriptions[i] = e.Bonus.Description
	}

	_, err := tx.ExecContext(ctx, query,
		pq.Array(matchIDs), pq.Array(resultIDs), pq.Array(positions), pq.Array(playerIDs),
		pq.Array(rules), pq.Array(points), pq.Array(descriptions),
	)
	return err
}

// upsertResult marks the result as the match's current one
func (w *BonusWriter) upsertResult(ctx context.Context, tx *sql.Tx, result *models.MatchBonusResult) error {
	query := `
		INSERT INTO match_bonus_results (match_id, sport_key, result_id, award_count, calculated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (match_id)
		DO UPDATE SET
			sport_key = EXCLUDED.sport_key,
			result_id = EXCLUDED.result_id,
			award_count = EXCLUDED.award_count,
			calculated_at = EXCLUDED.calculated_at
	`

	_, err := tx.ExecContext(ctx, query,
		result.MatchID, result.SportKey, result.ResultID, len(result.Entries), w.now().UTC(),
	)
	return err
}

// publish announces the stored result on the sport's bonus stream
func (w *BonusWriter) publish(ctx context.Context, result *models.MatchBonusResult) error {
	if w.redis == nil {
		return nil
	}

	data, err := json.Marshal(BonusMessage{
		ResultID: result.ResultID,
		MatchID:  result.MatchID,
		SportKey: result.SportKey,
		Entries:  result.Entries,
	})
	if err != nil {
		return fmt.Errorf("marshal bonus message: %w", err)
	}

	return w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: fmt.Sprintf(bonusStreamFormat, result.SportKey),
		Values: map[string]interface{}{
			"data": data,
		},
	}).Err()
}
