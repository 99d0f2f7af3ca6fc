package totals

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Nike/pkg/models"
)

// Engine keeps running live point totals per match in Redis.
// Postgres remains the source of truth; this is a read cache for the admin API.
type Engine struct {
	redis *redis.Client
	ttl   time.Duration
}

// PlayerTotal is one player's running total for a match
type PlayerTotal struct {
	PlayerID string `json:"player_id"`
	Points   int    `json:"points"`
}

// NewEngine creates a new totals cache
func NewEngine(redisClient *redis.Client, ttl time.Duration) *Engine {
	return &Engine{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Apply adds newly persisted updates to the running totals (write-through pattern).
// Call only with rows that were actually inserted so redeliveries are not double counted.
func (e *Engine) Apply(ctx context.Context, updates []models.PlayerScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	pipe := e.redis.Pipeline()

	for matchID, players := range Aggregate(updates) {
		key := BuildKey(matchID)
		for playerID, points := range players {
			pipe.HIncrBy(ctx, key, playerID, int64(points))
		}
		if e.ttl > 0 {
			pipe.Expire(ctx, key, e.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec: %w", err)
	}

	return nil
}

// GetMatchTotals returns a match's running totals, highest first
func (e *Engine) GetMatchTotals(ctx context.Context, matchID string) ([]PlayerTotal, error) {
	values, err := e.redis.HGetAll(ctx, BuildKey(matchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	return parseTotals(values), nil
}

// RebuildMatch replaces a match's totals, e.g. from a rebuilt match context.
// Called after a Redis restart or a correction.
func (e *Engine) RebuildMatch(ctx context.Context, matchID string, points map[string]int) error {
	key := BuildKey(matchID)

	pipe := e.redis.TxPipeline()
	pipe.Del(ctx, key)
	if len(points) > 0 {
		values := make(map[string]interface{}, len(points))
		for playerID, p := range points {
			values[playerID] = p
		}
		pipe.HSet(ctx, key, values)
		if e.ttl > 0 {
			pipe.Expire(ctx, key, e.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis rebuild totals: %w", err)
	}
	return nil
}

// Aggregate sums updates per match and player
func Aggregate(updates []models.PlayerScoreUpdate) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, u := range updates {
		if u.PlayerID == "" {
			continue
		}
		players, ok := out[u.MatchID]
		if !ok {
			players = make(map[string]int)
			out[u.MatchID] = players
		}
		players[u.PlayerID] += u.Points
	}
	return out
}

// BuildKey creates the Redis key for a match's totals
// Format: scores:live:{match_id}
func BuildKey(matchID string) string {
	return fmt.Sprintf("scores:live:%s", matchID)
}

// parseTotals converts a Redis hash into sorted totals, skipping corrupt fields
func parseTotals(values map[string]string) []PlayerTotal {
	totals := make([]PlayerTotal, 0, len(values))
	for playerID, raw := range values {
		points, err := strconv.Atoi(raw)
		if err != nil {
			// Cache corruption, skip
			continue
		}
		totals = append(totals, PlayerTotal{PlayerID: playerID, Points: points})
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Points != totals[j].Points {
			return totals[i].Points > totals[j].Points
		}
		return totals[i].PlayerID < totals[j].PlayerID
	})
	return totals
}
