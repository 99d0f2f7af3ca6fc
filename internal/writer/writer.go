package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Nike/pkg/models"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 250 * time.Millisecond
	scoreStreamFormat    = "scores.live.%s" // scores.live.soccer
)

// TotalsUpdater receives newly persisted updates (internal/totals)
type TotalsUpdater interface {
	Apply(ctx context.Context, updates []models.PlayerScoreUpdate) error
}

// Writer batches live score writes to Postgres and publishes them to Redis Streams.
// Implements the write-through cache pattern.
type Writer struct {
	db     *sql.DB
	redis  *redis.Client
	totals TotalsUpdater // Optional running totals cache
	logger *slog.Logger

	batchSize     int
	flushInterval time.Duration

	buffer []pending
	mu     sync.Mutex

	flushTicker *time.Ticker
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// pending is a buffered update, the event it came from, and its completion callback
type pending struct {
	event  models.MatchEvent
	update models.PlayerScoreUpdate
	done   func(error)
}

// ScoreMessage is published to the live score stream
type ScoreMessage struct {
	PlayerID        string    `json:"player_id"`
	MatchID         string    `json:"match_id"`
	SportKey        string    `json:"sport_key"`
	EventID         string    `json:"event_id"`
	Points          int       `json:"points"`
	SourceEventType string    `json:"source_event_type"`
	Origin          string    `json:"origin"`
	ProviderID      string    `json:"provider_id"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewWriter creates a new batching writer
func NewWriter(db *sql.DB, redisClient *redis.Client, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		db:            db,
		redis:         redisClient,
		logger:        logger.With("component", "writer"),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		buffer:        make([]pending, 0, defaultBatchSize),
		stopChan:      make(chan struct{}),
	}
}

// SetTotals sets the running totals cache
func (w *Writer) SetTotals(t TotalsUpdater) {
	w.totals = t
}

// SetBatching overrides the batch size and flush interval
func (w *Writer) SetBatching(batchSize int, flushInterval time.Duration) {
	if batchSize > 0 {
		w.batchSize = batchSize
	}
	if flushInterval > 0 {
		w.flushInterval = flushInterval
	}
}

// Start begins the background flush ticker
func (w *Writer) Start(ctx context.Context) {
	w.flushTicker = time.NewTicker(w.flushInterval)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.flushTicker.C:
				if err := w.Flush(ctx); err != nil {
					w.logger.Error("flush failed", "error", err)
				}
			case <-w.stopChan:
				w.flushTicker.Stop()
				// Final flush on shutdown
				if err := w.Flush(context.Background()); err != nil {
					w.logger.Error("final flush failed", "error", err)
				}
				return
			case <-ctx.Done():
				w.flushTicker.Stop()
				return
			}
		}
	}()
}

// Stop gracefully shuts down the writer
func (w *Writer) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

// Enqueue buffers an event with its score update and flushes if batch size is reached.
// done is called with the flush outcome once both are durable (or failed).
func (w *Writer) Enqueue(ctx context.Context, event models.MatchEvent, update models.PlayerScoreUpdate, done func(error)) error {
	w.mu.Lock()
	w.buffer = append(w.buffer, pending{event: event, update: update, done: done})
	shouldFlush := len(w.buffer) >= w.batchSize
	w.mu.Unlock()

	if shouldFlush {
		return w.Flush(ctx)
	}

	return nil
}

// WriteScores writes updates immediately (bypass buffer)
func (w *Writer) WriteScores(ctx context.Context, updates []models.PlayerScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	_, err := w.persist(ctx, nil, updates)
	return err
}

// Flush writes buffered updates and reports the outcome to each caller
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}

	// Swap buffer
	batch := w.buffer
	w.buffer = make([]pending, 0, w.batchSize)
	w.mu.Unlock()

	events := make([]models.MatchEvent, len(batch))
	updates := make([]models.PlayerScoreUpdate, len(batch))
	for i, p := range batch {
		events[i] = p.event
		updates[i] = p.update
	}

	_, err := w.persist(ctx, events, updates)
	for _, p := range batch {
		if p.done != nil {
			p.done(err)
		}
	}

	return err
}

// persist appends events and updates in one transaction, then fans out the
// updates that were new. Returns the number of updates inserted.
func (w *Writer) persist(ctx context.Context, events []models.MatchEvent, updates []models.PlayerScoreUpdate) (int, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Step 1: Append to the match event log
	if len(events) > 0 {
		if err := w.appendEvents(ctx, tx, events); err != nil {
			return 0, fmt.Errorf("append match events: %w", err)
		}
	}

	// Step 2: Insert score updates
	inserted, err := w.insertScores(ctx, tx, updates)
	if err != nil {
		return 0, fmt.Errorf("insert score updates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	fresh := filterInserted(updates, inserted)
	if len(fresh) < len(updates) {
		w.logger.Debug("skipped redelivered updates", "count", len(updates)-len(fresh))
	}

	// Publish to Redis Streams (after successful DB write)
	if err := w.publishToStream(ctx, fresh); err != nil {
		// Log but don't fail - DB is source of truth
		w.logger.Warn("publish to stream failed", "error", err)
	}

	if w.totals != nil {
		if err := w.totals.Apply(ctx, fresh); err != nil {
			w.logger.Warn("update running totals failed", "error", err)
		}
	}

	return len(fresh), nil
}

// appendEvents adds events to the log; an event already logged is left untouched
func (w *Writer) appendEvents(ctx context.Context, tx *sql.Tx, events []models.MatchEvent) error {
	query := `
		INSERT INTO match_events (
			event_id, match_id, sport_key, provider_id, occurred_at,
			event_type, player_id, team_id, minute, sequence, metadata
		)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::timestamptz[],
			$6::text[], $7::text[], $8::text[], $9::int[], $10::bigint[], $11::jsonb[]
		)
		ON CONFLICT (event_id) DO NOTHING
	`

	n := len(events)
	eventIDs := make([]string, n)
	matchIDs := make([]string, n)
	sportKeys := make([]string, n)
	providers := make([]string, n)
	occurredAts := make([]time.Time, n)
	types := make([]string, n)
	playerIDs := make([]string, n)
	teamIDs := make([]string, n)
	minutes := make([]int64, n)
	sequences := make([]int64, n)
	metadata := make([]string, n)

	for i, e := range events {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", e.EventID, err)
		}
		eventIDs[i] = e.EventID
		matchIDs[i] = e.MatchID
		sportKeys[i] = e.SportKey
		providers[i] = e.ProviderID
		occurredAts[i] = e.Timestamp
		types[i] = string(e.Type)
		playerIDs[i] = e.PlayerID
		teamIDs[i] = e.TeamID
		minutes[i] = int64(e.Minute)
		sequences[i] = e.Sequence
		metadata[i] = string(meta)
	}

	_, err := tx.ExecContext(ctx, query,
		pq.Array(eventIDs), pq.Array(matchIDs), pq.Array(sportKeys), pq.Array(providers), pq.Array(occurredAts),
		pq.Array(types), pq.Array(playerIDs), pq.Array(teamIDs), pq.Array(minutes), pq.Array(sequences),
		pq.Array(metadata),
	)
	return err
}

// scoreKey identifies one update row
type scoreKey struct {
	eventID  string
	playerID string
}

// insertScores appends updates; redelivered rows hit the unique key and are skipped.
// Returns the keys of rows actually inserted.
func (w *Writer) insertScores(ctx context.Context, tx *sql.Tx, updates []models.PlayerScoreUpdate) (map[scoreKey]bool, error) {
	query := `
		INSERT INTO player_score_updates (
			event_id, player_id, match_id, sport_key, points,
			source_event_type, origin, provider_id, event_timestamp
		)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::int[],
			$6::text[], $7::text[], $8::text[], $9::timestamptz[]
		)
		ON CONFLICT (event_id, player_id, origin) DO NOTHING
		RETURNING event_id, player_id
	`

	eventIDs := make([]string, len(updates))
	playerIDs := make([]string, len(updates))
	matchIDs := make([]string, len(updates))
	sportKeys := make([]string, len(updates))
	points := make([]int64, len(updates))
	sourceTypes := make([]string, len(updates))
	origins := make([]string, len(updates))
	providers := make([]string, len(updates))
	timestamps := make([]time.Time, len(updates))

	for i, u := range updates {
		eventIDs[i] = u.EventID
		playerIDs[i] = u.PlayerID
		matchIDs[i] = u.MatchID
		sportKeys[i] = u.SportKey
		points[i] = int64(u.Points)
		sourceTypes[i] = string(u.SourceEventType)
		origins[i] = string(u.Origin)
		providers[i] = u.ProviderID
		timestamps[i] = u.Timestamp
	}

	rows, err := tx.QueryContext(ctx, query,
		pq.Array(eventIDs), pq.Array(playerIDs), pq.Array(matchIDs), pq.Array(sportKeys), pq.Array(points),
		pq.Array(sourceTypes), pq.Array(origins), pq.Array(providers), pq.Array(timestamps),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inserted := make(map[scoreKey]bool, len(updates))
	for rows.Next() {
		var k scoreKey
		if err := rows.Scan(&k.eventID, &k.playerID); err != nil {
			return nil, fmt.Errorf("scan inserted key: %w", err)
		}
		inserted[k] = true
	}
	return inserted, rows.Err()
}

// filterInserted keeps the updates whose rows were new, once each, in input order
func filterInserted(updates []models.PlayerScoreUpdate, inserted map[scoreKey]bool) []models.PlayerScoreUpdate {
	fresh := make([]models.PlayerScoreUpdate, 0, len(inserted))
	for _, u := range updates {
		k := scoreKey{eventID: u.EventID, playerID: u.PlayerID}
		if inserted[k] {
			fresh = append(fresh, u)
			delete(inserted, k)
		}
	}
	return fresh
}

// publishToStream publishes score updates to per-sport Redis Streams
func (w *Writer) publishToStream(ctx context.Context, updates []models.PlayerScoreUpdate) error {
	if len(updates) == 0 || w.redis == nil {
		return nil
	}

	// Group by sport for separate streams
	bySport := make(map[string][]models.PlayerScoreUpdate)
	for _, u := range updates {
		bySport[u.SportKey] = append(bySport[u.SportKey], u)
	}

	for sportKey, sportUpdates := range bySport {
		streamKey := fmt.Sprintf(scoreStreamFormat, sportKey)

		pipe := w.redis.Pipeline()

		for _, u := range sportUpdates {
			msg := ScoreMessage{
				PlayerID:        u.PlayerID,
				MatchID:         u.MatchID,
				SportKey:        u.SportKey,
				EventID:         u.EventID,
				Points:          u.Points,
				SourceEventType: string(u.SourceEventType),
				Origin:          string(u.Origin),
				ProviderID:      u.ProviderID,
				Timestamp:       u.Timestamp,
			}

			msgJSON, err := json.Marshal(msg)
			if err != nil {
				return fmt.Errorf("marshal stream message: %w", err)
			}

			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: streamKey,
				Values: map[string]interface{}{
					"data": msgJSON,
				},
			})
		}

		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis pipeline exec for stream: %w", err)
		}
	}

	return nil
}
