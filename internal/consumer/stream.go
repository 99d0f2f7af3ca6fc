// Package consumer reads match events and match-finished signals from Redis Streams
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Nike/internal/config"
	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

const (
	// Batch size for reading messages
	batchSize = 100

	// Block duration when waiting for new messages
	blockDuration = 1 * time.Second

	// Used when no pending retry interval is configured
	defaultPendingRetry = 30 * time.Second

	eventStreamPrefix    = "match.events."
	finishedStreamPrefix = "match.finished."
)

// MatchFinished is the signal published when a match ends
type MatchFinished struct {
	MatchID    string    `json:"match_id"`
	SportKey   string    `json:"sport_key"`
	FinishedAt time.Time `json:"finished_at"`
}

// Handler receives decoded stream messages.
// HandleEvent must call ack once the event's score update is durable.
type Handler interface {
	HandleEvent(ctx context.Context, event models.MatchEvent, ack func())
	HandleFinished(ctx context.Context, signal MatchFinished) error
}

// StreamConsumer consumes the per-sport event and match-finished streams with a consumer group
type StreamConsumer struct {
	redis   *redis.Client
	handler Handler
	streams config.StreamConfig
	logger  *slog.Logger

	// ack is XAck and claim is XAutoClaim by default; replaced in tests
	ack   func(ctx context.Context, stream, messageID string) error
	claim func(ctx context.Context, stream, start string) ([]redis.XMessage, string, error)
	wg    sync.WaitGroup
}

// NewStreamConsumer creates a new stream consumer
func NewStreamConsumer(redisClient *redis.Client, handler Handler, streams config.StreamConfig, logger *slog.Logger) *StreamConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	if streams.PendingRetryInterval <= 0 {
		streams.PendingRetryInterval = defaultPendingRetry
	}
	sc := &StreamConsumer{
		redis:   redisClient,
		handler: handler,
		streams: streams,
		logger:  logger.With("component", "consumer"),
	}
	sc.ack = sc.xack
	sc.claim = sc.xautoclaim
	return sc
}

// Start consumes every configured stream until ctx is cancelled
func (sc *StreamConsumer) Start(ctx context.Context) error {
	streams := append(sc.streams.EventStreams(), sc.streams.FinishedStreams()...)
	sc.logger.Info("stream consumer started", "streams", streams)

	// Create consumer groups for all streams (ignore errors if they already exist)
	for _, stream := range streams {
		sc.createConsumerGroup(ctx, stream)
	}

	for _, stream := range streams {
		sc.wg.Add(1)
		go func(stream string) {
			defer sc.wg.Done()
			sc.consumeStream(ctx, stream)
		}(stream)
	}

	<-ctx.Done()
	sc.wg.Wait()
	sc.logger.Info("stream consumer stopped")
	return nil
}

// createConsumerGroup creates a consumer group for a stream
func (sc *StreamConsumer) createConsumerGroup(ctx context.Context, stream string) {
	err := sc.redis.XGroupCreateMkStream(ctx, stream, sc.streams.ConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		sc.logger.Warn("create consumer group failed", "stream", stream, "error", err)
	}
}

// consumeStream first drains this consumer's pending entries (left unacked by a
// previous run), then reads new messages. Entries left unacked while running
// (a failed flush, a deferred bonus calculation) are reclaimed periodically.
func (sc *StreamConsumer) consumeStream(ctx context.Context, stream string) {
	sc.logger.Debug("consuming stream", "stream", stream)

	cursor := "0" // pending entries of this consumer
	lastRetry := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if cursor == ">" && time.Since(lastRetry) >= sc.streams.PendingRetryInterval {
			sc.retryPending(ctx, stream)
			lastRetry = time.Now()
		}

		result, err := sc.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    sc.streams.ConsumerGroup,
			Consumer: sc.streams.ConsumerID,
			Streams:  []string{stream, cursor},
			Count:    batchSize,
			Block:    blockDuration,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			sc.logger.Warn("stream read error", "stream", stream, "error", err)
			time.Sleep(time.Second)
			continue
		}

		last := ""
		for _, s := range result {
			for _, message := range s.Messages {
				sc.processMessage(ctx, s.Stream, message)
				last = message.ID
			}
		}

		if cursor == ">" {
			continue
		}
		// Walk the pending backlog past what was just read, then switch to new messages
		if last == "" {
			cursor = ">"
		} else {
			cursor = last
		}
	}
}

// retryPending reclaims and reprocesses entries that stayed unacked for longer
// than the retry interval, including those of consumers that went away
func (sc *StreamConsumer) retryPending(ctx context.Context, stream string) int {
	retried := 0
	start := "0-0"
	for ctx.Err() == nil {
		messages, next, err := sc.claim(ctx, stream, start)
		if err != nil {
			sc.logger.Warn("reclaim pending failed", "stream", stream, "error", err)
			break
		}

		for _, message := range messages {
			sc.processMessage(ctx, stream, message)
		}
		retried += len(messages)

		if len(messages) == 0 || next == "0-0" {
			break
		}
		start = next
	}

	if retried > 0 {
		sc.logger.Info("retried pending messages", "stream", stream, "count", retried)
	}
	return retried
}

// processMessage routes one message by stream type
func (sc *StreamConsumer) processMessage(ctx context.Context, stream string, msg redis.XMessage) {
	data, ok := msg.Values["data"].(string)
	if !ok {
		sc.logger.Warn("invalid message format", "stream", stream, "id", msg.ID)
		sc.ackMessage(ctx, stream, msg.ID)
		return
	}

	switch {
	case strings.HasPrefix(stream, eventStreamPrefix):
		sc.processEvent(ctx, stream, msg.ID, data)
	case strings.HasPrefix(stream, finishedStreamPrefix):
		sc.processFinished(ctx, stream, msg.ID, data)
	default:
		sc.logger.Warn("message from unexpected stream", "stream", stream, "id", msg.ID)
		sc.ackMessage(ctx, stream, msg.ID)
	}
}

// processEvent hands an event to the live pipeline; the ack is deferred until persisted
func (sc *StreamConsumer) processEvent(ctx context.Context, stream, messageID, data string) {
	var event models.MatchEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		sc.logger.Warn("undecodable match event", "stream", stream, "id", messageID, "error", err)
		sc.ackMessage(ctx, stream, messageID)
		return
	}

	// The ack may run after ctx is cancelled, during the writer's final flush
	ackCtx := context.WithoutCancel(ctx)
	sc.handler.HandleEvent(ctx, event, func() {
		sc.ackMessage(ackCtx, stream, messageID)
	})
}

// processFinished triggers a bonus calculation. Retryable failures stay pending
// and are reclaimed by retryPending; the sweeper also picks them up.
func (sc *StreamConsumer) processFinished(ctx context.Context, stream, messageID, data string) {
	var signal MatchFinished
	if err := json.Unmarshal([]byte(data), &signal); err != nil || signal.MatchID == "" {
		sc.logger.Warn("undecodable match-finished signal", "stream", stream, "id", messageID, "error", err)
		sc.ackMessage(ctx, stream, messageID)
		return
	}

	err := sc.handler.HandleFinished(ctx, signal)
	if err != nil {
		var buildErr *contracts.ContextBuildError
		if errors.As(err, &buildErr) && buildErr.Retryable() {
			sc.logger.Warn("bonus calculation deferred", "match_id", signal.MatchID, "error", err)
			return
		}
		sc.logger.Error("bonus calculation failed", "match_id", signal.MatchID, "error", err)
	}

	sc.ackMessage(ctx, stream, messageID)
}

// ackMessage acknowledges a message in the stream
func (sc *StreamConsumer) ackMessage(ctx context.Context, stream, messageID string) {
	if err := sc.ack(ctx, stream, messageID); err != nil {
		sc.logger.Warn("ack failed", "stream", stream, "id", messageID, "error", err)
	}
}

func (sc *StreamConsumer) xack(ctx context.Context, stream, messageID string) error {
	return sc.redis.XAck(ctx, stream, sc.streams.ConsumerGroup, messageID).Err()
}

func (sc *StreamConsumer) xautoclaim(ctx context.Context, stream, start string) ([]redis.XMessage, string, error) {
	return sc.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    sc.streams.ConsumerGroup,
		Consumer: sc.streams.ConsumerID,
		MinIdle:  sc.streams.PendingRetryInterval,
		Start:    start,
		Count:    batchSize,
	}).Result()
}
