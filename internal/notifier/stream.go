package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Nike/pkg/models"
)

// DefaultStream is the Redis stream bonus notifications are published to
const DefaultStream = "notifications.bonus"

// StreamNotifier publishes notifications to a Redis stream
type StreamNotifier struct {
	redis  *redis.Client
	stream string
	now    func() time.Time
}

// NewStreamNotifier creates a notifier publishing to DefaultStream
func NewStreamNotifier(redisClient *redis.Client) *StreamNotifier {
	return &StreamNotifier{
		redis:  redisClient,
		stream: DefaultStream,
		now:    time.Now,
	}
}

// NotifyBonus appends one notification to the stream
func (n *StreamNotifier) NotifyBonus(ctx context.Context, matchID string, award models.PlayerBonus) error {
	values, err := streamValues(newNotification(matchID, award, n.now()))
	if err != nil {
		return err
	}

	err = n.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd to stream: %w", err)
	}

	return nil
}

// streamValues lays out one stream entry. message_id lets readers drop
// notifications re-sent by a recalculation.
func streamValues(notification Notification) (map[string]interface{}, error) {
	data, err := json.Marshal(notification)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	return map[string]interface{}{
		"message_id": notification.MessageID,
		"match_id":   notification.MatchID,
		"player_id":  notification.PlayerID,
		"data":       string(data),
	}, nil
}
