// Package notifier delivers bonus award notifications to downstream consumers
package notifier

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// Notification is the payload published for one awarded bonus
type Notification struct {
	MessageID   string    `json:"message_id"`
	MatchID     string    `json:"match_id"`
	PlayerID    string    `json:"player_id"`
	Rule        string    `json:"rule"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	NotifiedAt  time.Time `json:"notified_at"`
}

// MessageID identifies an award across re-sends so consumers can drop duplicates
func MessageID(matchID string, award models.PlayerBonus) string {
	return matchID + ":" + award.PlayerID + ":" + award.Bonus.Rule
}

func newNotification(matchID string, award models.PlayerBonus, now time.Time) Notification {
	return Notification{
		MessageID:   MessageID(matchID, award),
		MatchID:     matchID,
		PlayerID:    award.PlayerID,
		Rule:        award.Bonus.Rule,
		Points:      award.Bonus.Points,
		Description: award.Bonus.Description,
		NotifiedAt:  now.UTC(),
	}
}

// RateLimited throttles another notifier with a token bucket
type RateLimited struct {
	next    contracts.Notifier
	limiter *rate.Limiter
}

// NewRateLimited wraps next so at most perSecond notifications are sent, with bursts up to burst
func NewRateLimited(next contracts.Notifier, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// NotifyBonus waits for a token, then delivers. Returns ctx's error if it expires first.
func (r *RateLimited) NotifyBonus(ctx context.Context, matchID string, award models.PlayerBonus) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.next.NotifyBonus(ctx, matchID, award)
}
