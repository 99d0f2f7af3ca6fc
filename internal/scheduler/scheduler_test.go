package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Nike/internal/consumer"
	"github.com/XavierBriggs/Nike/internal/lanes"
	"github.com/XavierBriggs/Nike/internal/registry"
	"github.com/XavierBriggs/Nike/internal/scoring"
	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
	"github.com/XavierBriggs/Nike/pkg/testutil"
	"github.com/XavierBriggs/Nike/sports/soccer"
)

// fakeQueue persists immediately and reports flushErr to every caller
type fakeQueue struct {
	mu       sync.Mutex
	updates  []models.PlayerScoreUpdate
	flushErr error
	started  bool
	stopped  bool
}

func (q *fakeQueue) Start(context.Context) { q.started = true }
func (q *fakeQueue) Stop()                 { q.stopped = true }

func (q *fakeQueue) Enqueue(_ context.Context, _ models.MatchEvent, u models.PlayerScoreUpdate, done func(error)) error {
	q.mu.Lock()
	if q.flushErr == nil {
		q.updates = append(q.updates, u)
	}
	q.mu.Unlock()
	done(q.flushErr)
	return q.flushErr
}

type fakeBonuses struct {
	err     error
	matches []string
}

func (b *fakeBonuses) Process(_ context.Context, matchID string) (*models.MatchBonusResult, error) {
	b.matches = append(b.matches, matchID)
	if b.err != nil {
		return nil, b.err
	}
	return &models.MatchBonusResult{MatchID: matchID, SportKey: "soccer"}, nil
}

func newTestScheduler(t *testing.T, q *fakeQueue, b *fakeBonuses) *Scheduler {
	t.Helper()
	reg, err := registry.NewSportRegistry(soccer.NewModule())
	require.NoError(t, err)
	return NewScheduler(reg, scoring.NewApplier(reg), q, b, 2, 8, nil)
}

func TestScoreEvent(t *testing.T) {
	goal := testutil.NewTestEvent("soccer", "m1", 1, soccer.Goal, "P", "T", 23)

	noPlayer := goal
	noPlayer.PlayerID = ""

	curling := goal
	curling.SportKey = "curling"

	tests := []struct {
		name       string
		event      models.MatchEvent
		flushErr   error
		wantAck    bool
		wantPoints []int
	}{
		{"goal is scored and acked", goal, nil, true, []int{10}},
		{"unknown sport acked without update", curling, nil, true, nil},
		{"invalid event acked without update", noPlayer, nil, true, nil},
		{"failed flush leaves event unacked", goal, errors.New("db down"), false, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{flushErr: tt.flushErr}
			s := newTestScheduler(t, q, &fakeBonuses{})

			acked := false
			s.scoreEvent(context.Background(), lanes.Job{Event: tt.event, Ack: func() { acked = true }})

			assert.Equal(t, tt.wantAck, acked)
			var points []int
			for _, u := range q.updates {
				points = append(points, u.Points)
			}
			assert.Equal(t, tt.wantPoints, points)
		})
	}
}

func TestScheduler_EndToEndOrdering(t *testing.T) {
	q := &fakeQueue{}
	s := newTestScheduler(t, q, &fakeBonuses{})

	ctx := context.Background()
	s.Start(ctx)

	var mu sync.Mutex
	acks := 0
	ack := func() {
		mu.Lock()
		acks++
		mu.Unlock()
	}

	events := []models.MatchEvent{
		testutil.NewTestEvent("soccer", "m1", 1, soccer.Goal, "P", "T", 23),
		testutil.NewTestEvent("soccer", "m1", 2, soccer.Assist, "Q", "T", 23),
		testutil.NewTestEvent("soccer", "m1", 3, soccer.YellowCard, "P", "T", 40),
	}
	for _, e := range events {
		s.HandleEvent(ctx, e, ack)
	}

	s.Stop()

	assert.True(t, q.started)
	assert.True(t, q.stopped)
	assert.Equal(t, 3, acks)

	// One match maps to one lane, so updates keep arrival order
	require.Len(t, q.updates, 3)
	for i, u := range q.updates {
		assert.Equal(t, events[i].EventID, u.EventID)
	}
}

func TestScheduler_HandleEventAfterStop(t *testing.T) {
	s := newTestScheduler(t, &fakeQueue{}, &fakeBonuses{})
	s.Start(context.Background())
	s.Stop()

	acked := false
	s.HandleEvent(context.Background(), testutil.NewTestEvent("soccer", "m1", 1, soccer.Goal, "P", "T", 1), func() { acked = true })
	assert.False(t, acked)
}

func TestHandleFinished(t *testing.T) {
	b := &fakeBonuses{}
	s := newTestScheduler(t, &fakeQueue{}, b)

	require.NoError(t, s.HandleFinished(context.Background(), consumer.MatchFinished{MatchID: "m1", SportKey: "soccer"}))
	assert.Equal(t, []string{"m1"}, b.matches)

	b.err = &contracts.ContextBuildError{MatchID: "m2", Stage: "events", Err: errors.New("timeout")}
	err := s.HandleFinished(context.Background(), consumer.MatchFinished{MatchID: "m2"})
	var buildErr *contracts.ContextBuildError
	assert.True(t, errors.As(err, &buildErr))
}
