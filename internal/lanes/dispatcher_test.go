package lanes

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Nike/pkg/models"
	"github.com/XavierBriggs/Nike/pkg/testutil"
)

func TestDispatcher_PreservesPerMatchOrder(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string][]int64)

	d := NewDispatcher(4, 8, func(_ context.Context, job Job) {
		// Jitter so lanes interleave
		time.Sleep(time.Duration(job.Event.Sequence%3) * time.Millisecond)
		mu.Lock()
		seen[job.Event.MatchID] = append(seen[job.Event.MatchID], job.Event.Sequence)
		mu.Unlock()
		job.Ack()
	}, nil)
	d.Start(context.Background())

	var acked atomic.Int64
	matches := []string{"m1", "m2", "m3", "m4", "m5", "m6"}
	for seq := int64(1); seq <= 20; seq++ {
		for _, m := range matches {
			job := Job{
				Event: testutil.NewTestEvent("soccer", m, seq, "SAVE", "p", "t", int(seq)),
				Ack:   func() { acked.Add(1) },
			}
			require.NoError(t, d.Submit(context.Background(), job))
		}
	}

	d.Stop()

	assert.Equal(t, int64(120), acked.Load())
	for _, m := range matches {
		got := seen[m]
		require.Len(t, got, 20, m)
		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i-1], got[i], "match %s out of order", m)
		}
	}
}

func TestDispatcher_LaneIsStable(t *testing.T) {
	d := NewDispatcher(8, 1, func(context.Context, Job) {}, nil)

	for i := 0; i < 100; i++ {
		matchID := fmt.Sprintf("match-%d", i)
		lane := d.Lane(matchID)
		assert.GreaterOrEqual(t, lane, 0)
		assert.Less(t, lane, 8)
		assert.Equal(t, lane, d.Lane(matchID))
	}
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	d := NewDispatcher(2, 1, func(context.Context, Job) {}, nil)
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	err := d.Submit(context.Background(), Job{Event: models.MatchEvent{MatchID: "m1"}})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestDispatcher_PanicDoesNotKillLane(t *testing.T) {
	var handled atomic.Int64
	d := NewDispatcher(1, 4, func(_ context.Context, job Job) {
		if job.Event.EventID == "bad" {
			panic("boom")
		}
		handled.Add(1)
	}, nil)
	d.Start(context.Background())

	require.NoError(t, d.Submit(context.Background(), Job{Event: models.MatchEvent{EventID: "bad", MatchID: "m"}}))
	require.NoError(t, d.Submit(context.Background(), Job{Event: models.MatchEvent{EventID: "ok", MatchID: "m"}}))
	d.Stop()

	assert.Equal(t, int64(1), handled.Load())
}

func TestDispatcher_SubmitHonoursContext(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d := NewDispatcher(1, 1, func(context.Context, Job) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
	}, nil)
	d.Start(context.Background())
	defer func() {
		close(block)
		d.Stop()
	}()

	job := Job{Event: models.MatchEvent{MatchID: "m"}}
	require.NoError(t, d.Submit(context.Background(), job))
	<-started

	// The worker is busy, this fills the queue
	require.NoError(t, d.Submit(context.Background(), job))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Submit(ctx, job)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
