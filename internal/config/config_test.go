package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"SPORTS", "NIKE_LANES", "NIKE_BATCH_SIZE", "NOTIFIER", "LOG_LEVEL", "NIKE_FLUSH_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"soccer", "basketball_nba"}, cfg.Stream.Sports)
	assert.Equal(t, 8, cfg.Pipeline.Lanes)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.FlushInterval)
	assert.Equal(t, "stream", cfg.Notifier.Kind)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadConfig_CustomValues(t *testing.T) {
	t.Setenv("SPORTS", " soccer , ,basketball_nba")
	t.Setenv("NIKE_LANES", "16")
	t.Setenv("NIKE_FLUSH_INTERVAL", "1s")
	t.Setenv("NOTIFIER", "amqp")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CONSUMER_GROUP", "scoring")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"soccer", "basketball_nba"}, cfg.Stream.Sports)
	assert.Equal(t, 16, cfg.Pipeline.Lanes)
	assert.Equal(t, time.Second, cfg.Pipeline.FlushInterval)
	assert.Equal(t, "amqp", cfg.Notifier.Kind)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "scoring", cfg.Stream.ConsumerGroup)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("NIKE_BATCH_SIZE", "lots")
	t.Setenv("NIKE_FLUSH_INTERVAL", "soon")
	t.Setenv("LOG_LEVEL", "chatty")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Pipeline.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.FlushInterval)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadConfig_RejectsZeroSweep(t *testing.T) {
	t.Setenv("NIKE_SWEEP_INTERVAL", "0s")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NIKE_SWEEP_INTERVAL")

	t.Setenv("NIKE_SWEEP_INTERVAL", "")
	t.Setenv("NIKE_SWEEP_LIMIT", "0")

	_, err = LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NIKE_SWEEP_LIMIT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no sports", func(c *Config) { c.Stream.Sports = nil }, "SPORTS"},
		{"zero lanes", func(c *Config) { c.Pipeline.Lanes = 0 }, "NIKE_LANES"},
		{"negative batch", func(c *Config) { c.Pipeline.BatchSize = -1 }, "NIKE_BATCH_SIZE"},
		{"unknown notifier", func(c *Config) { c.Notifier.Kind = "smtp" }, "NOTIFIER"},
		{"zero lane queue", func(c *Config) { c.Pipeline.LaneQueueSize = 0 }, "NIKE_LANE_QUEUE"},
		{"zero bonus concurrency", func(c *Config) { c.Pipeline.BonusConcurrency = 0 }, "NIKE_BONUS_CONCURRENCY"},
		{"zero sweep limit", func(c *Config) { c.Pipeline.SweepLimit = 0 }, "NIKE_SWEEP_LIMIT"},
		{"zero sweep interval", func(c *Config) { c.Pipeline.SweepInterval = 0 }, "NIKE_SWEEP_INTERVAL"},
		{"zero flush interval", func(c *Config) { c.Pipeline.FlushInterval = 0 }, "NIKE_FLUSH_INTERVAL"},
		{"zero pending retry", func(c *Config) { c.Stream.PendingRetryInterval = 0 }, "PENDING_RETRY_INTERVAL"},
		{"negative totals ttl", func(c *Config) { c.Pipeline.TotalsTTL = -time.Second }, "NIKE_TOTALS_TTL"},
		{"no expiry", func(c *Config) { c.Pipeline.TotalsTTL = 0 }, ""},
		{"zero notify rate", func(c *Config) {
			c.Notifier.Kind = "stream"
			c.Notifier.RatePerSec = 0
		}, "NOTIFY_RATE"},
		{"rate unused without notifier", func(c *Config) { c.Notifier.RatePerSec = 0 }, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Stream: StreamConfig{Sports: []string{"soccer"}, PendingRetryInterval: time.Second},
				Pipeline: PipelineConfig{
					Lanes:            1,
					LaneQueueSize:    1,
					BatchSize:        1,
					FlushInterval:    time.Millisecond,
					BonusConcurrency: 1,
					SweepInterval:    time.Minute,
					SweepLimit:       1,
				},
				Notifier: NotifierConfig{Kind: "none", RatePerSec: 1, Burst: 1},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStreamConfig_Streams(t *testing.T) {
	sc := StreamConfig{Sports: []string{"soccer", "basketball_nba"}}

	assert.Equal(t, []string{"match.events.soccer", "match.events.basketball_nba"}, sc.EventStreams())
	assert.Equal(t, []string{"match.finished.soccer", "match.finished.basketball_nba"}, sc.FinishedStreams())
}
