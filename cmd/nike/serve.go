package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/XavierBriggs/Nike/internal/api"
	"github.com/XavierBriggs/Nike/internal/bonus"
	"github.com/XavierBriggs/Nike/internal/closer"
	"github.com/XavierBriggs/Nike/internal/config"
	"github.com/XavierBriggs/Nike/internal/consumer"
	"github.com/XavierBriggs/Nike/internal/matchctx"
	"github.com/XavierBriggs/Nike/internal/notifier"
	"github.com/XavierBriggs/Nike/internal/scheduler"
	"github.com/XavierBriggs/Nike/internal/scoring"
	"github.com/XavierBriggs/Nike/internal/store"
	"github.com/XavierBriggs/Nike/internal/totals"
	"github.com/XavierBriggs/Nike/internal/writer"
	"github.com/XavierBriggs/Nike/pkg/contracts"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume match streams, score live events and award post-match bonuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to Postgres")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	// Sport plugins are registered before anything consumes
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	logger.Info("registered sports", "count", reg.Count(), "sports", reg.Keys())

	st := store.NewStore(db)
	totalsEngine := totals.NewEngine(redisClient, cfg.Pipeline.TotalsTTL)

	scoreWriter := writer.NewWriter(db, redisClient, logger)
	scoreWriter.SetTotals(totalsEngine)
	scoreWriter.SetBatching(cfg.Pipeline.BatchSize, cfg.Pipeline.FlushInterval)

	builder := matchctx.NewBuilder(st, st, st, reg, logger)
	engine := bonus.NewEngine(builder, reg, cfg.Pipeline.BonusConcurrency, logger)

	bonusNotifier, closeNotifier, err := newNotifier(cfg.Notifier, redisClient)
	if err != nil {
		return err
	}
	defer closeNotifier()

	processor := bonus.NewProcessor(engine, writer.NewBonusWriter(db, redisClient, logger), bonusNotifier, logger)

	sched := scheduler.NewScheduler(
		reg,
		scoring.NewApplier(reg),
		scoreWriter,
		processor,
		cfg.Pipeline.Lanes,
		cfg.Pipeline.LaneQueueSize,
		logger,
	)
	sweeper := closer.NewSweeper(st, processor, cfg.Pipeline.SweepInterval, cfg.Pipeline.SweepLimit, logger)
	streamConsumer := consumer.NewStreamConsumer(redisClient, sched, cfg.Stream, logger)

	handler := api.NewHandler(db, reg, builder, processor, totalsEngine, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(handler, cfg.Server.CORSAllowOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// The pipeline outlives the signal so the writer's final flush can still ack
	pipelineCtx, stopPipeline := context.WithCancel(context.Background())
	defer stopPipeline()
	sched.Start(pipelineCtx)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := streamConsumer.Start(ctx); err != nil {
			logger.Error("stream consumer failed", "error", err)
		}
	}()

	go sweeper.Start(ctx)

	go func() {
		logger.Info("admin API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin API failed", "error", err)
			cancel()
		}
	}()

	logger.Info("nike started",
		"lanes", cfg.Pipeline.Lanes,
		"batch_size", cfg.Pipeline.BatchSize,
		"flush_interval", cfg.Pipeline.FlushInterval,
		"notifier", cfg.Notifier.Kind)

	<-ctx.Done()
	logger.Info("shutting down gracefully")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("admin API shutdown", "error", err)
	}

	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown timeout exceeded waiting for consumer")
	}

	sweeper.Stop()
	sched.Stop()

	logger.Info("nike stopped")
	return nil
}

// newNotifier builds the configured notification sink wrapped in a rate limiter.
// "none" returns a nil notifier, which the processor skips.
func newNotifier(cfg config.NotifierConfig, redisClient *redis.Client) (contracts.Notifier, func(), error) {
	noop := func() {}

	switch cfg.Kind {
	case "none":
		return nil, noop, nil
	case "amqp":
		n, err := notifier.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := n.Close(); err != nil {
				logger.Warn("close AMQP connection", "error", err)
			}
		}
		return notifier.NewRateLimited(n, cfg.RatePerSec, cfg.Burst), closeFn, nil
	default:
		return notifier.NewRateLimited(notifier.NewStreamNotifier(redisClient), cfg.RatePerSec, cfg.Burst), noop, nil
	}
}
