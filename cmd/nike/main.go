// Command nike is the fantasy scoring engine.
//
// Usage:
//
//	nike serve
//	nike bonuses <match_id> [--dry-run]
//	nike context <match_id>
//	nike rules <sport_key>
//	nike migrate
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/XavierBriggs/Nike/internal/bonus"
	"github.com/XavierBriggs/Nike/internal/config"
	"github.com/XavierBriggs/Nike/internal/matchctx"
	"github.com/XavierBriggs/Nike/internal/registry"
	"github.com/XavierBriggs/Nike/internal/store"
	"github.com/XavierBriggs/Nike/internal/writer"
	"github.com/XavierBriggs/Nike/pkg/models"
	"github.com/XavierBriggs/Nike/sports/basketball_nba"
	"github.com/XavierBriggs/Nike/sports/soccer"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "nike",
		Short:        "Nike fantasy scoring engine",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(bonusesCmd())
	root.AddCommand(contextCmd())
	root.AddCommand(rulesCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRegistry registers every compiled-in sport plugin
func newRegistry() (*registry.SportRegistry, error) {
	return registry.NewSportRegistry(
		soccer.NewModule(),
		basketball_nba.NewModule(),
	)
}

// loadConfig reads configuration and applies the log level
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return cfg, nil
}

// openDB connects to Postgres and verifies the connection
func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// --------------------------------------------------------------------------
// one-shot commands
// --------------------------------------------------------------------------

func bonusesCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "bonuses <match_id>",
		Short: "Calculate a finished match's bonuses and replace the stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			db, err := openDB(ctx, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			reg, err := newRegistry()
			if err != nil {
				return err
			}
			st := store.NewStore(db)
			engine := bonus.NewEngine(matchctx.NewBuilder(st, st, st, reg, logger), reg, cfg.Pipeline.BonusConcurrency, logger)

			var result *models.MatchBonusResult
			if dryRun {
				result, err = engine.Calculate(ctx, args[0])
			} else {
				// No notifier: a manual recalculation only replaces the stored result
				processor := bonus.NewProcessor(engine, writer.NewBonusWriter(db, nil, logger), nil, logger)
				result, err = processor.Process(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Calculate without storing the result")
	return cmd
}

func contextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context <match_id>",
		Short: "Rebuild and print a match context from its event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			db, err := openDB(ctx, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			reg, err := newRegistry()
			if err != nil {
				return err
			}
			st := store.NewStore(db)

			mc, err := matchctx.NewBuilder(st, st, st, reg, logger).Build(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(mc)
		},
	}
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules <sport_key>",
		Short: "List a sport's live and post-match rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := newRegistry()
			if err != nil {
				return err
			}
			live, post, err := reg.GetRules(args[0])
			if err != nil {
				return fmt.Errorf("%w (registered: %v)", err, reg.Keys())
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PHASE\tRULE\tPOINTS\tPRIORITY")
			for _, r := range live {
				fmt.Fprintf(tw, "live\t%s\t%d\t-\n", r.Name, r.Points)
			}
			for _, r := range bonus.SortRules(post) {
				fmt.Fprintf(tw, "post-match\t%s\t-\t%d\n", r.Name, r.Priority)
			}
			return tw.Flush()
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			db, err := openDB(ctx, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.EnsureSchema(ctx, db); err != nil {
				return err
			}
			logger.Info("schema is up to date")
			return nil
		},
	}
}
