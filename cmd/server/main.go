package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/riskcare/risk-server/internal/api"
	"github.com/riskcare/risk-server/internal/config"
	"github.com/riskcare/risk-server/internal/ensemble"
	"github.com/riskcare/risk-server/internal/metrics"
	"github.com/riskcare/risk-server/internal/store"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "risk-server",
		Short:        "Ensemble disease risk scoring service",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), scoreCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Train the ensembles and start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return runServer(cfg, newLogger(cfg))
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *store.Migrator) error {
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *store.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied " + s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%03d  %-30s  %s\n", s.Version, s.Name, state)
				}
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *store.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrations")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := store.NewPool(connectCtx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	return fn(ctx, store.NewMigrator(pool))
}

func scoreCmd() *cobra.Command {
	var (
		disease  string
		features []string
	)
	cmd := &cobra.Command{
		Use:     "score",
		Short:   "Score one feature vector and print the result as JSON",
		Example: "  risk-server score --disease diabetes --feature glucose=180 --feature bmi=38 --feature age=60",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := parseFeatures(features)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if _, err := ensemble.ParseDisease(disease); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			reg, err := ensemble.NewRegistry(ctx, cfg.Training())
			if err != nil {
				return fmt.Errorf("train ensembles: %w", err)
			}
			res, err := reg.ScoreRaw(disease, raw)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVarP(&disease, "disease", "d", "", "disease category to score")
	cmd.Flags().StringArrayVarP(&features, "feature", "f", nil, "feature as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("disease")
	return cmd
}

// parseFeatures turns name=value pairs into raw input for ScoreRaw.
func parseFeatures(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("feature %q: expected name=value", p)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if strings.EqualFold(cfg.LogFormat, "console") {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(level)
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	gin.SetMode(cfg.GinMode)
	ctx := context.Background()

	var (
		st store.Store
		db api.HealthChecker
	)
	if cfg.EnableDB {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err := store.NewPool(connectCtx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg("database connection failed")
			return err
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")

		pg := store.NewPostgresStore(pool)
		st, db = store.Instrument(pg, metrics.RecordDBQuery), pg
	} else {
		st = store.NewMemoryStore()
		logger.Warn().Msg("database disabled; predictions and metrics are kept in memory")
	}

	training := cfg.Training()
	logger.Info().
		Int64("seed", training.Seed).
		Int("samples", training.Samples).
		Str("validation_mode", string(training.Mode)).
		Msg("training ensembles")
	registry, err := ensemble.NewRegistry(ctx, training)
	if err != nil {
		logger.Error().Err(err).Msg("ensemble training failed")
		return err
	}
	infos := registry.Infos()
	metrics.RecordBundles(infos)
	for _, info := range infos {
		logger.Info().
			Str("disease", string(info.Disease)).
			Float64("holdout_accuracy", info.HoldoutAccuracy).
			Dur("training_time", info.TrainingTime).
			Msg("bundle ready")
	}

	srv := &api.Server{
		Scorer: registry,
		Store:  st,
		DB:     db,
		Logger: logger,
		Opts: api.Options{
			CORSOrigins:    cfg.CORSOrigins,
			MaxBodyBytes:   cfg.MaxBodyBytes,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			Version:        version,
		},
	}
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("server listening")
	return waitForShutdown(server, logger, errCh)
}

func waitForShutdown(server *http.Server, logger zerolog.Logger, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-stop:
	}

	logger.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}
