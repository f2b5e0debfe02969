package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"royaltriangle/config"
	"royaltriangle/internal/database"
	"royaltriangle/internal/router"
	"royaltriangle/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "royaltriangle",
		Short:         "Royal Triangle matrix platform",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configDir)
			if err != nil {
				return err
			}
			return logger.Initialize(cfg.LogLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config", "", "directory containing config.yaml")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			logger.Logger().Info("migration complete")
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Upsert plans and settings and create the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			return seed(cmd.Context(), db, cfg)
		},
	})
	return root
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, config.ErrMissingDSN
	}
	return database.NewDB(&cfg.Database)
}

func seed(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	if err := database.SeedPlans(ctx, db, cfg.Plans); err != nil {
		return err
	}
	if err := database.SeedSettings(ctx, db, cfg); err != nil {
		return err
	}
	if err := database.SeedAdmin(ctx, db, cfg.Admin, cfg.Security.BcryptCost); err != nil {
		return err
	}
	logger.Logger().Info("seed complete", zap.Int("plans", len(cfg.Plans)))
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Logger()
	if err := cfg.Validate(); err != nil {
		return err
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	if err := seed(ctx, db, cfg); err != nil {
		return err
	}
	rdb, err := database.ConnectRedis(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	engine, err := router.Setup(cfg, db, rdb)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
