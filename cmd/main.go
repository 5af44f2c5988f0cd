// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Shivanand-hulikatti/team-registration/internal/auth"
	"github.com/Shivanand-hulikatti/team-registration/internal/chat"
	"github.com/Shivanand-hulikatti/team-registration/internal/config"
	"github.com/Shivanand-hulikatti/team-registration/internal/database"
	"github.com/Shivanand-hulikatti/team-registration/internal/handler"
	"github.com/Shivanand-hulikatti/team-registration/internal/logging"
	"github.com/Shivanand-hulikatti/team-registration/internal/repository"
	"github.com/Shivanand-hulikatti/team-registration/internal/service"
)

var (
	version = "dev"
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:           "teamreg",
	Short:         "Team registration service with participant quotas",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./teamreg.yaml)")
	rootCmd.Flags().StringP("port", "p", "", "HTTP listen port")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL DSN; empty keeps state in memory")

	// Bind flags to viper
	_ = v.BindPFlag("http.port", rootCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("database.url is required for migrate")
	}
	if err := database.Migrate(cfg.Database.URL); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Build the engine, backed by PostgreSQL when configured ────────
	opts := []service.Option{service.WithLogger(logger)}
	if cfg.Database.URL != "" {
		if cfg.Database.Migrate {
			if err := database.Migrate(cfg.Database.URL); err != nil {
				return err
			}
		}
		pool, err := database.NewPool(ctx, cfg.Database.URL, logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to postgres")
		opts = append(opts, service.WithJournal(repository.NewPostgresJournal(pool)))
	} else {
		logger.Warn("database.url not set, registrations are kept in memory only")
	}

	engine := service.NewRegistrationEngine(
		repository.NewRegistrationStore(nil),
		repository.NewActivityLog(nil),
		cfg.InitialEventConfig(),
		opts...,
	)
	if err := engine.Restore(ctx); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	// ── 2. Wire up collaborators ─────────────────────────────────────────
	roles := auth.NewDirectory(cfg.Auth.Admins)
	chatHandler := chat.NewHandler(engine, roles, logger)
	regHandler := handler.NewRegistrationHandler(engine, chatHandler,
		handler.NewTokenRegistry(cfg.Security.TokenTTL), logger)

	// ── 3. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      handler.NewRouter(regHandler, roles, cfg.Security.ClientVersion, logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", "http://localhost:"+cfg.HTTP.Port,
			"max_capacity", engine.Config().MaxCapacity)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Block until SIGINT/SIGTERM or a listener failure.
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
