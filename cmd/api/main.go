package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"containerboard/api/internal/app"
	"containerboard/api/internal/auth"
	"containerboard/api/internal/config"
	"containerboard/api/internal/events"
	"containerboard/api/internal/logger"
	"containerboard/api/internal/persist"
	"containerboard/api/internal/store"
	"containerboard/api/internal/tracker"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "api",
	Short:         "Container ETA board API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONTAINERS_CONFIG"), "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	log, err := logger.New(cfg.Logger())
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("configure logger: %w", err)
	}
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	keyMode, err := store.ParseKeyMode(cfg.KeyMode)
	if err != nil {
		return err
	}
	claimScope, err := tracker.ParseClaimScope(cfg.ClaimScope)
	if err != nil {
		return err
	}
	location, err := cfg.Location()
	if err != nil {
		return err
	}

	closers := make([]io.Closer, 0, 3)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	var primary persist.Store
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := openMigrated(ctx, cfg, log)
		if err != nil {
			return err
		}
		closers = append(closers, db)
		primary = store.NewPostgresStore(db, keyMode)
		log.Info().Str("key_mode", string(keyMode)).Msg("using postgres as primary store")
	} else {
		log.Info().Msg("no DATABASE_URL, running mirror-only")
	}

	mirror, err := openMirror(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, mirror)
	log.Info().Str("mirror", mirror.Name()).Msg("mirror store ready")

	synchronizer, err := persist.NewSynchronizer(primary, mirror, logger.WithComponent(log, "sync"))
	if err != nil {
		return err
	}

	var notifier events.Notifier = events.Nop{}
	if strings.TrimSpace(cfg.NATSURL) != "" {
		natsNotifier, err := events.NewNATSNotifier(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return err
		}
		defer natsNotifier.Close()
		notifier = natsNotifier
		log.Info().Str("subject", cfg.NATSSubject).Msg("publishing view changes to nats")
	}

	service := app.NewService(auth.NewVerifier(cfg.TokenSecret), synchronizer, notifier, app.Options{
		PerUserScope: cfg.PerUserScope,
		ClaimScope:   claimScope,
		Location:     location,
		Log:          logger.WithComponent(log, "board"),
	})

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, logger.WithComponent(log, "http"))
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("container board API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown error")
	}
	return nil
}

type mirrorStore interface {
	persist.Store
	io.Closer
}

func openMirror(cfg config.Config) (mirrorStore, error) {
	switch cfg.MirrorBackend {
	case "redis":
		return persist.NewRedisMirror(cfg.RedisURL)
	case "sqlite":
		return persist.NewSQLiteMirror(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown mirror backend %q", cfg.MirrorBackend)
	}
}

func openMigrated(ctx context.Context, cfg config.Config, log zerolog.Logger) (*sql.DB, error) {
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir, logger.WithComponent(log, "migrate"))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	if len(applied) > 0 {
		log.Info().Strs("applied", applied).Msg("migrations applied")
	}
	return db, nil
}
