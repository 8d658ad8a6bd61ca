package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/chetana/dailypushup/internal/api"
	"github.com/chetana/dailypushup/internal/config"
	"github.com/chetana/dailypushup/internal/controller"
	"github.com/chetana/dailypushup/internal/notify"
	"github.com/chetana/dailypushup/internal/remote"
	"github.com/chetana/dailypushup/internal/store"
	"github.com/chetana/dailypushup/internal/syncer"
	"github.com/chetana/dailypushup/internal/token"
	"github.com/chetana/dailypushup/internal/widget"
	"github.com/chetana/dailypushup/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

// credentialWarnWindow is how close to expiry the stored token may get
// before startup and status surface a warning.
const credentialWarnWindow = 48 * time.Hour

var rootCmd = &cobra.Command{
	Use:   "pushupd",
	Short: "Daily push-up tracker daemon",
	Long: "pushupd keeps a local cache of your push-up history in sync with the " +
		"tracking server, validates daily sessions, and serves state to local " +
		"presentation shells over HTTP.",
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// deps bundles the wiring shared by the daemon and one-shot commands.
type deps struct {
	cfg    *config.Config
	db     *store.SQLiteStore
	tokens *token.FileStore
	client *remote.Client
	engine *syncer.Engine
}

// buildDeps loads config and constructs the store, credential store,
// remote client and sync engine.
func buildDeps() (*deps, error) {
	// A .env next to the binary is a convenience for development setups.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewFileStore(cfg.Auth.CredentialPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	client, err := remote.NewClient(cfg.Remote.URL, tokens)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &deps{
		cfg:    cfg,
		db:     db,
		tokens: tokens,
		client: client,
		engine: syncer.New(client, db),
	}, nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.db.Close()
	cfg := d.cfg

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	slog.Info("starting",
		"version", Version,
		"server", cfg.Remote.URL,
		"db", cfg.Database.Path,
	)

	if d.tokens.IsLoggedIn() && d.tokens.IsExpiringSoon(credentialWarnWindow) {
		slog.Warn("stored credential expires soon",
			"action", "credential_check",
			"hint", "run 'pushupd login' with a fresh token",
		)
	}

	ctrl := controller.New(d.engine, d.db)

	publisher := widget.NewPublisher(cfg.Widget.Path, logger)

	var notifier notify.Notifier
	if cfg.Reminder.Command != "" {
		notifier = notify.NewCommandNotifier(cfg.Reminder.Command, logger)
	} else {
		notifier = notify.NewNoopNotifier()
	}

	api.RegisterMetrics(prometheus.DefaultRegisterer)
	handler := api.NewHandler(ctrl, d.db, Version)
	router := api.NewRouter(handler)

	srv := &http.Server{
		Addr:         cfg.API.ListenAddr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.API.ReadTimeout),
		WriteTimeout: time.Duration(cfg.API.WriteTimeout),
	}

	var wg sync.WaitGroup
	syncWorker := worker.NewSyncCoordinator(
		d.engine, d.db, publisher, time.Duration(cfg.Sync.Interval))
	reminderWorker := worker.NewReminderCoordinator(
		d.db, notifier, time.Duration(cfg.Reminder.Interval), cfg.Reminder.QuietBefore)
	startWorker(ctx, &wg, "sync", syncWorker.Run)
	startWorker(ctx, &wg, "reminder", reminderWorker.Run)

	go func() {
		slog.Info("facade listening", "address", cfg.API.ListenAddr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.API.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	slog.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
