package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	emailPkg "trainingops/internal/adapters/email"
	web "trainingops/internal/adapters/http"
	"trainingops/internal/adapters/http/perf"
	"trainingops/internal/adapters/storage"
	auditStore "trainingops/internal/adapters/storage/audit"
	eventStore "trainingops/internal/adapters/storage/event"
	outboxStore "trainingops/internal/adapters/storage/outbox"
	personStore "trainingops/internal/adapters/storage/person"
	referenceStore "trainingops/internal/adapters/storage/reference"
	rosterStore "trainingops/internal/adapters/storage/roster"
	"trainingops/internal/application/orchestrators"
	"trainingops/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg config.Config) error {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	schema, err := storage.CurrentSchemaVersion(db)
	if err != nil {
		return err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	stores := &web.Stores{
		PersonStore:    personStore.NewSQLiteStore(timedDB),
		ReferenceStore: referenceStore.NewSQLiteStore(timedDB),
		EventStore:     eventStore.NewSQLiteStore(timedDB),
		RosterStore:    rosterStore.NewSQLiteStore(timedDB),
		OutboxStore:    outboxStore.NewSQLiteStore(timedDB),
		AuditStore:     auditStore.NewSQLiteStore(timedDB),
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		slog.Info("email_sender_configured", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_sender_disabled", "reason", "TRAININGOPS_RESEND_KEY is not set")
		}
	}
	web.SetEmailSender(sender, cfg.EmailFrom)

	// Retry queued import reports until shutdown.
	outboxStopCh := make(chan struct{})
	defer close(outboxStopCh)
	orchestrators.StartBackgroundWorker(orchestrators.NewOutboxProcessor(stores.OutboxStore, sender), cfg.OutboxInterval, outboxStopCh)
	if len(cfg.OperatorKeys) == 0 {
		slog.Warn("operator_auth_disabled", "reason", "TRAININGOPS_OPERATOR_KEYS is empty")
	}

	handler := web.NewMux(stores, collector, web.Options{
		MaxUploadBytes:       cfg.MaxUploadBytes(),
		SyntheticEmailDomain: cfg.SyntheticEmailDomain,
		RateLimitPerSecond:   cfg.RateLimit,
		SlowRequestMs:        cfg.SlowRequestMs,
		OperatorKeys:         cfg.OperatorKeys,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", schema)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
