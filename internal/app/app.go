package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"hoaportal/internal/retention"
	"hoaportal/pkg/auth"
	"hoaportal/pkg/banner"
	"hoaportal/pkg/config"
	"hoaportal/pkg/logger"
	"hoaportal/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg       *config.Config
	source    string
	version   string
	commit    string
	buildDate string

	sessions *auth.Manager
	srv      *http.Server
}

// New initializes resources that do not require a running context (DB,
// session manager). It does not start the HTTP server; call Run to
// start it and block until shutdown.
func New(cfg *config.Config, source, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := store.Open(cfg.Storage.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", cfg.Storage.DBPath, err)
	}

	return &App{
		cfg:       cfg,
		source:    source,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		sessions:  auth.NewManager(cfg.AccessTTL(), cfg.RefreshWindow()),
	}, nil
}

// Run starts the retention scheduler and the HTTP server, blocking
// until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	stopRetention, err := retention.Start(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer stopRetention()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.shutdownHTTP()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases resources owned by the app.
func (a *App) Close() error {
	return store.Close()
}

func (a *App) shutdownHTTP() {
	if a.srv == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGrace())
	defer cancel()
	if err := a.srv.Shutdown(sctx); err != nil {
		logger.Warn("http_shutdown_incomplete", "error", err)
	}
}

func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "" && a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.cfg, a.source, verStr)
}

// validateConfig fails fast on settings the server cannot run with.
func validateConfig(cfg *config.Config) error {
	if cfg.Storage.DBPath == "" {
		return fmt.Errorf("db path is required (use --db or HOAPORTAL_DB_PATH)")
	}
	tls := cfg.Server.TLS
	if (tls.CertFile == "") != (tls.KeyFile == "") {
		return fmt.Errorf("tls requires both cert_file and key_file")
	}
	if cfg.RefreshWindow() < cfg.AccessTTL() {
		return fmt.Errorf("sessions.refresh_window must not be shorter than sessions.access_ttl")
	}
	return nil
}
