// Package app wires configuration, storage, identity resolution, the
// service-identity network session, and the HTTP transport together.
package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/skymail/skymail/internal/auth"
	"github.com/skymail/skymail/internal/bsky"
	"github.com/skymail/skymail/internal/config"
	"github.com/skymail/skymail/internal/mailbox"
	"github.com/skymail/skymail/internal/sessionfile"
	"github.com/skymail/skymail/internal/store"
	"github.com/skymail/skymail/internal/store/mysql"
	"github.com/skymail/skymail/internal/store/sqlite"
	transporthttp "github.com/skymail/skymail/internal/transport/http"
)

// App holds the assembled service.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	session         *bsky.Session
	cfg             *config.Config
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("driver", cfg.StorageDriver).Msg("mailbox store initialized")

	client := bsky.NewClient(cfg.PDSHost)
	directory := bsky.NewDirectory(client, cfg.PlcHost)
	svc := mailbox.NewService(st, directory, logger)

	// The service's own identity session. Persisted on every lifecycle
	// event so a restart resumes without re-authenticating. Distinct from
	// the per-user sessions recipients hold client-side; the two are
	// never shared.
	session := bsky.NewSession(client, func(event bsky.SessionEvent, data *bsky.SessionData) {
		switch event {
		case bsky.SessionCreated, bsky.SessionUpdated:
			if err := sessionfile.Save(cfg.SessionPath, data); err != nil {
				logger.Warn().Err(err).Msg("failed to persist service session")
			}
		case bsky.SessionExpired:
			if err := sessionfile.Clear(cfg.SessionPath); err != nil {
				logger.Warn().Err(err).Msg("failed to clear service session")
			}
		}
	})

	// The wired route trusts decoded claims, as the upstream service
	// does. Swap in &auth.VerifyingAuthenticator{Keys: directory} to
	// require checked signatures.
	var authn auth.Authenticator = auth.DecodeAuthenticator{}

	server := transporthttp.NewServer(svc, authn, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		session:         session,
		cfg:             cfg,
		log:             logger,
	}, nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StorageDriver {
	case "mysql":
		return mysql.New(mysql.Config{
			Host:     cfg.MysqlHost,
			Port:     cfg.MysqlPort,
			Database: cfg.MysqlDatabase,
			User:     cfg.MysqlUser,
			Password: cfg.MysqlPassword,
		})
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// Run logs the service identity in, starts the HTTP server, and blocks
// until context cancellation or a fatal error.
func (a *App) Run(ctx context.Context) error {
	if err := a.login(ctx); err != nil {
		a.cleanup()
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// login establishes the service-identity session: resume from the
// persisted token pair when possible, full credential login otherwise.
func (a *App) login(ctx context.Context) error {
	if a.cfg.BskyIdentifier == "" {
		a.log.Warn().Msg("no service identity configured, skipping network login")
		return nil
	}

	if persisted, err := sessionfile.Load(a.cfg.SessionPath); err == nil {
		if err := a.session.Resume(ctx, *persisted); err == nil {
			a.log.Info().Str("handle", a.session.Handle()).Msg("service session resumed")
			return nil
		} else if !errors.Is(err, bsky.ErrSessionExpired) {
			a.log.Warn().Err(err).Msg("could not resume persisted session, logging in")
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		a.log.Warn().Err(err).Msg("could not read persisted session, logging in")
	}

	if err := a.session.Create(ctx, a.cfg.BskyIdentifier, a.cfg.BskyPassword); err != nil {
		return fmt.Errorf("service identity login: %w", err)
	}
	a.log.Info().Str("handle", a.session.Handle()).Str("did", a.session.DID()).Msg("service session created")
	return nil
}

// cleanup closes the store and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
