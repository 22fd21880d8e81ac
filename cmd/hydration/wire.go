package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"hydration/internal/adapter/events"
	"hydration/internal/adapter/kv"
	"hydration/internal/adapter/memory"
	"hydration/internal/adapter/postgres"
	"hydration/internal/app"
	"hydration/internal/config"
	"hydration/internal/domain"
	"hydration/internal/logging"
)

// application holds the wired services and the resources they own.
type application struct {
	cfg config.Config
	log *slog.Logger

	intake   *app.IntakeService
	history  *app.HistoryService
	profile  *app.ProfileService
	settings *app.SettingsService
	auth     *app.AuthService

	closers []func() error
}

func newApplication(ctx context.Context, cfg config.Config, logOut io.Writer) (*application, error) {
	log := logging.New(logOut, cfg.LogFormat, cfg.LogLevel)
	a := &application{cfg: cfg, log: log}

	var (
		repo     domain.IntakeRepository
		users    domain.UserRepository
		sessions domain.SessionRepository
		kvOpts   = kv.Options{Path: filepath.Join(cfg.DataDir, "kv")}
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		repo, users, sessions = db, db, postgres.NewSessionRepo(db)
	} else {
		log.Warn("DATABASE_URL not set, all data is kept in memory only")
		mem := memory.New()
		repo, users, sessions = mem, mem, mem.NewSessionRepo()
		// User IDs restart with the process, so nothing keyed by them may persist.
		kvOpts = kv.Options{InMemory: true}
	}

	store, err := kv.Open(kvOpts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	var notifier domain.GoalNotifier
	if len(cfg.KafkaBrokers) > 0 {
		kn := events.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		a.closers = append(a.closers, kn.Close)
		notifier = kn
	} else {
		notifier = events.NewLogNotifier(log)
	}

	a.intake = app.NewIntakeService(repo, store, store, notifier, log, cfg.Location)
	a.history = app.NewHistoryService(repo, store, log, cfg.Location)
	a.profile = app.NewProfileService(store, log)
	a.settings = app.NewSettingsService(store, log)
	a.auth = app.NewAuthService(users, sessions, cfg.SessionTTL).WithIdentityCache(store, app.DefaultIdentityCacheTTL)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close", "err", err)
		}
	}
	a.closers = nil
}
