package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	adapthttp "hydration/internal/adapter/http"
	"hydration/internal/config"
)

const sessionPurgeInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	var oidcCfg adapthttp.OIDCConfig
	if cfg.OIDCEnabled() {
		oidcCfg, err = adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			return err
		}
	}

	srv := adapthttp.New(adapthttp.Services{
		Intake:   a.intake,
		History:  a.history,
		Profile:  a.profile,
		Settings: a.settings,
		Auth:     a.auth,
	}, oidcCfg, a.log, cfg.WebDir)
	if cfg.DisableAuth {
		u, err := a.auth.ValidateForwardAuth(ctx, "local")
		if err != nil {
			return err
		}
		srv = srv.WithoutAuth().WithLocalUser(u)
		a.log.Warn("authentication disabled, all requests act as the local user")
	}

	go purgeSessions(ctx, a)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", "addr", cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func purgeSessions(ctx context.Context, a *application) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.auth.PurgeExpired(ctx); err != nil {
				a.log.Warn("purge expired sessions", "err", err)
			}
		}
	}
}
